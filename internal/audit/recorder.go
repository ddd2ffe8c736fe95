// Package audit persists an append-only trail of every evaluated decision so
// a run can be reproduced from its records alone.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/yourusername/fairline/internal/models"
)

// Recorder is an append-only sink for immutable bet records. Write failures
// are returned to the caller, never swallowed.
type Recorder interface {
	Record(ctx context.Context, record *models.BetRecord) error
	Close() error
}

// MemoryRecorder keeps records in memory, mainly for tests and replay
type MemoryRecorder struct {
	mu      sync.Mutex
	records []*models.BetRecord
}

// NewMemoryRecorder creates an in-memory recorder
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record appends one record
func (m *MemoryRecorder) Record(ctx context.Context, record *models.BetRecord) error {
	_ = ctx
	if record == nil {
		return fmt.Errorf("record is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

// Records returns the recorded sequence in append order
func (m *MemoryRecorder) Records() []*models.BetRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.BetRecord, len(m.records))
	copy(out, m.records)
	return out
}

// Close is a no-op for the memory recorder
func (m *MemoryRecorder) Close() error {
	return nil
}

// JSONLRecorder appends one JSON object per line to a file. The file is
// opened in append-only mode; records are flushed per write so a crashed run
// keeps everything recorded up to the failure.
type JSONLRecorder struct {
	mu   sync.Mutex
	file *os.File
}

// NewJSONLRecorder opens (creating if needed) the output file for appending
func NewJSONLRecorder(path string) (*JSONLRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit file: %w", err)
	}
	return &JSONLRecorder{file: file}, nil
}

// Record marshals and appends one record
func (j *JSONLRecorder) Record(ctx context.Context, record *models.BetRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("record is required")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.file.Write(data); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

// Close closes the underlying file
func (j *JSONLRecorder) Close() error {
	return j.file.Close()
}

// ReadJSONL loads all records from a JSONL audit file in append order
func ReadJSONL(path string) ([]*models.BetRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit file: %w", err)
	}

	var records []*models.BetRecord
	decoder := json.NewDecoder(bytes.NewReader(data))
	for decoder.More() {
		record := &models.BetRecord{}
		if err := decoder.Decode(record); err != nil {
			return nil, fmt.Errorf("failed to decode record %d: %w", len(records), err)
		}
		records = append(records, record)
	}
	return records, nil
}
