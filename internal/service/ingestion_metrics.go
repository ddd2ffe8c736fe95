package service

import (
	"fmt"
	"sync"
	"time"
)

// IngestionMetrics tracks statistics about one ingestion run
type IngestionMetrics struct {
	mu                 sync.RWMutex
	StartTime          time.Time
	Duration           time.Duration
	QuotesFetched      int
	QuotesStored       int
	ResolutionsFetched int
	ResolutionsStored  int
	Duplicates         int
	ValidationErrors   int
	Errors             int
}

// NewIngestionMetrics creates a new metrics tracker
func NewIngestionMetrics() *IngestionMetrics {
	return &IngestionMetrics{
		StartTime: time.Now(),
	}
}

// Reset resets all metrics
func (m *IngestionMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartTime = time.Now()
	m.Duration = 0
	m.QuotesFetched = 0
	m.QuotesStored = 0
	m.ResolutionsFetched = 0
	m.ResolutionsStored = 0
	m.Duplicates = 0
	m.ValidationErrors = 0
	m.Errors = 0
}

// RecordQuotesStored adds to the stored quote count
func (m *IngestionMetrics) RecordQuotesStored(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QuotesStored += count
}

// RecordResolutionStored increments the stored resolution count
func (m *IngestionMetrics) RecordResolutionStored() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResolutionsStored++
}

// RecordDuplicate increments duplicate count
func (m *IngestionMetrics) RecordDuplicate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Duplicates++
}

// RecordError increments error count
func (m *IngestionMetrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors++
}

// RecordValidationError increments validation error count
func (m *IngestionMetrics) RecordValidationError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ValidationErrors++
}

// String returns a formatted string representation of metrics
func (m *IngestionMetrics) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return fmt.Sprintf(
		"IngestionMetrics{QuotesFetched=%d, QuotesStored=%d, ResolutionsFetched=%d, ResolutionsStored=%d, Duplicates=%d, ValidationErrors=%d, Errors=%d, Duration=%v}",
		m.QuotesFetched,
		m.QuotesStored,
		m.ResolutionsFetched,
		m.ResolutionsStored,
		m.Duplicates,
		m.ValidationErrors,
		m.Errors,
		m.Duration,
	)
}
