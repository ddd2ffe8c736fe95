// Package logger provides ingestion-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// IngestionLogger provides dedicated logging for data ingestion operations.
type IngestionLogger struct {
	*logrus.Entry
}

// NewIngestionLogger creates a new ingestion logger.
func NewIngestionLogger(baseLogger *logrus.Logger) *IngestionLogger {
	return &IngestionLogger{
		Entry: baseLogger.WithField("component", "ingestion"),
	}
}

// LogSyncStarted logs the start of a source sync.
func (il *IngestionLogger) LogSyncStarted(source, kind string) {
	il.WithFields(logrus.Fields{
		"source": source,
		"kind":   kind,
	}).Info("Sync started")
}

// LogSyncCompleted logs a completed source sync.
func (il *IngestionLogger) LogSyncCompleted(source, kind string, fetched, stored int, durationMs float64) {
	il.WithFields(logrus.Fields{
		"source":      source,
		"kind":        kind,
		"fetched":     fetched,
		"stored":      stored,
		"duration_ms": durationMs,
	}).Info("Sync completed")
}

// LogSyncFailed logs a failed source sync.
func (il *IngestionLogger) LogSyncFailed(source, kind string, err error) {
	il.WithFields(logrus.Fields{
		"source": source,
		"kind":   kind,
	}).WithError(err).Error("Sync failed")
}

// LogRateLimited logs a request deferred by the client rate limiter.
func (il *IngestionLogger) LogRateLimited(source string, waitMs float64) {
	il.WithFields(logrus.Fields{
		"source":  source,
		"wait_ms": waitMs,
	}).Debug("Request rate limited")
}

// LogCacheHit logs a response served from cache.
func (il *IngestionLogger) LogCacheHit(source, key string) {
	il.WithFields(logrus.Fields{
		"source": source,
		"key":    key,
	}).Debug("Serving cached response")
}
