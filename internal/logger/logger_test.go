package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/fairline/internal/models"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerLevels(t *testing.T) {
	log := NewLogger("debug", "development")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log = NewLogger("not-a-level", "development")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestNewLoggerFormatterByEnvironment(t *testing.T) {
	log := NewLogger("info", "production")
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = NewLogger("info", "development")
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)

	log = NewLogger("info", "staging")
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestAuditLoggerEdgeEvaluation(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogEdgeEvaluation(models.EdgeDecision{
		EventID:          "ev_123",
		MarketType:       models.MarketTypeHeadToHead,
		Outcome:          "home",
		ModelProbability: 0.58,
		FairProbability:  0.50,
		Edge:             0.08,
		Qualifies:        true,
		ReferencePrice:   1.91,
		ReferenceBookID:  "bookA",
	})

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "ev_123", logEntry["event_id"])
	assert.Equal(t, "audit", logEntry["component"])
	assert.Equal(t, 0.08, logEntry["edge"])
	assert.Equal(t, true, logEntry["qualifies"])
}

func TestAuditLoggerStakeDecisionBet(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogStakeDecision(&models.BetRecord{
		EventID:        "ev_123",
		Outcome:        "home",
		StakeFraction:  0.04,
		StakeAmount:    40,
		BankrollBefore: 1000,
		ReferencePrice: 1.91,
	})

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, 0.04, logEntry["stake_fraction"])
	assert.Nil(t, logEntry["skip_reason"])
}

func TestAuditLoggerStakeDecisionSkip(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogStakeDecision(&models.BetRecord{
		EventID:        "ev_123",
		Outcome:        "home",
		BankrollBefore: 1000,
		SkipReason:     models.SkipReasonBelowMinEdge,
	})

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, string(models.SkipReasonBelowMinEdge), logEntry["skip_reason"])
	assert.Nil(t, logEntry["stake_amount"])
}

func TestAuditLoggerSettlement(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogSettlement(&models.BetRecord{
		EventID:         "ev_123",
		Outcome:         "home",
		OutcomeRealized: "home",
		StakeAmount:     40,
		ProfitLoss:      36.4,
		ResolvedAt:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	})

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, true, logEntry["won"])
	assert.Equal(t, 36.4, logEntry["profit_loss"])
}

func TestIngestionLoggerSyncCompleted(t *testing.T) {
	log, buf := setupTestLogger()
	ingestionLogger := NewIngestionLogger(log)

	ingestionLogger.LogSyncCompleted("odds_api", "odds", 120, 118, 450.5)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "odds_api", logEntry["source"])
	assert.Equal(t, "ingestion", logEntry["component"])
	assert.Equal(t, float64(118), logEntry["stored"])
}

func TestIngestionLoggerSyncFailed(t *testing.T) {
	log, buf := setupTestLogger()
	ingestionLogger := NewIngestionLogger(log)

	ingestionLogger.LogSyncFailed("odds_api", "results", errors.New("upstream timeout"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "upstream timeout", logEntry["error"])
	assert.Equal(t, "error", logEntry["level"])
}

func TestLoggerJSONFormat(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogRunStarted("run_1", 1000, 42, time.Now())

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	assert.NoError(t, err)
	assert.NotEmpty(t, logEntry)
}

func BenchmarkAuditLoggerEdgeEvaluation(b *testing.B) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	auditLogger := NewAuditLogger(log)

	decision := models.EdgeDecision{
		EventID:          "ev_123",
		Outcome:          "home",
		ModelProbability: 0.58,
		FairProbability:  0.50,
		Edge:             0.08,
		Qualifies:        true,
		ReferencePrice:   1.91,
	}
	for i := 0; i < b.N; i++ {
		auditLogger.LogEdgeEvaluation(decision)
	}
}
