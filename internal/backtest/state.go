package backtest

import (
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/fairline/internal/models"
)

// BacktestState tracks the bankroll fold over the time-ordered event
// sequence. It is owned by one run and mutated only between resolutions,
// never concurrently.
type BacktestState struct {
	RunID           uuid.UUID
	InitialBankroll float64
	CurrentBankroll float64
	PeakBankroll    float64
	TotalStaked     float64
	Records         []*models.BetRecord
	EquityCurve     EquityCurve
	SkipCounts      map[models.SkipReason]int
}

// NewBacktestState initializes backtest state
func NewBacktestState(initialBankroll float64) *BacktestState {
	return &BacktestState{
		RunID:           uuid.New(),
		InitialBankroll: initialBankroll,
		CurrentBankroll: initialBankroll,
		PeakBankroll:    initialBankroll,
		Records:         []*models.BetRecord{},
		EquityCurve:     EquityCurve{},
		SkipCounts:      make(map[models.SkipReason]int),
	}
}

// RecordDecision appends a settled record and applies its realized P&L
func (s *BacktestState) RecordDecision(record *models.BetRecord) {
	s.Records = append(s.Records, record)

	if record.SkipReason != models.SkipReasonNone {
		s.SkipCounts[record.SkipReason]++
		return
	}

	s.TotalStaked += record.StakeAmount
	s.CurrentBankroll += record.ProfitLoss
	if s.CurrentBankroll > s.PeakBankroll {
		s.PeakBankroll = s.CurrentBankroll
	}
	s.RecordEquityPoint(record.ResolvedAt, s.CurrentBankroll)
}

// GetCurrentDrawdown calculates peak-to-trough drawdown
func (s *BacktestState) GetCurrentDrawdown() float64 {
	if s.PeakBankroll == 0 {
		return 0
	}
	drawdown := (s.PeakBankroll - s.CurrentBankroll) / s.PeakBankroll
	if drawdown < 0 {
		return 0
	}
	return drawdown
}

// RecordEquityPoint adds an equity point to the curve
func (s *BacktestState) RecordEquityPoint(t time.Time, value float64) {
	drawdown := 0.0
	if value < s.PeakBankroll && s.PeakBankroll > 0 {
		drawdown = (s.PeakBankroll - value) / s.PeakBankroll
	}
	s.EquityCurve = append(s.EquityCurve, EquityPoint{
		Time:     t,
		Value:    value,
		Drawdown: drawdown,
	})
}
