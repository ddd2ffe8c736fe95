package backtest

import (
	"encoding/json"
	"math"
	"time"

	"github.com/yourusername/fairline/internal/models"
)

// Metrics represents aggregate performance of one walk-forward run
type Metrics struct {
	TotalDecisions  int                       `json:"total_decisions"`
	BetsPlaced      int                       `json:"bets_placed"`
	WinningBets     int                       `json:"winning_bets"`
	LosingBets      int                       `json:"losing_bets"`
	WinRate         float64                   `json:"win_rate"`
	TotalStaked     float64                   `json:"total_staked"`
	TotalReturn     float64                   `json:"total_return"`
	NetProfit       float64                   `json:"net_profit"`
	ROI             float64                   `json:"roi"`
	KellyGrowthRate float64                   `json:"kelly_growth_rate"`
	MaxDrawdown     float64                   `json:"max_drawdown"`
	Volatility      float64                   `json:"volatility"`
	SharpeRatio     float64                   `json:"sharpe_ratio"`
	SortinoRatio    float64                   `json:"sortino_ratio"`
	ProfitFactor    float64                   `json:"profit_factor"`
	Expectancy      float64                   `json:"expectancy"`
	AverageWin      float64                   `json:"average_win"`
	AverageLoss     float64                   `json:"average_loss"`
	LargestWin      float64                   `json:"largest_win"`
	LargestLoss     float64                   `json:"largest_loss"`
	BrierScore      float64                   `json:"brier_score"`
	StartTime       time.Time                 `json:"start_time"`
	EndTime         time.Time                 `json:"end_time"`
	SkippedByReason map[models.SkipReason]int `json:"skipped_by_reason"`
}

// CalculateMetrics calculates metrics from backtest state
func CalculateMetrics(state *BacktestState, cfg BacktestConfig) Metrics {
	metrics := Metrics{
		SkippedByReason: make(map[models.SkipReason]int),
	}
	if state == nil {
		return metrics
	}

	for reason, count := range state.SkipCounts {
		metrics.SkippedByReason[reason] = count
	}
	metrics.TotalDecisions = len(state.Records)
	metrics.TotalStaked = state.TotalStaked
	metrics.NetProfit = state.CurrentBankroll - state.InitialBankroll
	if state.InitialBankroll > 0 {
		metrics.TotalReturn = metrics.NetProfit / state.InitialBankroll
	}
	if metrics.TotalStaked > 0 {
		metrics.ROI = metrics.NetProfit / metrics.TotalStaked
	}

	bets := make([]*models.BetRecord, 0, len(state.Records))
	for _, record := range state.Records {
		if !record.IsSkip() {
			bets = append(bets, record)
		}
	}
	metrics.BetsPlaced = len(bets)
	metrics.WinningBets, metrics.LosingBets, metrics.AverageWin, metrics.AverageLoss, metrics.LargestWin, metrics.LargestLoss = calculateBetStats(bets)
	metrics.WinRate = calculateWinRate(metrics.WinningBets, metrics.BetsPlaced)
	metrics.ProfitFactor = calculateProfitFactor(bets)
	metrics.Expectancy = calculateExpectancy(bets)
	metrics.KellyGrowthRate = calculateGrowthRate(bets)
	metrics.BrierScore = calculateBrierScore(bets)

	if len(bets) > 0 {
		metrics.StartTime = bets[0].ResolvedAt
		metrics.EndTime = bets[len(bets)-1].ResolvedAt
	}

	metrics.MaxDrawdown = calculateMaxDrawdown(state.EquityCurve)
	returns := state.EquityCurve.GetReturns()
	metrics.Volatility = stddev(returns)
	metrics.SharpeRatio = calculateSharpeRatio(returns, cfg.RiskFreeRate)
	metrics.SortinoRatio = calculateSortinoRatio(returns, cfg.RiskFreeRate)

	return metrics
}

// ToJSON exports metrics to JSON
func (m Metrics) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

// calculateGrowthRate is the mean per-bet log growth of the bankroll, the
// quantity Kelly sizing maximizes in expectation
func calculateGrowthRate(bets []*models.BetRecord) float64 {
	if len(bets) == 0 {
		return 0
	}
	sum := 0.0
	counted := 0
	for _, bet := range bets {
		if bet.BankrollBefore <= 0 {
			continue
		}
		growth := 1.0 + bet.ProfitLoss/bet.BankrollBefore
		if growth <= 0 {
			return math.Inf(-1)
		}
		sum += math.Log(growth)
		counted++
	}
	if counted == 0 {
		return 0
	}
	return sum / float64(counted)
}

// calculateBrierScore is the mean squared error of the model probabilities
// against realized outcomes, over placed bets
func calculateBrierScore(bets []*models.BetRecord) float64 {
	if len(bets) == 0 {
		return 0
	}
	sum := 0.0
	for _, bet := range bets {
		realized := 0.0
		if bet.Won() {
			realized = 1.0
		}
		diff := bet.ModelProbability - realized
		sum += diff * diff
	}
	return sum / float64(len(bets))
}

func calculateSharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean := average(returns)
	std := stddev(returns)
	if std == 0 {
		return 0
	}
	return (mean - riskFreeRate/252.0) / std * math.Sqrt(252)
}

func calculateSortinoRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean := average(returns)
	std := downsideStddev(returns)
	if std == 0 {
		return 0
	}
	return (mean - riskFreeRate/252.0) / std * math.Sqrt(252)
}

func calculateMaxDrawdown(curve EquityCurve) float64 {
	maxDD := 0.0
	peak := 0.0
	for _, p := range curve {
		if p.Value > peak {
			peak = p.Value
		}
		if peak == 0 {
			continue
		}
		drawdown := (peak - p.Value) / peak
		if drawdown > maxDD {
			maxDD = drawdown
		}
	}
	return maxDD
}

func calculateProfitFactor(bets []*models.BetRecord) float64 {
	grossProfit := 0.0
	grossLoss := 0.0
	for _, bet := range bets {
		if bet.ProfitLoss > 0 {
			grossProfit += bet.ProfitLoss
		} else {
			grossLoss += math.Abs(bet.ProfitLoss)
		}
	}
	if grossLoss == 0 {
		if grossProfit > 0 {
			return 999
		}
		return 0
	}
	return grossProfit / grossLoss
}

func calculateExpectancy(bets []*models.BetRecord) float64 {
	if len(bets) == 0 {
		return 0
	}
	net := 0.0
	for _, bet := range bets {
		net += bet.ProfitLoss
	}
	return net / float64(len(bets))
}

func calculateBetStats(bets []*models.BetRecord) (int, int, float64, float64, float64, float64) {
	wins := 0
	losses := 0
	winSum := 0.0
	lossSum := 0.0
	largestWin := 0.0
	largestLoss := 0.0
	for _, bet := range bets {
		pl := bet.ProfitLoss
		if pl > 0 {
			wins++
			winSum += pl
			if pl > largestWin {
				largestWin = pl
			}
		} else if pl < 0 {
			losses++
			lossSum += pl
			if pl < largestLoss {
				largestLoss = pl
			}
		}
	}

	avgWin := 0.0
	avgLoss := 0.0
	if wins > 0 {
		avgWin = winSum / float64(wins)
	}
	if losses > 0 {
		avgLoss = lossSum / float64(losses)
	}
	return wins, losses, avgWin, avgLoss, largestWin, largestLoss
}

func calculateWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	return mean / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := average(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

func downsideStddev(values []float64) float64 {
	negatives := make([]float64, 0)
	for _, v := range values {
		if v < 0 {
			negatives = append(negatives, v)
		}
	}
	return stddev(negatives)
}
