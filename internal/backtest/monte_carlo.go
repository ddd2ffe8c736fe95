package backtest

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/yourusername/fairline/internal/models"
)

// MonteCarloConfig configures monte carlo resampling of a run's bets
type MonteCarloConfig struct {
	Iterations      int
	Seed            int64
	InitialBankroll float64
}

// MonteCarloResult represents monte carlo outcomes
type MonteCarloResult struct {
	Iterations          int                `json:"iterations"`
	MeanReturn          float64            `json:"mean_return"`
	StdReturn           float64            `json:"std_return"`
	VaR95               float64            `json:"var_95"`
	VaR99               float64            `json:"var_99"`
	ProbabilityOfProfit float64            `json:"probability_of_profit"`
	ProbabilityOfRuin   float64            `json:"probability_of_ruin"`
	ConfidenceIntervals map[string]float64 `json:"confidence_intervals"`
	Distribution        []float64          `json:"distribution"`
}

// RunMonteCarlo resamples the placed bets against their model probabilities
// to estimate the dispersion of final bankrolls around the single realized
// path. Stake fractions from the run are reapplied to the simulated bankroll.
func RunMonteCarlo(ctx context.Context, records []*models.BetRecord, cfg MonteCarloConfig) (MonteCarloResult, error) {
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1000
	}
	if cfg.InitialBankroll <= 0 {
		return MonteCarloResult{}, fmt.Errorf("initial bankroll must be positive, got %f", cfg.InitialBankroll)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	bets := make([]*models.BetRecord, 0, len(records))
	for _, record := range records {
		if !record.IsSkip() {
			bets = append(bets, record)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	distribution := make([]float64, cfg.Iterations)

	for i := 0; i < cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return MonteCarloResult{}, err
		}
		bankroll := cfg.InitialBankroll
		for _, bet := range bets {
			stake := bet.StakeFraction * bankroll
			if rng.Float64() < bet.ModelProbability {
				bankroll += stake * (bet.ReferencePrice - 1.0)
			} else {
				bankroll -= stake
			}
			if bankroll <= 0 {
				bankroll = 0
				break
			}
		}
		distribution[i] = bankroll
	}

	mean, std := meanStd(distribution)
	result := MonteCarloResult{
		Iterations:          cfg.Iterations,
		MeanReturn:          (mean - cfg.InitialBankroll) / cfg.InitialBankroll,
		StdReturn:           std / cfg.InitialBankroll,
		VaR95:               (percentile(distribution, 0.05) - cfg.InitialBankroll) / cfg.InitialBankroll,
		VaR99:               (percentile(distribution, 0.01) - cfg.InitialBankroll) / cfg.InitialBankroll,
		ProbabilityOfProfit: probabilityAbove(distribution, cfg.InitialBankroll),
		ProbabilityOfRuin:   probabilityAtOrBelow(distribution, 0),
		ConfidenceIntervals: CalculateConfidenceIntervals(distribution, []float64{0.9, 0.95, 0.99}),
		Distribution:        distribution,
	}
	return result, nil
}

// CalculateConfidenceIntervals computes confidence intervals for distribution
func CalculateConfidenceIntervals(distribution []float64, levels []float64) map[string]float64 {
	results := make(map[string]float64)
	for _, level := range levels {
		p := (1.0 - level) / 2.0
		low := percentile(distribution, p)
		high := percentile(distribution, 1.0-p)
		results[fmt.Sprintf("%.0f%%", level*100)] = high - low
	}
	return results
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean := average(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	idx := int(math.Floor(p * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func probabilityAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v > threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}

func probabilityAtOrBelow(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v <= threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}
