package backtest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yourusername/fairline/internal/models"
)

// GenerateConsoleReport formats run metrics for terminal output
func GenerateConsoleReport(metrics Metrics) string {
	var builder strings.Builder
	builder.WriteString("Walk-Forward Backtest Report\n")
	builder.WriteString("============================\n")
	builder.WriteString(fmt.Sprintf("Decisions: %d (bets placed: %d)\n", metrics.TotalDecisions, metrics.BetsPlaced))
	builder.WriteString(fmt.Sprintf("Total Return: %.2f%%\n", metrics.TotalReturn*100))
	builder.WriteString(fmt.Sprintf("ROI on Turnover: %.2f%%\n", metrics.ROI*100))
	builder.WriteString(fmt.Sprintf("Log Growth Rate: %.5f\n", metrics.KellyGrowthRate))
	builder.WriteString(fmt.Sprintf("Sharpe Ratio: %.2f\n", metrics.SharpeRatio))
	builder.WriteString(fmt.Sprintf("Max Drawdown: %.2f%%\n", metrics.MaxDrawdown*100))
	builder.WriteString(fmt.Sprintf("Win Rate: %.2f%%\n", metrics.WinRate*100))
	builder.WriteString(fmt.Sprintf("Profit Factor: %.2f\n", metrics.ProfitFactor))
	builder.WriteString(fmt.Sprintf("Brier Score: %.4f\n", metrics.BrierScore))

	if len(metrics.SkippedByReason) > 0 {
		builder.WriteString("Skips by reason:\n")
		reasons := make([]string, 0, len(metrics.SkippedByReason))
		for reason := range metrics.SkippedByReason {
			reasons = append(reasons, string(reason))
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			builder.WriteString(fmt.Sprintf("  %s: %d\n", reason, metrics.SkippedByReason[models.SkipReason(reason)]))
		}
	}
	return builder.String()
}

// GenerateCSVExport exports key metrics for spreadsheets
func GenerateCSVExport(metrics Metrics, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	csv := "metric,value\n" +
		fmt.Sprintf("total_decisions,%d\n", metrics.TotalDecisions) +
		fmt.Sprintf("bets_placed,%d\n", metrics.BetsPlaced) +
		fmt.Sprintf("total_return,%.4f\n", metrics.TotalReturn) +
		fmt.Sprintf("roi,%.4f\n", metrics.ROI) +
		fmt.Sprintf("kelly_growth_rate,%.6f\n", metrics.KellyGrowthRate) +
		fmt.Sprintf("sharpe_ratio,%.4f\n", metrics.SharpeRatio) +
		fmt.Sprintf("max_drawdown,%.4f\n", metrics.MaxDrawdown) +
		fmt.Sprintf("win_rate,%.4f\n", metrics.WinRate) +
		fmt.Sprintf("profit_factor,%.4f\n", metrics.ProfitFactor) +
		fmt.Sprintf("brier_score,%.4f\n", metrics.BrierScore)
	return os.WriteFile(outputPath, []byte(csv), 0o644)
}

// GenerateJSONExport writes the full metrics struct to disk
func GenerateJSONExport(metrics Metrics, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte(metrics.ToJSON()), 0o644)
}
