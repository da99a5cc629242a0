package backtest

import (
	"math"

	"github.com/Alias1177/RegimeTrader/internal/analysis/technical"
	"github.com/Alias1177/RegimeTrader/internal/model"
)

// TradingDaysPerYear annualises daily statistics.
const TradingDaysPerYear = 252

// TotalReturnPercent is (last equity - 1) * 100, or NaN when there are no rows.
func TotalReturnPercent(results *model.BacktestResults) float64 {
	if results == nil || len(results.Rows) == 0 {
		return math.NaN()
	}
	return (results.Rows[len(results.Rows)-1].Equity - 1) * 100
}

// SharpeRatio computes mean/stddev of strategy returns annualised with sqrt(252).
// It is NaN, never zero, when the returns have no variance or fewer than two rows exist.
func SharpeRatio(results *model.BacktestResults) float64 {
	if results == nil {
		return math.NaN()
	}
	returns := results.StrategyReturns()
	std := technical.StdDev(returns)
	if math.IsNaN(std) || std == 0 {
		return math.NaN()
	}
	return technical.Mean(returns) / std * math.Sqrt(TradingDaysPerYear)
}

// MaxDrawdownPercent is the largest peak-to-trough fall of the equity curve, in percent.
func MaxDrawdownPercent(results *model.BacktestResults) float64 {
	if results == nil || len(results.Rows) == 0 {
		return 0
	}

	maxDrawdown := 0.0
	peak := results.Rows[0].Equity
	for _, row := range results.Rows {
		if row.Equity > peak {
			peak = row.Equity
		}
		drawdown := (peak - row.Equity) / peak
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	return maxDrawdown * 100
}

// Exposure is the share of rows whose signal is long.
func Exposure(results *model.BacktestResults) float64 {
	if results == nil || len(results.Rows) == 0 {
		return 0
	}
	long := 0
	for _, row := range results.Rows {
		if row.Signal == model.SignalLong {
			long++
		}
	}
	return float64(long) / float64(len(results.Rows))
}

// MonthlyReturns compounds strategy returns per calendar month, in percent, keyed "2006-01".
func MonthlyReturns(results *model.BacktestResults) map[string]float64 {
	growth := make(map[string]float64)
	if results == nil {
		return growth
	}
	for _, row := range results.Rows {
		month := row.Date.Format("2006-01")
		g, ok := growth[month]
		if !ok {
			g = 1
		}
		growth[month] = g * (1 + row.StrategyReturn)
	}
	for month, g := range growth {
		growth[month] = (g - 1) * 100
	}
	return growth
}
