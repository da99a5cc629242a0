package backtest

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Alias1177/RegimeTrader/internal/model"
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// FormatReport creates a human-readable summary of a pipeline run
func FormatReport(report *model.Report) string {
	if report == nil {
		return "No backtest results available"
	}

	output := "\n===== REGIME BACKTEST =====\n"
	output += fmt.Sprintf("Symbol: %s (%d bars, %d warm-up rows dropped)\n", report.Symbol, report.Bars, report.DroppedRows)
	output += fmt.Sprintf("Market regime: %s\n", report.Regime.Type)
	output += fmt.Sprintf("  volatility(20): %s | SMA(50): %s | last close: %s\n",
		formatFloat(report.Regime.Volatility, 4), formatFloat(report.Regime.TrendSMA, 2), formatFloat(report.Regime.LastClose, 2))
	output += fmt.Sprintf("Strategy: %s\n", report.StrategyLabel)

	output += fmt.Sprintf("\nTotal return: %s%%\n", formatFloat(report.TotalReturnPct, 2))
	output += fmt.Sprintf("Sharpe ratio: %s\n", formatFloat(report.SharpeRatio, 2))
	output += fmt.Sprintf("Maximum drawdown: %.2f%%\n", report.MaxDrawdownPct)
	output += fmt.Sprintf("Time in market: %.1f%%\n", report.Exposure*100)

	if len(report.EquityCurve) > 0 {
		output += fmt.Sprintf("\nEquity: %s\n", Sparkline(report.EquityCurve, 60))
	}

	if len(report.MonthlyReturns) > 0 {
		output += "\nMonthly returns:\n"

		months := make([]string, 0, len(report.MonthlyReturns))
		for month := range report.MonthlyReturns {
			months = append(months, month)
		}
		sort.Strings(months)

		for _, month := range months {
			returnValue := report.MonthlyReturns[month]
			sign := ""
			if returnValue > 0 {
				sign = "+"
			}
			output += fmt.Sprintf("- %s: %s%.2f%%\n", month, sign, returnValue)
		}
	}

	if len(report.TailRows) > 0 {
		output += "\n" + FormatRows(report.IndicatorNames, report.TailRows)
	}

	if len(report.Warnings) > 0 {
		output += "\nWarnings:\n"
		for _, w := range report.Warnings {
			output += fmt.Sprintf("- %s: %s\n", w.Code, w.Message)
		}
	}

	return output
}

// FormatRows renders backtest rows as a fixed-width table.
func FormatRows(indicatorNames []string, rows []model.BacktestRow) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%-10s %10s", "Date", "Close"))
	for _, name := range indicatorNames {
		b.WriteString(fmt.Sprintf(" %10s", name))
	}
	b.WriteString(fmt.Sprintf(" %6s %9s %9s %9s\n", "Signal", "Return", "Strategy", "Equity"))

	for _, row := range rows {
		b.WriteString(fmt.Sprintf("%-10s %10.2f", row.Date.Format(model.DateLayout), row.Close))
		for _, v := range row.Indicators {
			b.WriteString(fmt.Sprintf(" %10.2f", v))
		}
		b.WriteString(fmt.Sprintf(" %6d %8.2f%% %8.2f%% %9.4f\n",
			row.Signal, row.Return*100, row.StrategyReturn*100, row.Equity))
	}

	return b.String()
}

// Sparkline draws the equity curve with block characters, sampling down to width points.
func Sparkline(curve []model.EquityPoint, width int) string {
	if len(curve) == 0 || width <= 0 {
		return ""
	}

	values := make([]float64, 0, width)
	step := float64(len(curve)) / float64(width)
	if step < 1 {
		step = 1
	}
	for pos := 0.0; int(pos) < len(curve) && len(values) < width; pos += step {
		values = append(values, curve[int(pos)].Value)
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	out := make([]rune, len(values))
	for i, v := range values {
		level := 0
		if hi > lo {
			level = int((v - lo) / (hi - lo) * float64(len(sparkLevels)-1))
		}
		out[i] = sparkLevels[level]
	}
	return string(out)
}

func formatFloat(v float64, precision int) string {
	if math.IsNaN(v) {
		return "undefined"
	}
	return fmt.Sprintf("%.*f", precision, v)
}
