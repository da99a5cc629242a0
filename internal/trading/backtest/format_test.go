package backtest

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Alias1177/RegimeTrader/internal/model"
)

func TestFormatReport(t *testing.T) {
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	report := &model.Report{
		Symbol:         "SPY",
		Regime:         model.MarketRegime{Type: model.RegimeLowVolatility, Volatility: 0.01, TrendSMA: 100, LastClose: 99},
		StrategyLabel:  "Momentum (Default)",
		TotalReturnPct: 0,
		SharpeRatio:    math.NaN(),
		IndicatorNames: []string{"SMA20"},
		EquityCurve:    []model.EquityPoint{{Date: date, Value: 1}},
		TailRows:       []model.BacktestRow{{Date: date, Close: 99, Indicators: []float64{100}, Equity: 1}},
		Warnings:       []model.Warning{{Code: model.WarningDegenerateStatistics, Message: "zero variance"}},
	}

	out := FormatReport(report)

	assert.Contains(t, out, "Market regime: Low-Volatility")
	assert.Contains(t, out, "Strategy: Momentum (Default)")
	assert.Contains(t, out, "Sharpe ratio: undefined")
	assert.Contains(t, out, "2024-05-01")
	assert.Contains(t, out, "DEGENERATE_STATISTICS")
}

func TestFormatReportNil(t *testing.T) {
	assert.Equal(t, "No backtest results available", FormatReport(nil))
}

func TestSparkline(t *testing.T) {
	curve := []model.EquityPoint{{Value: 1}, {Value: 2}, {Value: 3}}

	line := Sparkline(curve, 10)

	assert.Equal(t, 3, len([]rune(line)))
	assert.True(t, strings.HasPrefix(line, "▁"))
	assert.True(t, strings.HasSuffix(line, "█"))
	assert.Equal(t, "", Sparkline(nil, 10))
}
