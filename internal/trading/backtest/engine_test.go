package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/RegimeTrader/internal/model"
	"github.com/Alias1177/RegimeTrader/internal/strategy"
)

func TestEngineRunAppliesPreviousBarSignal(t *testing.T) {
	closes := []float64{100, 102, 101, 105, 104, 108}
	signals := []model.Signal{0, 0, 1, 1, 1, 1} // long from k = 2

	results := NewEngine().Run(signalSeries(closes, signals))

	require.Len(t, results.Rows, 5, "only bar 0 lacks a return")
	assert.Equal(t, 1, results.Dropped)

	// Rows are shifted by one against the input: row i is bar i+1.
	rowK := results.Rows[1]    // bar 2
	rowNext := results.Rows[2] // bar 3
	assert.Equal(t, 0.0, rowK.StrategyReturn, "signal(k-1) is flat")
	assert.Equal(t, rowNext.Return, rowNext.StrategyReturn, "signal(k) is long")
	assert.InDelta(t, 105.0/101.0-1, rowNext.StrategyReturn, 1e-15)
}

func TestEngineRunEquityIsCompoundedProduct(t *testing.T) {
	closes := []float64{100, 102, 101, 105, 104, 108}
	signals := []model.Signal{1, 0, 1, 1, 0, 1}

	results := NewEngine().Run(signalSeries(closes, signals))

	expected := 1.0
	for _, row := range results.Rows {
		expected *= 1 + row.StrategyReturn
		assert.Equal(t, expected, row.Equity)
	}
	last := results.Rows[len(results.Rows)-1].Equity
	assert.Equal(t, (last-1)*100, TotalReturnPercent(results))
}

func TestEngineRunAllFlat(t *testing.T) {
	closes := []float64{100, 97, 103, 99, 110, 90}
	signals := make([]model.Signal, len(closes))

	results := NewEngine().Run(signalSeries(closes, signals))

	require.NotEmpty(t, results.Rows)
	for _, row := range results.Rows {
		assert.Equal(t, 0.0, row.StrategyReturn)
		assert.False(t, math.Signbit(row.StrategyReturn), "flat bars earn +0")
		assert.Equal(t, 1.0, row.Equity)
	}
	assert.Equal(t, 0.0, TotalReturnPercent(results))
	assert.True(t, math.IsNaN(SharpeRatio(results)))
}

func TestEngineRunDropsWarmUp(t *testing.T) {
	series := seriesOf(func(i int) float64 { return 100 + float64(i%7) + float64(i)*0.3 }, 40)

	results := NewEngine().Run(strategy.NewMomentum().Run(series))

	// SMA20 is defined from bar 19 on; bars 0..18 are dropped.
	assert.Equal(t, 19, results.Dropped)
	require.Len(t, results.Rows, 21)
	assert.Equal(t, series.Candles[19].Date, results.Rows[0].Date)
	assert.Equal(t, 1.0, results.Rows[0].Equity, "equity starts at 1 on the first defined bar")
	assert.Equal(t, []string{"SMA20"}, results.IndicatorNames)
}

func TestEngineRunDoesNotMutateInput(t *testing.T) {
	series := seriesOf(func(i int) float64 { return 50 + float64(i) }, 25)
	before := append([]model.Candle(nil), series.Candles...)

	NewEngine().Run(strategy.NewMomentum().Run(series))

	assert.Equal(t, before, series.Candles)
}

func TestEngineRunTooShort(t *testing.T) {
	series := seriesOf(func(i int) float64 { return 10 }, 5)

	results := NewEngine().Run(strategy.NewMomentum().Run(series))

	assert.Empty(t, results.Rows)
	assert.Equal(t, 5, results.Dropped)
	assert.True(t, math.IsNaN(TotalReturnPercent(results)))
	assert.True(t, math.IsNaN(SharpeRatio(results)))
}

func signalSeries(closes []float64, signals []model.Signal) model.SignalSeries {
	return model.SignalSeries{
		Series:   seriesOf(func(i int) float64 { return closes[i] }, len(closes)),
		Strategy: "fixed",
		Signals:  signals,
	}
}

func seriesOf(closeAt func(int) float64, n int) model.Series {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]model.Candle, n)
	for i := range candles {
		c := closeAt(i)
		candles[i] = model.Candle{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	return model.Series{Symbol: "TEST", Candles: candles}
}
