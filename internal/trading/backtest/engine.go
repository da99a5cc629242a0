package backtest

import (
	"math"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/RegimeTrader/internal/analysis/technical"
	"github.com/Alias1177/RegimeTrader/internal/model"
)

// Engine replays a signal-annotated series against its own daily returns.
type Engine struct {
	logger zerolog.Logger
}

// NewEngine creates a new backtesting engine
func NewEngine() *Engine {
	return &Engine{
		logger: log.With().Str("component", "backtest_engine").Logger(),
	}
}

// Run computes raw returns, lagged strategy returns and compounded equity, then drops every
// bar with an undefined field. The signal of bar t-1 is applied to the return of bar t, so
// a decision made on today's close is only realised tomorrow.
func (e *Engine) Run(signals model.SignalSeries) *model.BacktestResults {
	candles := signals.Series.Candles
	closes := signals.Series.Closes()
	returns := technical.PctChange(closes)

	strategyReturns := make([]float64, len(closes))
	equity := make([]float64, len(closes))
	value := 1.0
	for t := range closes {
		if t == 0 || math.IsNaN(returns[t]) {
			strategyReturns[t] = math.NaN()
			equity[t] = math.NaN()
			continue
		}
		// A flat prior bar earns exactly zero, never -0 from a negative return.
		if signals.Signals[t-1] == model.SignalLong {
			strategyReturns[t] = returns[t]
		}
		value *= 1 + strategyReturns[t]
		equity[t] = value
	}

	results := &model.BacktestResults{
		Strategy:       signals.Strategy,
		IndicatorNames: make([]string, len(signals.Indicators)),
	}
	for i, ind := range signals.Indicators {
		results.IndicatorNames[i] = ind.Name
	}

	for t := range closes {
		row := model.BacktestRow{
			Date:           candles[t].Date,
			Close:          closes[t],
			Indicators:     make([]float64, len(signals.Indicators)),
			Signal:         signals.Signals[t],
			Return:         returns[t],
			StrategyReturn: strategyReturns[t],
			Equity:         equity[t],
		}
		defined := !math.IsNaN(row.Return) && !math.IsNaN(row.StrategyReturn) && !math.IsNaN(row.Equity)
		for i, ind := range signals.Indicators {
			row.Indicators[i] = ind.Values[t]
			if math.IsNaN(ind.Values[t]) {
				defined = false
			}
		}
		if !defined {
			results.Dropped++
			continue
		}
		results.Rows = append(results.Rows, row)
	}

	e.logger.Debug().
		Str("strategy", results.Strategy).
		Int("bars", len(closes)).
		Int("rows", len(results.Rows)).
		Int("dropped", results.Dropped).
		Msg("Backtest complete")

	return results
}
