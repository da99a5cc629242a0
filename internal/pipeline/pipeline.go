// Package pipeline wires the regime classifier, strategy selection, backtest and metrics
// into one run over a price series.
package pipeline

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/RegimeTrader/internal/analysis/market"
	"github.com/Alias1177/RegimeTrader/internal/model"
	"github.com/Alias1177/RegimeTrader/internal/provider"
	"github.com/Alias1177/RegimeTrader/internal/strategy"
	"github.com/Alias1177/RegimeTrader/internal/trading/backtest"
)

// DefaultTailRows is how many result rows a report carries when not configured.
const DefaultTailRows = 10

// Options configures a Pipeline.
type Options struct {
	// TailRows is the number of trailing result rows copied into the report.
	// Zero means DefaultTailRows; a negative value disables the tail.
	TailRows int
	// Strategy forces a strategy by registry name instead of selecting by regime.
	Strategy string
}

// Pipeline runs Classifier -> Selector -> Strategy -> Backtester -> metrics.
// It holds no state between runs, so the same series always yields the same report.
type Pipeline struct {
	engine   *backtest.Engine
	registry *strategy.Registry
	options  Options
	logger   zerolog.Logger
}

// New creates a pipeline using the built-in strategies.
func New(options Options) *Pipeline {
	if options.TailRows == 0 {
		options.TailRows = DefaultTailRows
	}
	return &Pipeline{
		engine:   backtest.NewEngine(),
		registry: strategy.DefaultRegistry(),
		options:  options,
		logger:   log.With().Str("component", "pipeline").Logger(),
	}
}

// Strategies lists the names accepted by Options.Strategy.
func (p *Pipeline) Strategies() []string {
	return p.registry.List()
}

// Run classifies the series, runs the chosen strategy, backtests it and builds a report.
// Empty series fail with provider.ErrDataUnavailable and unordered or non-positive ones with
// model.ErrMalformedSeries. Short history and undefined Sharpe are reported as warnings.
func (p *Pipeline) Run(series model.Series) (*model.Report, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("%w: empty series for %q", provider.ErrDataUnavailable, series.Symbol)
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}

	regime := market.ClassifyMarketRegime(series)
	p.logger.Debug().
		Str("symbol", series.Symbol).
		Float64("volatility", regime.Volatility).
		Float64("sma50", regime.TrendSMA).
		Float64("last_close", regime.LastClose).
		Bool("trend", regime.Trend).
		Str("regime", string(regime.Type)).
		Msg("Market regime classified")

	strat, label, err := p.chooseStrategy(regime.Type)
	if err != nil {
		return nil, err
	}

	signals := strat.Run(series)
	results := p.engine.Run(signals)

	report := &model.Report{
		Symbol:         series.Symbol,
		Regime:         *regime,
		StrategyLabel:  label,
		EquityCurve:    results.EquityCurve(),
		TotalReturnPct: backtest.TotalReturnPercent(results),
		SharpeRatio:    backtest.SharpeRatio(results),
		MaxDrawdownPct: backtest.MaxDrawdownPercent(results),
		Exposure:       backtest.Exposure(results),
		MonthlyReturns: backtest.MonthlyReturns(results),
		Bars:           series.Len(),
		DroppedRows:    results.Dropped,
		IndicatorNames: results.IndicatorNames,
		TailRows:       results.Tail(p.options.TailRows),
	}
	p.annotate(report, results)

	for _, w := range report.Warnings {
		p.logger.Warn().Str("symbol", series.Symbol).Str("code", string(w.Code)).Msg(w.Message)
	}
	p.logger.Info().
		Str("symbol", report.Symbol).
		Str("regime", string(report.Regime.Type)).
		Str("strategy", report.StrategyLabel).
		Float64("total_return_pct", report.TotalReturnPct).
		Float64("sharpe", report.SharpeRatio).
		Int("rows", len(results.Rows)).
		Msg("Pipeline run complete")

	return report, nil
}

func (p *Pipeline) chooseStrategy(regime model.Regime) (strategy.Strategy, string, error) {
	if p.options.Strategy == "" {
		s, label := strategy.Select(regime)
		return s, label, nil
	}
	return p.registry.Override(p.options.Strategy)
}

// annotate attaches the soft conditions that make parts of the report undefined.
func (p *Pipeline) annotate(report *model.Report, results *model.BacktestResults) {
	if !report.Regime.Sufficient {
		report.Warnings = append(report.Warnings, model.Warning{
			Code: model.WarningInsufficientHistory,
			Message: fmt.Sprintf("series has %d bars but the trend window needs %d; regime read-out is undefined",
				report.Bars, market.TrendWindow),
		})
	}

	switch {
	case len(results.Rows) == 0:
		report.Warnings = append(report.Warnings, model.Warning{
			Code:    model.WarningDegenerateStatistics,
			Message: "no fully defined backtest rows; total return and Sharpe ratio are undefined",
		})
	case len(results.Rows) < 2:
		report.Warnings = append(report.Warnings, model.Warning{
			Code:    model.WarningDegenerateStatistics,
			Message: "fewer than two backtest rows; Sharpe ratio is undefined",
		})
	case math.IsNaN(report.SharpeRatio):
		report.Warnings = append(report.Warnings, model.Warning{
			Code:    model.WarningDegenerateStatistics,
			Message: "strategy returns have zero variance; Sharpe ratio is undefined",
		})
	}
}
