package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/RegimeTrader/internal/model"
	"github.com/Alias1177/RegimeTrader/internal/provider"
)

// Recorder receives run and fetch outcomes. *metrics.Recorder implements it.
type Recorder interface {
	RecordRun(regime, strategy string)
	RecordFetchFailure(provider string)
}

// Analyzer fetches a series and runs the pipeline over it.
type Analyzer struct {
	provider provider.Provider
	pipeline *Pipeline
	recorder Recorder
	logger   zerolog.Logger
}

// NewAnalyzer creates an Analyzer. recorder may be nil.
func NewAnalyzer(p provider.Provider, pipe *Pipeline, recorder Recorder) *Analyzer {
	return &Analyzer{
		provider: p,
		pipeline: pipe,
		recorder: recorder,
		logger:   log.With().Str("component", "analyzer").Logger(),
	}
}

// Analyze fetches [start, end] for ticker and runs the pipeline. Fetch failures abort the
// run before classification and are returned wrapped, so errors.Is still matches the
// provider sentinels.
func (a *Analyzer) Analyze(ctx context.Context, ticker string, start, end time.Time) (*model.Report, error) {
	if err := provider.ValidateRequest(ticker, start, end); err != nil {
		return nil, err
	}

	series, err := a.provider.Fetch(ctx, ticker, start, end)
	if err != nil {
		if a.recorder != nil {
			a.recorder.RecordFetchFailure(a.provider.Name())
		}
		a.logger.Error().Err(err).
			Str("ticker", ticker).
			Str("provider", a.provider.Name()).
			Msg("Failed to fetch price series")
		return nil, fmt.Errorf("fetching %s: %w", provider.NormalizeTicker(ticker), err)
	}

	report, err := a.pipeline.Run(series)
	if err != nil {
		return nil, err
	}

	if a.recorder != nil {
		a.recorder.RecordRun(string(report.Regime.Type), report.StrategyLabel)
	}
	return report, nil
}
