package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/RegimeTrader/internal/model"
	"github.com/Alias1177/RegimeTrader/internal/provider"
)

type stubProvider struct {
	series model.Series
	err    error
	calls  int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Fetch(context.Context, string, time.Time, time.Time) (model.Series, error) {
	s.calls++
	return s.series, s.err
}

type recorderSpy struct {
	runs     []string
	failures []string
}

func (r *recorderSpy) RecordRun(regime, strategy string) {
	r.runs = append(r.runs, regime+"/"+strategy)
}

func (r *recorderSpy) RecordFetchFailure(name string) {
	r.failures = append(r.failures, name)
}

var (
	jan1 = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	dec1 = time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
)

func TestAnalyze(t *testing.T) {
	stub := &stubProvider{series: makeSeries(80, rising)}
	spy := &recorderSpy{}

	report, err := NewAnalyzer(stub, New(Options{}), spy).Analyze(context.Background(), "TEST", jan1, dec1)
	require.NoError(t, err)

	assert.Equal(t, model.RegimeTrending, report.Regime.Type)
	assert.Equal(t, []string{"Trending/Momentum"}, spy.runs)
	assert.Empty(t, spy.failures)
}

func TestAnalyzeFetchFailureStopsRun(t *testing.T) {
	stub := &stubProvider{err: fmt.Errorf("%w: nothing for XYZ", provider.ErrDataUnavailable)}
	spy := &recorderSpy{}

	report, err := NewAnalyzer(stub, New(Options{}), spy).Analyze(context.Background(), "xyz", jan1, dec1)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, provider.ErrDataUnavailable)
	assert.Contains(t, err.Error(), "XYZ")
	assert.Equal(t, []string{"stub"}, spy.failures)
	assert.Empty(t, spy.runs)
}

func TestAnalyzeInvalidRange(t *testing.T) {
	stub := &stubProvider{series: makeSeries(80, rising)}

	_, err := NewAnalyzer(stub, New(Options{}), nil).Analyze(context.Background(), "TEST", dec1, jan1)
	assert.ErrorIs(t, err, provider.ErrInvalidRange)
	assert.Zero(t, stub.calls)
}

func TestAnalyzeWithoutRecorder(t *testing.T) {
	stub := &stubProvider{series: makeSeries(80, rising)}

	_, err := NewAnalyzer(stub, New(Options{}), nil).Analyze(context.Background(), "TEST", jan1, dec1)
	assert.NoError(t, err)
}
