package di

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/RegimeTrader/internal/config"
	"github.com/Alias1177/RegimeTrader/internal/model"
	"github.com/Alias1177/RegimeTrader/internal/pipeline"
	"github.com/Alias1177/RegimeTrader/internal/provider"
)

func TestProvideDataProvider(t *testing.T) {
	tests := []struct {
		providers string
		wantName  string
		wantErr   bool
	}{
		{"csv", "csv", false},
		{"twelvedata", "twelvedata", false},
		{"alpaca", "alpaca", false},
		{"twelvedata,csv", "twelvedata|csv", false},
		{"yahoo", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.providers, func(t *testing.T) {
			p, err := ProvideDataProvider(&config.Config{DataProvider: tt.providers, CSVDataDir: t.TempDir()})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestProvideStore(t *testing.T) {
	store, closer, err := ProvideStore(context.Background(), &config.Config{CacheBackend: config.CacheMemory})
	require.NoError(t, err)
	assert.IsType(t, &provider.MemoryStore{}, store)
	assert.Nil(t, closer)

	store, _, err = ProvideStore(context.Background(), &config.Config{CacheBackend: config.CacheNone})
	require.NoError(t, err)
	assert.Nil(t, store)

	_, _, err = ProvideStore(context.Background(), &config.Config{CacheBackend: "disk"})
	assert.Error(t, err)
}

func TestBuildRunsCSVPipelineThroughCache(t *testing.T) {
	dir := t.TempDir()
	content := "date,close\n"
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 80; i++ {
		content += start.AddDate(0, 0, i).Format(model.DateLayout) + "," + strconv.FormatFloat(100+float64(i), 'f', 2, 64) + "\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SPY.csv"), []byte(content), 0o644))

	cfg := &config.Config{
		DataProvider: config.ProviderCSV,
		CSVDataDir:   dir,
		CacheBackend: config.CacheMemory,
		CacheTTL:     time.Hour,
	}
	app, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	analyzer := app.Analyzer(pipeline.Options{TailRows: 5})
	end := start.AddDate(0, 0, 79)

	first, err := analyzer.Analyze(context.Background(), "spy", start, end)
	require.NoError(t, err)
	second, err := analyzer.Analyze(context.Background(), "SPY", start, end)
	require.NoError(t, err)

	assert.Equal(t, model.RegimeTrending, first.Regime.Type)
	assert.Equal(t, first, second)
	assert.Len(t, first.TailRows, 5)

	families, err := app.Registry.Gather()
	require.NoError(t, err)
	assert.Equal(t, 1.0, counterValue(families, "regimetrader_fetch_cache_requests_total", "hit"))
	assert.Equal(t, 1.0, counterValue(families, "regimetrader_fetch_cache_requests_total", "miss"))
	assert.Equal(t, 2.0, counterValue(families, "regimetrader_pipeline_runs_total", "Momentum"))
}

// counterValue sums the counters of a family whose labels contain the given value.
func counterValue(families []*dto.MetricFamily, name, labelValue string) float64 {
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetValue() == labelValue {
					total += m.GetCounter().GetValue()
				}
			}
		}
	}
	return total
}
