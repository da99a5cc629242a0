package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/RegimeTrader/internal/config"
)

func TestParseRange(t *testing.T) {
	now := time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)

	start, end, err := parseRange("", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), start)

	start, end, err = parseRange("2020-01-01", "2020-12-31", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC), end)

	_, _, err = parseRange("01/01/2020", "", now)
	assert.ErrorContains(t, err, "--start")
}

func TestApplyFlags(t *testing.T) {
	cfg := &config.Config{DataProvider: "twelvedata", CacheBackend: "memory", TailRows: 10}

	applyFlags(cfg, runFlags{rows: -1})
	assert.Equal(t, "twelvedata", cfg.DataProvider)
	assert.Equal(t, 10, cfg.TailRows)

	applyFlags(cfg, runFlags{provider: "CSV", cache: "None", rows: 0})
	assert.Equal(t, "csv", cfg.DataProvider)
	assert.Equal(t, "none", cfg.CacheBackend)
	assert.Equal(t, -1, cfg.ReportTailRows())
}

func TestStrategiesCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"strategies"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "mean-reversion\nmomentum\n", out.String())
}
