// Package csvfeed serves daily bars from local CSV files, one file per ticker.
package csvfeed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/RegimeTrader/internal/model"
	"github.com/Alias1177/RegimeTrader/internal/provider"
)

var _ provider.Provider = (*Feed)(nil)

var requiredColumns = []string{"date", "close"}

// Feed reads <Dir>/<TICKER>.csv with a header row containing at least date and close.
// Open, high, low and volume columns are optional.
type Feed struct {
	dir    string
	logger zerolog.Logger
}

// New creates a CSV feed rooted at dir.
func New(dir string) *Feed {
	return &Feed{
		dir:    dir,
		logger: log.With().Str("component", "csv_feed").Logger(),
	}
}

// Name returns "csv".
func (f *Feed) Name() string {
	return "csv"
}

// Fetch loads the ticker file and keeps the rows inside [start, end].
func (f *Feed) Fetch(ctx context.Context, ticker string, start, end time.Time) (model.Series, error) {
	if err := provider.ValidateRequest(ticker, start, end); err != nil {
		return model.Series{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.Series{}, err
	}
	symbol := provider.NormalizeTicker(ticker)
	path := filepath.Join(f.dir, symbol+".csv")

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Series{}, fmt.Errorf("%w: no file for %s in %s", provider.ErrDataUnavailable, symbol, f.dir)
		}
		return model.Series{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	candles, err := parse(file)
	if err != nil {
		return model.Series{}, fmt.Errorf("%w: %s: %v", model.ErrMalformedSeries, path, err)
	}

	series := model.Series{Symbol: symbol}
	for _, c := range candles {
		if provider.InRange(c.Date, start, end) {
			series.Candles = append(series.Candles, c)
		}
	}
	sort.Slice(series.Candles, func(i, j int) bool {
		return series.Candles[i].Date.Before(series.Candles[j].Date)
	})

	if err := provider.EnsureData(f.Name(), series); err != nil {
		return model.Series{}, err
	}

	f.logger.Debug().Str("symbol", symbol).Int("count", series.Len()).Msg("Loaded candles from file")
	return series, nil
}

func parse(r io.Reader) ([]model.Candle, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("missing %q column", name)
		}
	}

	var candles []model.Candle
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		date, err := time.Parse(model.DateLayout, strings.TrimSpace(record[columns["date"]]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		closePrice, err := number(record, columns, "close")
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		candle := model.Candle{Date: date, Open: closePrice, High: closePrice, Low: closePrice, Close: closePrice}
		for name, dst := range map[string]*float64{"open": &candle.Open, "high": &candle.High, "low": &candle.Low} {
			if _, ok := columns[name]; !ok {
				continue
			}
			v, err := number(record, columns, name)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			*dst = v
		}
		if idx, ok := columns["volume"]; ok && strings.TrimSpace(record[idx]) != "" {
			vol, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: volume: %w", line, err)
			}
			candle.Volume = int64(vol)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func number(record []string, columns map[string]int, name string) (float64, error) {
	raw := strings.TrimSpace(record[columns[name]])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}
