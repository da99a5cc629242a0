// Package provider defines the price-series source contract and the decorators shared by
// every source: caching by request key and fallback across sources.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Alias1177/RegimeTrader/internal/model"
)

var (
	// ErrDataUnavailable means the source has no usable bars for the ticker and range.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInvalidRange means the start date is after the end date.
	ErrInvalidRange = errors.New("invalid date range")
)

// Provider supplies a daily price series for a symbol and an inclusive date range.
// Implementations must return ErrDataUnavailable (wrapped) rather than an empty series.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, ticker string, start, end time.Time) (model.Series, error)
}

// Key identifies one fetch. Equal keys must always yield equal series.
type Key struct {
	Ticker string
	Start  time.Time
	End    time.Time
}

// NewKey normalises the ticker and truncates both bounds to calendar days.
func NewKey(ticker string, start, end time.Time) Key {
	return Key{
		Ticker: NormalizeTicker(ticker),
		Start:  truncateDay(start),
		End:    truncateDay(end),
	}
}

// String renders the key as TICKER:start:end.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Ticker, k.Start.Format(model.DateLayout), k.End.Format(model.DateLayout))
}

// NormalizeTicker trims and upper-cases a ticker.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// ValidateRequest rejects blank tickers and ranges whose start falls after their end.
func ValidateRequest(ticker string, start, end time.Time) error {
	if NormalizeTicker(ticker) == "" {
		return fmt.Errorf("%w: empty ticker", ErrDataUnavailable)
	}
	if truncateDay(start).After(truncateDay(end)) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange,
			start.Format(model.DateLayout), end.Format(model.DateLayout))
	}
	return nil
}

// InRange reports whether a bar date lies within [start, end] by calendar day.
func InRange(date, start, end time.Time) bool {
	d := truncateDay(date)
	return !d.Before(truncateDay(start)) && !d.After(truncateDay(end))
}

// EnsureData turns an empty series into ErrDataUnavailable.
func EnsureData(source string, series model.Series) error {
	if series.Len() == 0 {
		return fmt.Errorf("%w: %s returned no bars for %s", ErrDataUnavailable, source, series.Symbol)
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
