package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMalformedSeries is returned when a price series breaks its ordering or value invariants.
var ErrMalformedSeries = errors.New("malformed price series")

// DateLayout is the layout used for trading days everywhere in the tool.
const DateLayout = "2006-01-02"

// Candle represents a single daily price bar
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume,omitempty"`
}

// Series is a time-ordered run of daily candles for one symbol.
type Series struct {
	Symbol  string   `json:"symbol"`
	Candles []Candle `json:"candles"`
}

// Len returns the number of bars in the series.
func (s Series) Len() int {
	return len(s.Candles)
}

// Closes returns the close prices in bar order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		closes[i] = c.Close
	}
	return closes
}

// Last returns the most recent candle. It panics on an empty series.
func (s Series) Last() Candle {
	return s.Candles[len(s.Candles)-1]
}

// Validate checks that dates strictly increase and every close is a positive number.
func (s Series) Validate() error {
	for i, c := range s.Candles {
		if math.IsNaN(c.Close) || math.IsInf(c.Close, 0) || c.Close <= 0 {
			return fmt.Errorf("%w: bar %d (%s) has invalid close %v", ErrMalformedSeries, i, c.Date.Format(DateLayout), c.Close)
		}
		if i > 0 && !c.Date.After(s.Candles[i-1].Date) {
			return fmt.Errorf("%w: bar %d (%s) is not after %s", ErrMalformedSeries, i,
				c.Date.Format(DateLayout), s.Candles[i-1].Date.Format(DateLayout))
		}
	}
	return nil
}
