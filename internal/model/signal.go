package model

// Signal is the per-bar position: flat or long.
type Signal int

const (
	SignalFlat Signal = 0
	SignalLong Signal = 1
)

// Indicator is a derived per-bar column added by a strategy. NaN marks bars where the
// lookback window is not yet full.
type Indicator struct {
	Name   string
	Values []float64
}

// SignalSeries is a price series extended with the strategy's indicators and signals.
// The underlying Series is shared, never modified.
type SignalSeries struct {
	Series     Series
	Strategy   string
	Indicators []Indicator
	Signals    []Signal
}
