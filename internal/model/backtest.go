package model

import "time"

// BacktestRow is one fully-defined bar of a backtest.
type BacktestRow struct {
	Date           time.Time
	Close          float64
	Indicators     []float64 // aligned with BacktestResults.IndicatorNames
	Signal         Signal
	Return         float64 // close(t)/close(t-1) - 1
	StrategyReturn float64 // signal(t-1) * Return
	Equity         float64 // cumulative product of (1 + StrategyReturn)
}

// BacktestResults stores the rows that survived warm-up trimming.
type BacktestResults struct {
	Strategy       string
	IndicatorNames []string
	Rows           []BacktestRow
	Dropped        int // leading bars removed because some field was undefined
}

// EquityPoint is one point of the equity curve.
type EquityPoint struct {
	Date  time.Time
	Value float64
}

// EquityCurve returns the (date, equity) pairs of every row.
func (r *BacktestResults) EquityCurve() []EquityPoint {
	curve := make([]EquityPoint, len(r.Rows))
	for i, row := range r.Rows {
		curve[i] = EquityPoint{Date: row.Date, Value: row.Equity}
	}
	return curve
}

// StrategyReturns returns the strategy return column.
func (r *BacktestResults) StrategyReturns() []float64 {
	out := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row.StrategyReturn
	}
	return out
}

// Tail returns the last n rows, or all of them when fewer exist.
func (r *BacktestResults) Tail(n int) []BacktestRow {
	if n <= 0 {
		return nil
	}
	if n > len(r.Rows) {
		n = len(r.Rows)
	}
	return r.Rows[len(r.Rows)-n:]
}
