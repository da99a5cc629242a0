package model

// WarningCode identifies a soft condition that did not stop a run.
type WarningCode string

const (
	WarningInsufficientHistory  WarningCode = "INSUFFICIENT_HISTORY"
	WarningDegenerateStatistics WarningCode = "DEGENERATE_STATISTICS"
)

// Warning annotates a best-effort result.
type Warning struct {
	Code    WarningCode
	Message string
}

// Report is everything a shell needs to display one pipeline run.
type Report struct {
	Symbol         string
	Regime         MarketRegime
	StrategyLabel  string
	EquityCurve    []EquityPoint
	TotalReturnPct float64 // NaN when the result has no rows
	SharpeRatio    float64 // NaN when strategy returns have zero variance
	MaxDrawdownPct float64
	Exposure       float64 // share of rows holding a long signal
	MonthlyReturns map[string]float64
	Bars           int
	DroppedRows    int
	IndicatorNames []string
	TailRows       []BacktestRow
	Warnings       []Warning
}

// HasWarning reports whether a warning with the given code was raised.
func (r *Report) HasWarning(code WarningCode) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}
