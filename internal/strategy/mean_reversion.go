package strategy

import (
	"math"

	"github.com/Alias1177/RegimeTrader/internal/analysis/technical"
	"github.com/Alias1177/RegimeTrader/internal/model"
)

// Compile-time interface check.
var _ Strategy = (*MeanReversion)(nil)

const (
	DefaultMeanReversionPeriod = 20
	DefaultBandWidth           = 2.0
)

// MeanReversion buys closes that fall below the lower Bollinger band.
type MeanReversion struct {
	period int
	width  float64
}

// NewMeanReversion creates a MeanReversion strategy with a 20-bar, 2-sigma lower band.
func NewMeanReversion() *MeanReversion {
	return &MeanReversion{
		period: DefaultMeanReversionPeriod,
		width:  DefaultBandWidth,
	}
}

// Name returns "mean-reversion".
func (m *MeanReversion) Name() string {
	return "mean-reversion"
}

// Run adds SMA, stddev and lower band columns and sets Signal = 1 where close < lower band.
func (m *MeanReversion) Run(series model.Series) model.SignalSeries {
	closes := series.Closes()
	sma := technical.SMA(closes, m.period)
	std := technical.RollingStdDev(closes, m.period)

	lower := make([]float64, len(closes))
	signals := make([]model.Signal, len(closes))
	for i, c := range closes {
		lower[i] = sma[i] - m.width*std[i]
		if math.IsNaN(lower[i]) {
			continue
		}
		if c < lower[i] {
			signals[i] = model.SignalLong
		}
	}

	return model.SignalSeries{
		Series:   series,
		Strategy: m.Name(),
		Indicators: []model.Indicator{
			{Name: "SMA20", Values: sma},
			{Name: "STD20", Values: std},
			{Name: "Lower", Values: lower},
		},
		Signals: signals,
	}
}
