package strategy

import (
	"github.com/Alias1177/RegimeTrader/internal/analysis/technical"
	"github.com/Alias1177/RegimeTrader/internal/model"
)

// Compile-time interface check.
var _ Strategy = (*Momentum)(nil)

// DefaultMomentumPeriod is the moving-average lookback of the momentum rule.
const DefaultMomentumPeriod = 20

// Momentum is long while the close sits strictly above its moving average.
type Momentum struct {
	period int
}

// NewMomentum creates a Momentum strategy with the default 20-bar average.
func NewMomentum() *Momentum {
	return &Momentum{period: DefaultMomentumPeriod}
}

// Name returns "momentum".
func (m *Momentum) Name() string {
	return "momentum"
}

// Run adds the SMA column and sets Signal = 1 where close > SMA. NaN averages compare
// false, so warm-up bars stay flat.
func (m *Momentum) Run(series model.Series) model.SignalSeries {
	closes := series.Closes()
	sma := technical.SMA(closes, m.period)

	signals := make([]model.Signal, len(closes))
	for i, c := range closes {
		if c > sma[i] {
			signals[i] = model.SignalLong
		}
	}

	return model.SignalSeries{
		Series:     series,
		Strategy:   m.Name(),
		Indicators: []model.Indicator{{Name: "SMA20", Values: sma}},
		Signals:    signals,
	}
}
