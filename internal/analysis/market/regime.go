package market

import (
	"math"

	"github.com/Alias1177/RegimeTrader/internal/analysis/technical"
	"github.com/Alias1177/RegimeTrader/internal/model"
)

const (
	// VolatilityWindow is the lookback for the stddev of daily returns.
	VolatilityWindow = 20
	// TrendWindow is the lookback for the trend moving average, and the longest
	// window any part of the pipeline needs.
	TrendWindow = 50
	// HighVolatilityThreshold is the daily return stddev above which a non-trending
	// market counts as volatile.
	HighVolatilityThreshold = 0.02
)

// ClassifyMarketRegime reads the trailing state of the whole series at its most recent bar.
// Short series are not rejected: undefined rolling values compare as false, which lands on
// Low-Volatility, and Sufficient is false so callers can flag it.
func ClassifyMarketRegime(series model.Series) *model.MarketRegime {
	regime := &model.MarketRegime{
		Type:       model.RegimeLowVolatility,
		Volatility: math.NaN(),
		TrendSMA:   math.NaN(),
		LastClose:  math.NaN(),
		Bars:       series.Len(),
		Sufficient: series.Len() >= TrendWindow,
	}
	if series.Len() == 0 {
		return regime
	}

	closes := series.Closes()
	returns := technical.PctChange(closes)

	regime.Volatility = technical.Last(technical.RollingStdDev(returns, VolatilityWindow))
	regime.TrendSMA = technical.Last(technical.SMA(closes, TrendWindow))
	regime.LastClose = technical.Last(closes)
	regime.Trend = regime.LastClose > regime.TrendSMA

	// Precedence matters: a volatile market that is also trending stays Trending.
	switch {
	case regime.Volatility > HighVolatilityThreshold && !regime.Trend:
		regime.Type = model.RegimeHighVolatilitySideways
	case regime.Trend:
		regime.Type = model.RegimeTrending
	default:
		regime.Type = model.RegimeLowVolatility
	}

	return regime
}

// Classify returns only the regime label.
func Classify(series model.Series) model.Regime {
	return ClassifyMarketRegime(series).Type
}
