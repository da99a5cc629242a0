package model

// Regime is the coarse label describing recent market behaviour.
type Regime string

const (
	RegimeTrending               Regime = "Trending"
	RegimeHighVolatilitySideways Regime = "High-Volatility-Sideways"
	RegimeLowVolatility          Regime = "Low-Volatility"
)

// MarketRegime is the classification of a series together with the values it was derived from.
type MarketRegime struct {
	Type       Regime  // Trending, High-Volatility-Sideways, Low-Volatility
	Volatility float64 // 20-bar stddev of daily returns at the last bar, NaN when undefined
	TrendSMA   float64 // 50-bar SMA of close at the last bar, NaN when undefined
	LastClose  float64
	Trend      bool // last close strictly above TrendSMA
	Bars       int
	Sufficient bool // series long enough to fill every lookback window
}
