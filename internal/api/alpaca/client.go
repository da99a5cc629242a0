package alpaca

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/RegimeTrader/internal/model"
	"github.com/Alias1177/RegimeTrader/internal/provider"
)

var _ provider.Provider = (*Client)(nil)

// DefaultFeed is the free IEX feed; paid accounts can use "sip".
const DefaultFeed = "iex"

// barsGetter is the subset of *marketdata.Client used here.
type barsGetter interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// ClientOptions configures the Alpaca market data provider.
type ClientOptions struct {
	APIKey    string
	APISecret string
	// BaseURL overrides the market data endpoint. Empty uses the SDK default.
	BaseURL string
	Feed    string
}

// Client serves daily bars from the Alpaca market data API.
type Client struct {
	bars   barsGetter
	feed   string
	logger zerolog.Logger
}

// NewClient creates an Alpaca market data provider.
func NewClient(options ClientOptions) *Client {
	opts := marketdata.ClientOpts{
		APIKey:    options.APIKey,
		APISecret: options.APISecret,
	}
	if options.BaseURL != "" {
		opts.BaseURL = options.BaseURL
	}
	return newClient(marketdata.NewClient(opts), options.Feed)
}

func newClient(bars barsGetter, feed string) *Client {
	if feed == "" {
		feed = DefaultFeed
	}
	return &Client{
		bars:   bars,
		feed:   feed,
		logger: log.With().Str("component", "alpaca_client").Logger(),
	}
}

// Name returns "alpaca".
func (c *Client) Name() string {
	return "alpaca"
}

// Fetch returns split and dividend adjusted daily bars between start and end inclusive.
func (c *Client) Fetch(ctx context.Context, ticker string, start, end time.Time) (model.Series, error) {
	if err := provider.ValidateRequest(ticker, start, end); err != nil {
		return model.Series{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.Series{}, err
	}
	symbol := provider.NormalizeTicker(ticker)

	c.logger.Debug().Str("symbol", symbol).Str("feed", c.feed).Msg("Fetching daily bars")

	bars, err := c.bars.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: "all",
		Start:      start,
		End:        end.AddDate(0, 0, 1),
		Feed:       c.feed,
	})
	if err != nil {
		return model.Series{}, fmt.Errorf("GetBars %s: %w", symbol, err)
	}

	series := model.Series{Symbol: symbol}
	for _, bar := range bars {
		// Daily bars are stamped at New York midnight, which is the same calendar day in UTC.
		ts := bar.Timestamp.UTC()
		date := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		if !provider.InRange(date, start, end) {
			continue
		}
		series.Candles = append(series.Candles, model.Candle{
			Date:   date,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: int64(bar.Volume),
		})
	}
	sort.Slice(series.Candles, func(i, j int) bool {
		return series.Candles[i].Date.Before(series.Candles[j].Date)
	})

	if err := provider.EnsureData(c.Name(), series); err != nil {
		return model.Series{}, err
	}

	c.logger.Debug().Int("count", series.Len()).Msg("Fetched bars")
	return series, nil
}
