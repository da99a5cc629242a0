package twelvedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/RegimeTrader/internal/model"
	httpClient "github.com/Alias1177/RegimeTrader/internal/platform/http"
	"github.com/Alias1177/RegimeTrader/internal/provider"
)

// Compile-time interface check.
var _ provider.Provider = (*Client)(nil)

// DefaultBaseURL is the public Twelve Data REST endpoint.
const DefaultBaseURL = "https://api.twelvedata.com"

// maxOutputSize is the largest page Twelve Data returns for one time_series call.
const maxOutputSize = 5000

// TwelveResponse represents the API response from Twelve Data
type TwelveResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []struct {
		Datetime string  `json:"datetime"`
		Open     float64 `json:"open,string"`
		High     float64 `json:"high,string"`
		Low      float64 `json:"low,string"`
		Close    float64 `json:"close,string"`
		Volume   int64   `json:"volume,string,omitempty"`
	} `json:"values"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status"`
}

// Client is the TwelveData API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new TwelveData client
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new TwelveData API client
func NewClient(options ClientOptions) *Client {
	httpOpts := httpClient.ClientOptions{
		Name:            "twelvedata",
		Timeout:         options.RequestTimeout,
		RequestsPerSec:  options.RequestsPerSec,
		MaxRetryTimeout: options.MaxRetryTimeout,
	}

	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		apiKey:     options.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient.NewClient(httpOpts),
		logger:     log.With().Str("component", "twelvedata_client").Logger(),
	}
}

// Name returns "twelvedata".
func (c *Client) Name() string {
	return "twelvedata"
}

// Fetch fetches daily candles between start and end inclusive, oldest first.
func (c *Client) Fetch(ctx context.Context, ticker string, start, end time.Time) (model.Series, error) {
	if err := provider.ValidateRequest(ticker, start, end); err != nil {
		return model.Series{}, err
	}
	symbol := provider.NormalizeTicker(ticker)

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", "1day")
	params.Set("start_date", start.Format(model.DateLayout))
	// end_date is exclusive on the Twelve Data side.
	params.Set("end_date", end.AddDate(0, 0, 1).Format(model.DateLayout))
	params.Set("outputsize", fmt.Sprint(maxOutputSize))
	params.Set("order", "ASC")
	params.Set("apikey", c.apiKey)

	c.logger.Debug().Str("symbol", symbol).Str("start", start.Format(model.DateLayout)).
		Str("end", end.Format(model.DateLayout)).Msg("Fetching daily candles")

	// Create a new request with context
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/time_series?"+params.Encode(), nil)
	if err != nil {
		return model.Series{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		var statusErr *httpClient.HTTPStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
			return model.Series{}, fmt.Errorf("%w: twelvedata %s: %v", provider.ErrDataUnavailable, symbol, err)
		}
		return model.Series{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Series{}, fmt.Errorf("reading response body: %w", err)
	}

	var data TwelveResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return model.Series{}, fmt.Errorf("parsing JSON: %w", err)
	}

	if data.Status == "error" {
		c.logger.Warn().Int("code", data.Code).Str("message", data.Message).Msg("Twelve Data API error")
		return model.Series{}, fmt.Errorf("%w: twelvedata %s: %s", provider.ErrDataUnavailable, symbol, data.Message)
	}

	series := model.Series{Symbol: symbol}
	for _, v := range data.Values {
		date, err := time.Parse(model.DateLayout, v.Datetime)
		if err != nil {
			return model.Series{}, fmt.Errorf("parsing datetime %q: %w", v.Datetime, err)
		}
		if !provider.InRange(date, start, end) {
			continue
		}
		series.Candles = append(series.Candles, model.Candle{
			Date:   date,
			Open:   v.Open,
			High:   v.High,
			Low:    v.Low,
			Close:  v.Close,
			Volume: v.Volume,
		})
	}

	// Sort candles by date (oldest first for proper calculations)
	sort.Slice(series.Candles, func(i, j int) bool {
		return series.Candles[i].Date.Before(series.Candles[j].Date)
	})

	if err := provider.EnsureData(c.Name(), series); err != nil {
		c.logger.Warn().Str("symbol", symbol).Msg("No candles in response")
		return model.Series{}, err
	}

	c.logger.Debug().Int("count", series.Len()).Msg("Fetched candles")
	return series, nil
}
