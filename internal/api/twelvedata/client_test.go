package twelvedata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/RegimeTrader/internal/provider"
)

const seriesResponse = `{
  "meta": {"symbol": "AAPL", "interval": "1day"},
  "values": [
    {"datetime": "2024-01-04", "open": "182.1", "high": "183.0", "low": "180.9", "close": "181.9", "volume": "71983600"},
    {"datetime": "2024-01-02", "open": "187.1", "high": "188.4", "low": "183.9", "close": "185.6", "volume": "82488700"},
    {"datetime": "2024-01-03", "open": "184.2", "high": "185.9", "low": "183.4", "close": "184.3", "volume": "58414500"}
  ],
  "status": "ok"
}`

func newTestClient(url string) *Client {
	return NewClient(ClientOptions{
		APIKey:          "test-key",
		BaseURL:         url,
		RequestsPerSec:  100,
		MaxRetryTimeout: time.Second,
	})
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/time_series", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1day", r.URL.Query().Get("interval"))
		assert.Equal(t, "2024-01-02", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2024-01-05", r.URL.Query().Get("end_date"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(seriesResponse))
	}))
	defer server.Close()

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)

	series, err := newTestClient(server.URL).Fetch(context.Background(), "aapl", start, end)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", series.Symbol)
	require.Equal(t, 3, series.Len())
	assert.Equal(t, start, series.Candles[0].Date)
	assert.Equal(t, 185.6, series.Candles[0].Close)
	assert.Equal(t, int64(71983600), series.Candles[2].Volume)
	assert.NoError(t, series.Validate())
}

func TestFetchAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":400,"message":"**symbol** not found: NOPE","status":"error"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Fetch(context.Background(), "NOPE",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrDataUnavailable)
	assert.Contains(t, err.Error(), "not found")
}

func TestFetchEmptyValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meta":{"symbol":"SPY"},"values":[],"status":"ok"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Fetch(context.Background(), "SPY",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	assert.ErrorIs(t, err, provider.ErrDataUnavailable)
}

func TestFetchInvalidRange(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:0").Fetch(context.Background(), "SPY",
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	assert.ErrorIs(t, err, provider.ErrInvalidRange)
}
