package provider

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const redisKey = "regimetrader:series:SPY:2024-01-01:2024-12-01"

func TestRedisStoreGetHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStoreFromClient(db, "")

	want := sampleSeries()
	want.Symbol = "SPY"
	data, err := json.Marshal(want)
	require.NoError(t, err)
	mock.ExpectGet(redisKey).SetVal(string(data))

	got, err := store.Get(context.Background(), NewKey("SPY", jan1, dec1))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, got.Candles[0].Date.Equal(jan1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreGetMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStoreFromClient(db, "")

	mock.ExpectGet(redisKey).RedisNil()

	_, err := store.Get(context.Background(), NewKey("SPY", jan1, dec1))
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreGetError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStoreFromClient(db, "")

	mock.ExpectGet(redisKey).SetErr(errors.New("connection reset"))

	_, err := store.Get(context.Background(), NewKey("SPY", jan1, dec1))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
	assert.Contains(t, err.Error(), "redis get")
}

func TestRedisStoreGetCorruptValue(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStoreFromClient(db, "")

	mock.ExpectGet(redisKey).SetVal("{not json")

	_, err := store.Get(context.Background(), NewKey("SPY", jan1, dec1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding cached series")
}

func TestRedisStoreSet(t *testing.T) {
	series := sampleSeries()
	series.Symbol = "SPY"
	data, err := json.Marshal(series)
	require.NoError(t, err)

	tests := []struct {
		name    string
		prefix  string
		key     string
		ttl     time.Duration
		wantTTL time.Duration
	}{
		{"default prefix", "", redisKey, time.Hour, time.Hour},
		{"custom prefix", "bars", "bars:SPY:2024-01-01:2024-12-01", 30 * time.Minute, 30 * time.Minute},
		{"negative ttl clamped", "", redisKey, -time.Second, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := redismock.NewClientMock()
			store := NewRedisStoreFromClient(db, tt.prefix)

			mock.ExpectSet(tt.key, data, tt.wantTTL).SetVal("OK")

			err := store.Set(context.Background(), NewKey("spy", jan1, dec1), series, tt.ttl)
			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRedisStoreSetError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStoreFromClient(db, "")

	series := sampleSeries()
	data, err := json.Marshal(series)
	require.NoError(t, err)
	mock.ExpectSet(redisKey, data, time.Hour).SetErr(errors.New("READONLY"))

	err = store.Set(context.Background(), NewKey("SPY", jan1, dec1), series, time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set")
}

func TestCachedProviderOverRedis(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStoreFromClient(db, "")
	upstream := &fakeProvider{name: "upstream", series: sampleSeries()}
	observer := countingObserver{}

	cached := NewCachedProvider(upstream, store, time.Hour, observer)

	want := sampleSeries()
	want.Symbol = "SPY"
	data, err := json.Marshal(want)
	require.NoError(t, err)
	mock.ExpectGet(redisKey).RedisNil()
	mock.ExpectSet(redisKey, data, time.Hour).SetVal("OK")

	got, err := cached.Fetch(context.Background(), "SPY", jan1, dec1)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, observer["miss"])
	assert.Zero(t, observer["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
