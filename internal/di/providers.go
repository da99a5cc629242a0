// Package di assembles the price provider chain, fetch cache and metrics from configuration.
package di

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/RegimeTrader/internal/api/alpaca"
	"github.com/Alias1177/RegimeTrader/internal/api/csvfeed"
	"github.com/Alias1177/RegimeTrader/internal/api/twelvedata"
	"github.com/Alias1177/RegimeTrader/internal/config"
	"github.com/Alias1177/RegimeTrader/internal/database"
	"github.com/Alias1177/RegimeTrader/internal/metrics"
	"github.com/Alias1177/RegimeTrader/internal/pipeline"
	"github.com/Alias1177/RegimeTrader/internal/provider"
)

// App holds the long-lived collaborators shared by every run.
type App struct {
	Provider provider.Provider
	Metrics  *metrics.Recorder
	Registry *prometheus.Registry
	closers  []io.Closer
}

// Build wires the configured providers, wraps them in the configured cache and
// registers metrics on a fresh registry.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	registry := prometheus.NewRegistry()
	app := &App{
		Metrics:  ProvideMetrics(registry),
		Registry: registry,
	}

	source, err := ProvideDataProvider(cfg)
	if err != nil {
		return nil, err
	}

	store, closer, err := ProvideStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}

	if store != nil {
		source = provider.NewCachedProvider(source, store, cfg.CacheTTL, app.Metrics)
	}
	app.Provider = source

	log.Info().
		Str("provider", source.Name()).
		Str("cache", cfg.CacheBackend).
		Msg("Price provider ready")

	return app, nil
}

// Analyzer creates an analyzer over the app's provider with per-run pipeline options.
func (a *App) Analyzer(options pipeline.Options) *pipeline.Analyzer {
	return pipeline.NewAnalyzer(a.Provider, pipeline.New(options), a.Metrics)
}

// Close releases cache connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// ProvideMetrics creates the Prometheus recorder on reg.
func ProvideMetrics(reg prometheus.Registerer) *metrics.Recorder {
	return metrics.New(reg)
}

// ProvideDataProvider builds one provider per configured name. More than one name
// produces a Fallback chain in the configured order.
func ProvideDataProvider(cfg *config.Config) (provider.Provider, error) {
	names := cfg.Providers()
	if len(names) == 0 {
		return nil, errors.New("no data provider configured")
	}

	providers := make([]provider.Provider, 0, len(names))
	for _, name := range names {
		p, err := provideSingle(cfg, name)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}

	if len(providers) == 1 {
		return providers[0], nil
	}
	return provider.NewFallback(providers...), nil
}

func provideSingle(cfg *config.Config, name string) (provider.Provider, error) {
	switch name {
	case config.ProviderTwelveData:
		return twelvedata.NewClient(twelvedata.ClientOptions{
			APIKey:          cfg.TwelveAPIKey,
			BaseURL:         cfg.TwelveBaseURL,
			RequestTimeout:  cfg.RequestTimeout,
			RequestsPerSec:  cfg.RequestsPerSec,
			MaxRetryTimeout: cfg.MaxRetryTimeout,
		}), nil
	case config.ProviderAlpaca:
		return alpaca.NewClient(alpaca.ClientOptions{
			APIKey:    cfg.AlpacaAPIKey,
			APISecret: cfg.AlpacaSecret,
			BaseURL:   cfg.AlpacaDataURL,
			Feed:      cfg.AlpacaFeed,
		}), nil
	case config.ProviderCSV:
		return csvfeed.New(cfg.CSVDataDir), nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", name)
	}
}

// ProvideStore opens the configured cache backend. A nil store means caching is off.
// The returned closer, when non-nil, must be closed on shutdown.
func ProvideStore(ctx context.Context, cfg *config.Config) (provider.Store, io.Closer, error) {
	switch cfg.CacheBackend {
	case config.CacheNone:
		return nil, nil, nil
	case config.CacheMemory, "":
		return provider.NewMemoryStore(), nil, nil
	case config.CacheRedis:
		store, err := provider.NewRedisStore(ctx, provider.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		return store, store, nil
	case config.CachePostgres:
		db, err := database.New(database.ConnectionParams{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("postgres cache: %w", err)
		}

		purgeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if n, err := db.PurgeExpired(purgeCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to purge expired cache rows")
		} else if n > 0 {
			log.Debug().Int64("rows", n).Msg("Purged expired cache rows")
		}
		return db, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}
