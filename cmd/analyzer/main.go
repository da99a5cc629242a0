package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/RegimeTrader/internal/config"
	"github.com/Alias1177/RegimeTrader/internal/di"
	"github.com/Alias1177/RegimeTrader/internal/model"
	"github.com/Alias1177/RegimeTrader/internal/pipeline"
	"github.com/Alias1177/RegimeTrader/internal/platform/logger"
	"github.com/Alias1177/RegimeTrader/internal/trading/backtest"
)

func main() {
	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	setupSignalHandling(cancel)

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// setupSignalHandling configures signal handling for graceful shutdown
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, exiting...")
		cancel()
	}()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "analyzer",
		Short:         "Classify a ticker's market regime and backtest the matching strategy",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newRunCmd(), newStrategiesCmd())
	return root
}

type runFlags struct {
	ticker   string
	start    string
	end      string
	provider string
	strategy string
	cache    string
	rows     int
}

func newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Backtest the regime-selected strategy for one ticker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalysis(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.ticker, "ticker", "", "ticker symbol (default DEFAULT_TICKER)")
	cmd.Flags().StringVar(&flags.start, "start", "", "first day, YYYY-MM-DD (default one year before --end)")
	cmd.Flags().StringVar(&flags.end, "end", "", "last day, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&flags.provider, "provider", "", "comma separated data providers, overrides DATA_PROVIDER")
	cmd.Flags().StringVar(&flags.strategy, "strategy", "", "force a strategy by name instead of selecting by regime")
	cmd.Flags().StringVar(&flags.cache, "cache", "", "cache backend, overrides CACHE_BACKEND")
	cmd.Flags().IntVar(&flags.rows, "rows", -1, "number of result rows to print (default TAIL_ROWS)")

	return cmd
}

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the strategies accepted by run --strategy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range pipeline.New(pipeline.Options{}).Strategies() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func runAnalysis(cmd *cobra.Command, flags runFlags) error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	applyFlags(cfg, flags)

	// 2. Configure logging
	logger.Setup(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return err
	}

	ticker := strings.ToUpper(strings.TrimSpace(flags.ticker))
	if ticker == "" {
		ticker = cfg.DefaultTicker
	}
	start, end, err := parseRange(flags.start, flags.end, time.Now())
	if err != nil {
		return err
	}

	printConfig(cfg, ticker, start, end, flags.strategy)

	// 3. Setup providers, cache and metrics
	ctx := cmd.Context()
	app, err := di.Build(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialise price provider")
		return err
	}
	defer app.Close()

	// 4. Run the pipeline
	analyzer := app.Analyzer(pipeline.Options{TailRows: cfg.ReportTailRows(), Strategy: flags.strategy})
	report, err := analyzer.Analyze(ctx, ticker, start, end)
	if err != nil {
		log.Error().Err(err).Str("ticker", ticker).Msg("Analysis failed")
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), backtest.FormatReport(report))
	return nil
}

func applyFlags(cfg *config.Config, flags runFlags) {
	if flags.provider != "" {
		cfg.DataProvider = strings.ToLower(flags.provider)
	}
	if flags.cache != "" {
		cfg.CacheBackend = strings.ToLower(flags.cache)
	}
	if flags.rows >= 0 {
		cfg.TailRows = flags.rows
	}
}

// parseRange resolves the optional --start/--end flags against now.
func parseRange(startFlag, endFlag string, now time.Time) (time.Time, time.Time, error) {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if endFlag != "" {
		parsed, err := time.Parse(model.DateLayout, endFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end %q: %w", endFlag, err)
		}
		end = parsed
	}

	start := end.AddDate(-1, 0, 0)
	if startFlag != "" {
		parsed, err := time.Parse(model.DateLayout, startFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start %q: %w", startFlag, err)
		}
		start = parsed
	}
	return start, end, nil
}

// printConfig outputs the current configuration
func printConfig(cfg *config.Config, ticker string, start, end time.Time, strategyOverride string) {
	log.Info().
		Str("Ticker", ticker).
		Str("Start", start.Format(model.DateLayout)).
		Str("End", end.Format(model.DateLayout)).
		Str("Provider", cfg.DataProvider).
		Str("Cache", cfg.CacheBackend).
		Dur("CacheTTL", cfg.CacheTTL).
		Str("Strategy", strategyOverride).
		Int("TailRows", cfg.TailRows).
		Msg("Configuration loaded")
}
