package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/matsen/bibnote/internal/notes"
	"github.com/matsen/bibnote/internal/watch"
)

var watchDebug bool

func init() {
	watchCmd.Flags().BoolVar(&watchDebug, "debug", false, "Enable debug logging")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the bibliography export and reload on changes",
	Long: `Watch the bibliography export file and re-run the load cycle
whenever it changes. Write bursts from export tools are debounced into
a single reload. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger, err := buildLogger()
	if err != nil {
		exitWithError(ExitError, "building logger: %v", err)
	}
	defer logger.Sync()

	app, err := newAppContext(logger)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	defer app.Close()

	exportPath, err := app.Config.ResolveLibraryPath(app.VaultRoot)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Startup load. A transient failure is reported, not fatal: the
	// next change event retries via a fresh cycle.
	if _, err := app.Manager.Load(ctx, true); err != nil {
		logger.Error("initial load failed", zap.Error(err))
	}

	watcher, err := watch.New(exportPath,
		watch.WithDebounceDuration(time.Duration(app.Config.DebounceMs)*time.Millisecond),
		watch.WithOnError(func(err error) {
			logger.Warn("watch error", zap.Error(err))
		}),
	)
	if err != nil {
		exitWithError(ExitConfigError, "creating watcher: %v", err)
	}
	// Watch setup fails once, here; there is no retry loop. Fix the
	// configuration and restart.
	if err := watcher.Start(); err != nil {
		exitWithError(ExitConfigError, "watching %s: %v", exportPath, err)
	}
	defer watcher.Stop()

	logger.Info("watching bibliography export",
		zap.String("path", exportPath),
		zap.Int("debounce_ms", app.Config.DebounceMs),
		zap.Bool("polling", watcher.IsPolling()))

	// Floor beneath the debounce: pathological event storms cannot
	// trigger more than one reload per second.
	limiter := rate.NewLimiter(rate.Every(time.Second), 1)

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil

		case <-watcher.Changed():
			if !limiter.Allow() {
				logger.Debug("reload rate-limited")
				continue
			}
			stats, err := app.Manager.Load(ctx, false)
			switch {
			case errors.Is(err, notes.ErrLoadInProgress):
				// Single-flight guard; the event is dropped.
			case err != nil:
				logger.Error("reload failed", zap.Error(err))
			default:
				logger.Info("reloaded",
					zap.Int("entries", stats.Entries),
					zap.Int("skipped", stats.Skipped))
			}
		}
	}
}

func buildLogger() (*zap.Logger, error) {
	if humanOutput {
		cfg := zap.NewDevelopmentConfig()
		if !watchDebug {
			cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		}
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	if watchDebug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
