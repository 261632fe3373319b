package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"pagecrawl/internal/app"
	"pagecrawl/internal/config"
	"pagecrawl/internal/fetcher"
	"pagecrawl/internal/observability"
)

var (
	flagConfig string
	flagDebug  bool
)

var rootCmd = &cobra.Command{
	Use:           "pagecrawl",
	Short:         "Selector-driven list page crawler",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config.yaml (defaults are used when empty)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// deps is everything a command needs to drive the engine.
type deps struct {
	cfg          *config.Config
	logger       *observability.Logger
	registry     *prometheus.Registry
	orchestrator *app.Orchestrator
}

func bootstrap(fetcherOpts ...fetcher.Option) (*deps, error) {
	cfg, err := config.LoadConfig(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Observability.LogLevel
	if flagDebug {
		level = "debug"
	}
	logger, err := observability.NewLogger(cfg.Observability.LogPath, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	f := fetcher.NewFetcher(cfg, logger, fetcherOpts...)

	return &deps{
		cfg:          cfg,
		logger:       logger,
		registry:     registry,
		orchestrator: app.NewOrchestrator(cfg, logger, f, metrics),
	}, nil
}

// flushMetrics writes the textfile dump when metrics_path is configured.
func (d *deps) flushMetrics() {
	path := d.cfg.Observability.MetricsPath
	if path == "" {
		return
	}
	if err := observability.WriteTextfile(path, d.registry); err != nil {
		d.logger.Warn("Failed to write metrics", "path", path, "error", err.Error())
	}
}

func (d *deps) close() {
	d.flushMetrics()
	_ = d.logger.Sync()
}
