package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/relayops/mdmhook/audit"
	"github.com/relayops/mdmhook/config"
	"github.com/relayops/mdmhook/directory"
	"github.com/relayops/mdmhook/manifest"
	"github.com/relayops/mdmhook/notify"
	"github.com/relayops/mdmhook/telemetry"
	"github.com/relayops/mdmhook/webhook"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook receiver",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (optional, env vars apply on top)")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)
	logger := telemetry.NewLogger(cfg.OTEL.ServiceName)

	if cfg.OTEL.Endpoint != "" {
		shutdown, err := telemetry.InitTracing(ctx, telemetry.Config{
			ServiceName:    cfg.OTEL.ServiceName,
			ServiceVersion: version,
			Environment:    cfg.OTEL.Environment,
			OTELEndpoint:   cfg.OTEL.Endpoint,
			Insecure:       cfg.OTEL.Insecure,
		})
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error().Err(err).Msg("tracing shutdown failed")
			}
		}()
	}

	router, cleanup, err := buildRouter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	mux := webhook.NewServeMux(router.Router, logger)
	mux.Handle("/metrics", promhttp.HandlerFor(router.Registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              cfg.Listen.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info().
		Str("addr", cfg.Listen.Addr).
		Bool("directory_enabled", cfg.Directory.Enabled()).
		Bool("manifest_enabled", cfg.Manifest.Enabled()).
		Bool("notify_enabled", cfg.Notify.Enabled()).
		Msg("mdmhook starting")

	var group run.Group
	group.Add(func() error {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	})
	group.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	err = group.Run()
	var sig run.SignalError
	if errors.As(err, &sig) {
		logger.Info().Str("signal", sig.Signal.String()).Msg("shutting down")
		return nil
	}
	return err
}

// wiredRouter bundles the router with the registry its metrics live in.
type wiredRouter struct {
	Router   *webhook.Router
	Registry *prometheus.Registry
}

// buildRouter constructs the pipeline from config. Disabled integrations
// are left nil so their branches are skipped at dispatch time.
func buildRouter(ctx context.Context, cfg *config.Config, logger *telemetry.Logger) (*wiredRouter, func(), error) {
	cleanup := func() {}

	var store *manifest.Store
	if cfg.Manifest.Enabled() {
		s3store, err := manifest.NewS3Store(ctx, cfg.Manifest.Bucket, cfg.Manifest.Region)
		if err != nil {
			return nil, cleanup, fmt.Errorf("init manifest store: %w", err)
		}
		store = manifest.NewStore(s3store, cfg.Manifest.Folder, cfg.Manifest.Bucket)
	} else {
		logger.Warn().Msg("manifest bucket not configured, storage branch disabled")
	}

	var dir directory.Client
	if cfg.Directory.Enabled() {
		dir = directory.NewAPIClient(cfg.Directory.BaseURL, cfg.Directory.APIKey)
	} else {
		logger.Warn().Msg("directory api key not configured, directory branch disabled")
	}

	var notifier notify.Notifier
	if cfg.Notify.Enabled() {
		notifier = notify.NewWebhookNotifier(cfg.Notify.URL)
	} else {
		logger.Warn().Msg("notify url not configured, notification branch disabled")
	}

	sink, sinkCleanup, err := buildSink(ctx, cfg)
	if err != nil {
		return nil, cleanup, err
	}
	cleanup = sinkCleanup

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := webhook.NewMetrics(registry)

	router := webhook.NewRouter(webhook.RouterConfig{
		Catalog:                 cfg.Manifest.Catalog,
		DefaultIncludedManifest: cfg.Manifest.DefaultIncluded,
	}, dir, store, notifier, sink, logger, metrics)

	return &wiredRouter{Router: router, Registry: registry}, cleanup, nil
}

// buildSink picks the trail archive: log bucket first, local db second,
// none otherwise.
func buildSink(ctx context.Context, cfg *config.Config) (audit.Sink, func(), error) {
	noop := func() {}

	if cfg.Audit.LogBucket != "" {
		logStore, err := manifest.NewS3Store(ctx, cfg.Audit.LogBucket, cfg.Manifest.Region)
		if err != nil {
			return nil, noop, fmt.Errorf("init audit log store: %w", err)
		}
		return audit.NewS3Sink(logStore, cfg.Audit.LogPrefix), noop, nil
	}

	if cfg.Audit.DBPath != "" {
		sink, err := audit.NewBoltSink(cfg.Audit.DBPath)
		if err != nil {
			return nil, noop, fmt.Errorf("init audit db: %w", err)
		}
		return sink, func() { _ = sink.Close() }, nil
	}

	return nil, noop, nil
}
