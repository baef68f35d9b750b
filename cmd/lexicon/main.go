package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/lexicon/pkg/api"
	"github.com/platinummonkey/lexicon/pkg/cache"
	"github.com/platinummonkey/lexicon/pkg/config"
	"github.com/platinummonkey/lexicon/pkg/observability"
	"github.com/platinummonkey/lexicon/pkg/stats"
	"github.com/platinummonkey/lexicon/pkg/storage"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	migrateOnly := flag.Bool("migrate", false, "Apply database migrations and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel(), os.Stdout)
	if err := run(cfg, logger, *migrateOnly); err != nil {
		logger.WithError(err).Error("Lexicon exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger, migrateOnly bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, cfg.StorageConfig(), logger)
	if err != nil {
		return err
	}

	if migrateOnly || cfg.Database.MigrateOnStart {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return err
		}
		logger.Info("Database migrations applied")
		if migrateOnly {
			return db.Close()
		}
	}

	store, err := cache.Resolve(ctx, logger, cfg.CacheBackends()...)
	if err != nil {
		db.Close()
		return err
	}

	otelConfig := cfg.OTelConfig()
	otelConfig.Attributes = []attribute.KeyValue{
		attribute.String("lexicon.db.driver", db.Dialect().Name()),
		attribute.String("lexicon.cache.backend", store.Name()),
	}
	otelProviders, err := observability.InitOTel(ctx, otelConfig, logger)
	if err != nil {
		// Tracing is optional, keep serving without it
		logger.WithError(err).Warn("Failed to initialize OpenTelemetry")
	}

	var (
		registry *prometheus.Registry
		metrics  *observability.Metrics
	)
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = observability.NewMetrics(registry)
	}

	server := api.NewServer(api.Deps{
		DB:           db,
		Cache:        store,
		Versioner:    cache.NewVersioner(store, metrics),
		ExportTTL:    cfg.Cache.ExportTTL,
		Metrics:      metrics,
		Logger:       logger,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:        net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:     api.NewHealthHandler(observability.NewHealthChecker(db.Primary(), store, version), registry),
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, apiServer, healthServer)

	if cfg.Stats.Enabled {
		collector := stats.NewCollector(db, metrics, logger)
		if err := collector.Start(cfg.Stats.Schedule); err != nil {
			logger.WithError(err).Warn("Catalog stats collector disabled")
		} else {
			shutdown.RegisterShutdownFunc(collector.Stop)
		}
	}
	shutdown.RegisterShutdownFunc(func(context.Context) error { return store.Close() })
	shutdown.RegisterShutdownFunc(func(context.Context) error { return db.Close() })
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, otelProviders, logger)
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", apiServer.Addr).WithField("version", version).Info("Starting Lexicon API server")
		return listen(apiServer)
	})
	g.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("Starting health server")
		return listen(healthServer)
	})
	g.Go(func() error {
		return shutdown.WaitForShutdown(gctx)
	})

	return g.Wait()
}

func listen(server *http.Server) error {
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server %s failed: %w", server.Addr, err)
	}
	return nil
}
