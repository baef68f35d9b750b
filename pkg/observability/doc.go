// Package observability provides structured logging, Prometheus metrics,
// health checks, and OpenTelemetry tracing for the catalog service.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("locale", "en").Info("Export built")
//
// Request-scoped logging picks up the request ID and trace context:
//
//	observability.FromContext(r.Context()).WithError(err).Warn("Cache read failed")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.RecordExport(observability.ExportHit)
//
// A nil *Metrics records nothing.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db, cacheStore, version)
//	status := checker.Check(ctx)
//
// The database decides between healthy and unhealthy. A failing cache store
// only degrades the status.
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "lexicon",
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
package observability
