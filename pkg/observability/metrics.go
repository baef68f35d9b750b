package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Export outcomes
const (
	ExportHit         = "hit"
	ExportMiss        = "miss"
	ExportNotModified = "not_modified"
	ExportUncached    = "uncached"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing, so services can be built without a registry in tests.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Export metrics
	ExportRequestsTotal *prometheus.CounterVec
	ExportBuildDuration *prometheus.HistogramVec

	// Cache metrics
	CacheOperationsTotal *prometheus.CounterVec
	CacheVersionBumps    prometheus.Counter

	// Search metrics
	SearchDuration     *prometheus.HistogramVec
	SearchResultsTotal *prometheus.HistogramVec

	// Mutation metrics
	MutationsTotal *prometheus.CounterVec

	// Database metrics
	DBConnectionsOpen         prometheus.Gauge
	DBConnectionsInUse        prometheus.Gauge
	DBConnectionsIdle         prometheus.Gauge
	DBConnectionsWaitCount    prometheus.Gauge
	DBConnectionsWaitDuration prometheus.Gauge

	// Catalog metrics
	LocalesTotal      prometheus.Gauge
	KeysTotal         prometheus.Gauge
	TranslationsTotal prometheus.Gauge
	TagsTotal         prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexicon_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lexicon_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPRequestSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lexicon_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "route"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lexicon_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "route"},
		),

		// Export metrics
		ExportRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexicon_export_requests_total",
				Help: "Total number of export requests by outcome",
			},
			[]string{"outcome"},
		),
		ExportBuildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lexicon_export_build_duration_seconds",
				Help:    "Time spent building export documents",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"scope"},
		),

		// Cache metrics
		CacheOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexicon_cache_operations_total",
				Help: "Total number of cache store operations",
			},
			[]string{"backend", "operation", "status"},
		),
		CacheVersionBumps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lexicon_cache_version_bumps_total",
				Help: "Total number of export cache version bumps",
			},
		),

		// Search metrics
		SearchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lexicon_search_duration_seconds",
				Help:    "Search query duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"strategy"},
		),
		SearchResultsTotal: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lexicon_search_results_total",
				Help:    "Number of rows matching a search",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"strategy"},
		),

		// Mutation metrics
		MutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexicon_mutations_total",
				Help: "Total number of catalog mutations",
			},
			[]string{"operation", "status"},
		),

		// Database metrics
		DBConnectionsOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lexicon_db_connections_open",
				Help: "Number of open database connections",
			},
		),
		DBConnectionsInUse: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lexicon_db_connections_in_use",
				Help: "Number of database connections in use",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lexicon_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		DBConnectionsWaitCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lexicon_db_connections_wait_count",
				Help: "Total number of connections waited for",
			},
		),
		DBConnectionsWaitDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lexicon_db_connections_wait_duration_seconds",
				Help: "Total time spent waiting for connections",
			},
		),

		// Catalog metrics
		LocalesTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lexicon_locales_total",
				Help: "Total number of locales",
			},
		),
		KeysTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lexicon_translation_keys_total",
				Help: "Total number of translation keys",
			},
		),
		TranslationsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lexicon_translations_total",
				Help: "Total number of translations",
			},
		),
		TagsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lexicon_tags_total",
				Help: "Total number of tags",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSize,
		m.HTTPResponseSize,
		m.ExportRequestsTotal,
		m.ExportBuildDuration,
		m.CacheOperationsTotal,
		m.CacheVersionBumps,
		m.SearchDuration,
		m.SearchResultsTotal,
		m.MutationsTotal,
		m.DBConnectionsOpen,
		m.DBConnectionsInUse,
		m.DBConnectionsIdle,
		m.DBConnectionsWaitCount,
		m.DBConnectionsWaitDuration,
		m.LocalesTotal,
		m.KeysTotal,
		m.TranslationsTotal,
		m.TagsTotal,
	)

	return m
}

// RecordExport counts an export request by outcome
func (m *Metrics) RecordExport(outcome string) {
	if m == nil {
		return
	}
	m.ExportRequestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveExportBuild records how long building a document took
func (m *Metrics) ObserveExportBuild(scope string, d time.Duration) {
	if m == nil {
		return
	}
	m.ExportBuildDuration.WithLabelValues(scope).Observe(d.Seconds())
}

// RecordCacheOp counts a cache store operation
func (m *Metrics) RecordCacheOp(backend, operation string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.CacheOperationsTotal.WithLabelValues(backend, operation, status).Inc()
}

// RecordVersionBump counts an export cache version bump
func (m *Metrics) RecordVersionBump() {
	if m == nil {
		return
	}
	m.CacheVersionBumps.Inc()
}

// ObserveSearch records a search duration and its total match count
func (m *Metrics) ObserveSearch(strategy string, d time.Duration, total int64) {
	if m == nil {
		return
	}
	m.SearchDuration.WithLabelValues(strategy).Observe(d.Seconds())
	m.SearchResultsTotal.WithLabelValues(strategy).Observe(float64(total))
}

// RecordMutation counts a create, update or delete
func (m *Metrics) RecordMutation(operation string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.MutationsTotal.WithLabelValues(operation, status).Inc()
}

// SetCatalogCounts updates the catalog size gauges
func (m *Metrics) SetCatalogCounts(locales, keys, translations, tags int64) {
	if m == nil {
		return
	}
	m.LocalesTotal.Set(float64(locales))
	m.KeysTotal.Set(float64(keys))
	m.TranslationsTotal.Set(float64(translations))
	m.TagsTotal.Set(float64(tags))
}

// UpdateDBStats copies connection pool statistics into the DB gauges
func (m *Metrics) UpdateDBStats(stats sql.DBStats) {
	if m == nil {
		return
	}
	m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
	m.DBConnectionsInUse.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
	m.DBConnectionsWaitCount.Set(float64(stats.WaitCount))
	m.DBConnectionsWaitDuration.Set(stats.WaitDuration.Seconds())
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// routeLabel returns the matched mux route template so path parameters do
// not explode label cardinality.
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if metrics == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status and size
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			route := routeLabel(r)
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			if r.ContentLength > 0 {
				metrics.HTTPRequestSize.WithLabelValues(r.Method, route).Observe(float64(r.ContentLength))
			}
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, route).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
