package observability

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Recorders(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordExport(ExportHit)
	m.RecordExport(ExportHit)
	m.RecordExport(ExportNotModified)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExportRequestsTotal.WithLabelValues(ExportHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExportRequestsTotal.WithLabelValues(ExportNotModified)))

	m.RecordCacheOp("redis", "get", nil)
	m.RecordCacheOp("redis", "get", errors.New("timeout"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheOperationsTotal.WithLabelValues("redis", "get", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheOperationsTotal.WithLabelValues("redis", "get", "error")))

	m.RecordVersionBump()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheVersionBumps))

	m.RecordMutation("create", nil)
	m.RecordMutation("delete", errors.New("tx"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MutationsTotal.WithLabelValues("create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MutationsTotal.WithLabelValues("delete", "failure")))

	m.SetCatalogCounts(2, 10, 15, 3)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LocalesTotal))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.TranslationsTotal))

	m.UpdateDBStats(sql.DBStats{OpenConnections: 4, InUse: 1, Idle: 3})
	assert.Equal(t, 4.0, testutil.ToFloat64(m.DBConnectionsOpen))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DBConnectionsIdle))

	m.ObserveExportBuild("all", 10*time.Millisecond)
	m.ObserveSearch("like", time.Millisecond, 12)
	assert.Equal(t, 1, testutil.CollectAndCount(m.SearchDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordExport(ExportMiss)
		m.RecordCacheOp("memory", "set", nil)
		m.RecordVersionBump()
		m.RecordMutation("update", nil)
		m.SetCatalogCounts(1, 1, 1, 1)
		m.UpdateDBStats(sql.DBStats{})
		m.ObserveExportBuild("all", time.Second)
		m.ObserveSearch("fulltext", time.Second, 1)
	})
}

func TestHTTPMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	router := mux.NewRouter()
	router.Use(HTTPMetricsMiddleware(m))
	router.HandleFunc("/api/v1/translations/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	})

	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/translations/"+id, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/translations/{id}", "404")))
}

func TestRegisterMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	m.RecordVersionBump()

	serveMux := http.NewServeMux()
	RegisterMetricsEndpoint(serveMux, registry)

	rec := httptest.NewRecorder()
	serveMux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "lexicon_cache_version_bumps_total 1"))
}
