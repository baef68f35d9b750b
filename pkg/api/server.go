package api

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/lexicon/pkg/cache"
	"github.com/platinummonkey/lexicon/pkg/export"
	"github.com/platinummonkey/lexicon/pkg/httputil"
	"github.com/platinummonkey/lexicon/pkg/locale"
	"github.com/platinummonkey/lexicon/pkg/observability"
	"github.com/platinummonkey/lexicon/pkg/search"
	"github.com/platinummonkey/lexicon/pkg/storage"
	"github.com/platinummonkey/lexicon/pkg/tags"
	"github.com/platinummonkey/lexicon/pkg/translations"
)

// Prefix is the path every catalog route is mounted under
const Prefix = "/api/v1"

// DefaultMaxBodyBytes bounds request bodies when Deps leaves it unset
const DefaultMaxBodyBytes = 1 << 20

// Deps are the collaborators the server wires its handlers from
type Deps struct {
	DB        *storage.ConnectionManager
	Cache     cache.Store
	Versioner *cache.Versioner
	ExportTTL time.Duration

	// Versioner defaults to one over Cache. Metrics may be nil.
	Metrics      *observability.Metrics
	Logger       *observability.Logger
	MaxBodyBytes int64
}

// Server represents our API server
type Server struct {
	router  *mux.Router
	handler http.Handler
}

// RouteRegistrar is an interface for types that can register routes
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// NewServer creates the API server with every catalog handler registered
func NewServer(deps Deps) *Server {
	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if deps.Logger == nil {
		deps.Logger = observability.NewLogger(observability.InfoLevel, os.Stdout)
	}
	if deps.Versioner == nil {
		deps.Versioner = cache.NewVersioner(deps.Cache, deps.Metrics)
	}

	resolver := locale.NewResolver(deps.DB)
	tagStore := tags.NewStore(deps.DB, deps.Metrics)
	engine := export.NewEngine(deps.DB, resolver, deps.Metrics)
	negotiator := export.NewNegotiator(engine, deps.Cache, deps.Versioner, deps.ExportTTL, deps.Metrics)

	exportHandler := export.NewHandler(negotiator)
	searchHandler := search.NewHandler(search.NewService(deps.DB, resolver, tagStore, deps.Metrics))

	s := &Server{router: mux.NewRouter()}
	s.router.Use(
		httputil.RequestIDMiddleware(deps.Logger),
		httputil.RecoveryMiddleware,
		httputil.LoggingMiddleware,
		observability.HTTPMetricsMiddleware(deps.Metrics),
		httputil.MaxBytesMiddleware(deps.MaxBodyBytes),
		httputil.ContentTypeMiddleware,
	)

	v1 := s.router.PathPrefix(Prefix).Subrouter()
	v1.HandleFunc("/health", health).Methods("GET")
	for _, registrar := range []RouteRegistrar{
		locale.NewHandlers(locale.NewStore(deps.DB, deps.Versioner, deps.Metrics)),
		tags.NewHandlers(tagStore),
		exportHandler,
		searchHandler,
		translations.NewHandlers(translations.NewService(deps.DB, deps.Versioner, deps.Metrics)),
	} {
		registrar.RegisterRoutes(v1)
	}

	exportHandler.RegisterRoutes(s.router)
	searchHandler.RegisterRoutes(s.router)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFoundError(w, "route not found")
	})

	s.handler = otelhttp.NewHandler(s.router, "lexicon")
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Router returns the underlying router
func (s *Server) Router() *mux.Router {
	return s.router
}

func health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// NewHealthHandler serves the probe routes and, when registry is set,
// /metrics. It runs on the health port.
func NewHealthHandler(checker *observability.HealthChecker, registry *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	observability.RegisterHealthRoutes(mux, checker)
	if registry != nil {
		observability.RegisterMetricsEndpoint(mux, registry)
	}
	return mux
}
