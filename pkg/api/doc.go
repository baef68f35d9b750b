// Package api assembles the lexicon HTTP server.
//
// # Overview
//
// The server mounts every catalog resource under /api/v1 on a gorilla/mux
// router:
//
//   - Locales: CRUD at /locales
//   - Tags: CRUD at /tags
//   - Translations: search at GET /translations, mutations at /translations/{id}
//   - Export: GET /export with ETag and Last-Modified validators
//   - Health: GET /health
//
// GET /export and GET /translations are also served at the root path.
//
// # Middleware
//
// Requests pass through request ID assignment, panic recovery, access
// logging, Prometheus instrumentation and a body size limit. The whole
// router is wrapped with otelhttp so every request carries a server span.
//
// # Usage
//
//	server := api.NewServer(api.Deps{
//	    DB:        cm,
//	    Cache:     store,
//	    Versioner: cache.NewVersioner(store, metrics),
//	    Metrics:   metrics,
//	    Logger:    logger,
//	})
//	http.ListenAndServe(":8080", server)
//
// Probes and /metrics are served by NewHealthHandler on a separate port.
package api
