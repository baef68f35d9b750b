package export

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/lexicon/pkg/httputil"
)

// Handler serves GET /export
type Handler struct {
	negotiator *Negotiator
}

// NewHandler creates an export handler
func NewHandler(negotiator *Negotiator) *Handler {
	return &Handler{negotiator: negotiator}
}

// RegisterRoutes registers the export route
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/export", h.Export).Methods("GET", "HEAD")
}

// Export handles GET /export?locale=<code-or-id>&nested=<bool>
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	resp, err := h.negotiator.Negotiate(r.Context(), Request{
		Locale:          r.URL.Query().Get("locale"),
		Nested:          httputil.QueryFlag(r, "nested"),
		IfNoneMatch:     r.Header.Get("If-None-Match"),
		IfModifiedSince: r.Header.Get("If-Modified-Since"),
	})
	if err != nil {
		httputil.WriteInternalError(w, r, err)
		return
	}

	header := w.Header()
	header.Set("ETag", resp.ETag)
	header.Set("Cache-Control", CacheControl)
	if !resp.LastModified.IsZero() {
		header.Set("Last-Modified", resp.LastModified.UTC().Format(http.TimeFormat))
	}

	if resp.NotModified {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	header.Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(resp.Body)
}
