package locale

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/lexicon/pkg/httputil"
)

// Handlers serves the locale resource
type Handlers struct {
	store *Store
}

// NewHandlers creates locale handlers
func NewHandlers(store *Store) *Handlers {
	return &Handlers{store: store}
}

// RegisterRoutes registers locale routes
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/locales", h.List).Methods("GET")
	router.HandleFunc("/locales", h.Create).Methods("POST")
	router.HandleFunc("/locales/{id}", h.Get).Methods("GET")
	router.HandleFunc("/locales/{id}", h.Update).Methods("PUT", "PATCH")
	router.HandleFunc("/locales/{id}", h.Delete).Methods("DELETE")
}

// List handles GET /locales
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := httputil.ParsePagination(r)
	result, err := h.store.List(r.Context(), page, perPage)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

// Create handles POST /locales
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	l, err := h.store.Create(r.Context(), req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteCreated(w, httputil.DataResponse{Data: l})
}

// Get handles GET /locales/{id}
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	l, err := h.store.Get(r.Context(), id)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, httputil.DataResponse{Data: l})
}

// Update handles PUT /locales/{id}
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req UpdateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	l, err := h.store.Update(r.Context(), id, req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, httputil.DataResponse{Data: l})
}

// Delete handles DELETE /locales/{id}
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}
