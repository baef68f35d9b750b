package tags

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/lexicon/pkg/httputil"
)

// Handlers serves the tag resource
type Handlers struct {
	store *Store
}

// NewHandlers creates tag handlers
func NewHandlers(store *Store) *Handlers {
	return &Handlers{store: store}
}

// RegisterRoutes registers tag routes
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/tags", h.List).Methods("GET")
	router.HandleFunc("/tags", h.Create).Methods("POST")
	router.HandleFunc("/tags/{id}", h.Get).Methods("GET")
	router.HandleFunc("/tags/{id}", h.Update).Methods("PUT", "PATCH")
	router.HandleFunc("/tags/{id}", h.Delete).Methods("DELETE")
}

// List handles GET /tags
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := httputil.ParsePagination(r)
	result, err := h.store.List(r.Context(), page, perPage)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

// Create handles POST /tags
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req Request
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	tag, err := h.store.Create(r.Context(), req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteCreated(w, httputil.DataResponse{Data: tag})
}

// Get handles GET /tags/{id}
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	tag, err := h.store.Get(r.Context(), id)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, httputil.DataResponse{Data: tag})
}

// Update handles PUT /tags/{id}
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req Request
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	tag, err := h.store.Update(r.Context(), id, req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, httputil.DataResponse{Data: tag})
}

// Delete handles DELETE /tags/{id}
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
