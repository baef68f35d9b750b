package translations

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/lexicon/pkg/httputil"
)

// Handlers serves translation mutations. Listing lives in the search package.
type Handlers struct {
	service *Service
}

// NewHandlers creates translation handlers
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers translation routes
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/translations", h.Create).Methods("POST")
	router.HandleFunc("/translations/{id}", h.Get).Methods("GET")
	router.HandleFunc("/translations/{id}", h.Update).Methods("PUT", "PATCH")
	router.HandleFunc("/translations/{id}", h.Delete).Methods("DELETE")
}

// Create handles POST /translations
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	t, err := h.service.Create(r.Context(), req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteCreated(w, httputil.DataResponse{Data: t})
}

// Get handles GET /translations/{id}
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, httputil.DataResponse{Data: t})
}

// Update handles PUT and PATCH /translations/{id}
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req UpdateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	t, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, httputil.DataResponse{Data: t})
}

// Delete handles DELETE /translations/{id}
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}
