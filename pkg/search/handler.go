package search

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/lexicon/pkg/httputil"
)

// Handler serves GET /translations
type Handler struct {
	service *Service
}

// NewHandler creates a search handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the search route
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/translations", h.Search).Methods("GET")
}

// Search handles GET /translations?locale=&tag=&key=&content=&per_page=&page=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	page, perPage := httputil.ParsePagination(r)
	result, err := h.service.Search(r.Context(), Filters{
		Locale:  httputil.ParseQueryString(r, "locale", ""),
		Tag:     httputil.ParseQueryString(r, "tag", ""),
		Key:     httputil.ParseQueryString(r, "key", ""),
		Content: httputil.ParseQueryString(r, "content", ""),
	}, page, perPage)
	if err != nil {
		httputil.WriteInternalError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, result)
}
