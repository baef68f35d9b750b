package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/platinummonkey/lexicon/pkg/catalog"
	"github.com/platinummonkey/lexicon/pkg/observability"
)

// ValidationMessage is the message of every 422 response
const ValidationMessage = "The given data was invalid."

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response with the given status code
func WriteError(w http.ResponseWriter, status int, err error) {
	WriteErrorMessage(w, status, err.Error())
}

// WriteErrorMessage writes a JSON error response with a custom message
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// ValidationResponse is the body of a 422 response
type ValidationResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// WriteValidationErrors writes field-level validation messages (422 Unprocessable Entity)
func WriteValidationErrors(w http.ResponseWriter, fields map[string][]string) {
	if fields == nil {
		fields = map[string][]string{}
	}
	WriteJSON(w, http.StatusUnprocessableEntity, ValidationResponse{
		Message: ValidationMessage,
		Errors:  fields,
	})
}

// WriteNotFoundError writes a not found error response (404 Not Found)
func WriteNotFoundError(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusNotFound, message)
}

// WriteInternalError writes a 500 response. The error is logged, never
// returned to the client.
func WriteInternalError(w http.ResponseWriter, r *http.Request, err error) {
	observability.FromContext(r.Context()).
		WithError(err).
		WithField("path", r.URL.Path).
		Error("Request failed")
	WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
}

// WriteServiceError maps a service error onto a response: validation errors
// become 422, catalog.ErrNotFound becomes 404 and anything else is a 500.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *catalog.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteValidationErrors(w, verr.Fields)
	case errors.Is(err, catalog.ErrNotFound):
		WriteNotFoundError(w, "resource not found")
	default:
		WriteInternalError(w, r, err)
	}
}

// WriteCreated writes a successful creation response (201 Created) with JSON data
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, data)
}

// WriteSuccess writes a successful response (200 OK) with JSON data
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteNoContent writes a successful response with no content (204 No Content)
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteBadRequest writes a bad request error (400)
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusBadRequest, message)
}

// DataResponse wraps a single resource the way list responses wrap pages
type DataResponse struct {
	Data interface{} `json:"data"`
}
