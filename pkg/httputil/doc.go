// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Response Helpers
//
//	httputil.WriteSuccess(w, data)
//	httputil.WriteCreated(w, resource)
//	httputil.WriteServiceError(w, r, err) // 422, 404 or 500
//
// Validation failures use the {"message": ..., "errors": {field: [...]}}
// shape, every other error is {"error": ...}.
//
// # Request Parsing
//
//	var req CreateTranslationRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
//	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
//	perPage, err := httputil.ParseQueryInt(r, "per_page", 50)
//	nested := httputil.QueryFlag(r, "nested")
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware(logger),
//		httputil.LoggingMiddleware,
//		httputil.RecoveryMiddleware,
//		httputil.MaxBytesMiddleware(1<<20),
//	)
package httputil
