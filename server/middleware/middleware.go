// Package middleware holds the net/http middleware the server wraps around
// its Gin engine, so SSE streams and non-Gin mounts are covered too.
package middleware

import (
	"encoding/json"
	"net/http"
	"slices"

	apperrors "github.com/kbukum/transcriber/errors"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware; the first argument ends up outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(h http.Handler) http.Handler {
		for _, m := range slices.Backward(middlewares) {
			h = m(h)
		}
		return h
	}
}

// writeAppError renders the API error envelope without a Gin context.
func writeAppError(w http.ResponseWriter, err *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	_ = json.NewEncoder(w).Encode(err.ToResponse())
}
