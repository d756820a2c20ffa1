package middleware

import (
	"fmt"
	"net/http"

	apperrors "github.com/kbukum/transcriber/errors"
	"github.com/kbukum/transcriber/util"
)

const defaultMaxBodySize = 105 << 20

// BodySizeLimit caps request bodies at maxSize ("105MB", "512KB").
// Declared oversize bodies are refused before any handler runs; chunked
// ones fail with *http.MaxBytesError on read.
func BodySizeLimit(maxSize string) Middleware {
	limit := util.ParseSize(maxSize, defaultMaxBodySize)
	msg := fmt.Sprintf("Request body must be smaller than %s", util.FormatSize(limit))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				writeAppError(w, apperrors.New(apperrors.ErrCodeValidation, msg, http.StatusRequestEntityTooLarge))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
