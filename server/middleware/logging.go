package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/transcriber/logger"
)

var probePaths = map[string]bool{
	"/health": true, "/ready": true, "/alive": true,
}

// recorder captures the status and body size of a response. Flush and
// Unwrap pass through so SSE streams and http.ResponseController see the
// underlying writer.
type recorder struct {
	http.ResponseWriter
	status  int
	written int64
	header  bool
}

func (rw *recorder) WriteHeader(code int) {
	if !rw.header {
		rw.status = code
		rw.header = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recorder) Write(b []byte) (int, error) {
	rw.header = true
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

func (rw *recorder) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *recorder) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

// RequestLogger logs method, path, status, size and duration of every
// request except health probes. Job status routes also carry the job id.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbe(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			fields := logger.Fields(
				"method", r.Method,
				logger.FieldPath, r.URL.Path,
				logger.FieldStatus, rw.status,
				"bytes", rw.written,
				logger.FieldDuration, time.Since(start).Milliseconds(),
			)
			if id := jobIDFromPath(r.URL.Path); id != "" {
				fields[logger.FieldJobID] = id
			}
			logByStatus(log.WithContext(r.Context()), fields, rw.status)
		})
	}
}

func isProbe(path string) bool {
	if probePaths[path] {
		return true
	}
	if strings.HasPrefix(path, "/api/") {
		return probePaths[path[strings.LastIndex(path, "/"):]]
	}
	return false
}

// jobIDFromPath extracts the id from .../status/<id>[/events].
func jobIDFromPath(path string) string {
	_, rest, ok := strings.Cut(path, "/status/")
	if !ok {
		return ""
	}
	id, _, _ := strings.Cut(rest, "/")
	return id
}

func logByStatus(log *logger.Logger, fields map[string]any, status int) {
	switch {
	case status >= 500:
		log.Error("request completed", fields)
	case status >= 400:
		log.Warn("request completed", fields)
	default:
		log.Debug("request completed", fields)
	}
}
