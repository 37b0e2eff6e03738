package logging

import (
	"net/http"
	"sync"
	"time"
)

// responseWriterWrapper captures the status code for request logging.
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

var wrapperPool = sync.Pool{
	New: func() any {
		return &responseWriterWrapper{}
	},
}

func (w *responseWriterWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs each request with method, path, status and
// duration. Probe endpoints are skipped to keep the log readable.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()

		wrapper := wrapperPool.Get().(*responseWriterWrapper)
		wrapper.ResponseWriter = w
		wrapper.statusCode = http.StatusOK
		defer func() {
			wrapper.ResponseWriter = nil
			wrapperPool.Put(wrapper)
		}()

		next.ServeHTTP(wrapper, r)

		Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}
