package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// apiPrefixes are the route families worth a distinct path label. Anything
// else (static files, probes from scanners) collapses into "other" to keep
// label cardinality bounded.
var apiPrefixes = []string{"/v1/", "/chat", "/health", "/metrics"}

// MetricsMiddleware records cascade_requests_total and
// cascade_request_duration_seconds for every request.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		statusClass := strconv.Itoa(sw.status/100) + "xx"
		path := pathLabel(r.URL.Path)
		RequestsTotal.WithLabelValues(path, statusClass).Inc()
		RequestDurationSeconds.WithLabelValues(path).Observe(time.Since(start).Seconds())
	})
}

func pathLabel(path string) string {
	for _, prefix := range apiPrefixes {
		if strings.HasPrefix(path, prefix) {
			return strings.TrimSuffix(path, "/")
		}
	}
	return "other"
}

// statusWriter captures the status code written by the handler.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

// Flush forwards to the underlying writer when it supports http.Flusher,
// keeping SSE streaming intact behind the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
