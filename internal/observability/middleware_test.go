package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPathLabel(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/v1/chat/completions", "/v1/chat/completions"},
		{"/v1/chat/completions/", "/v1/chat/completions"},
		{"/v1/responses", "/v1/responses"},
		{"/v1/models", "/v1/models"},
		{"/chat", "/chat"},
		{"/health", "/health"},
		{"/metrics", "/metrics"},
		{"/", "other"},
		{"/index.html", "other"},
		{"/.env", "other"},
		{"/wp-admin/setup.php", "other"},
	}

	for _, tt := range tests {
		if got := pathLabel(tt.path); got != tt.want {
			t.Errorf("pathLabel(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestStatusWriterCapturesFirstStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rr, status: http.StatusOK}

	sw.WriteHeader(http.StatusTeapot)
	sw.WriteHeader(http.StatusOK)

	if sw.status != http.StatusTeapot {
		t.Errorf("expected first status to stick, got %d", sw.status)
	}
}

func TestStatusWriterDefaultsTo200(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rr, status: http.StatusOK}

	sw.Write([]byte("body without explicit header"))

	if sw.status != http.StatusOK {
		t.Errorf("expected implicit 200, got %d", sw.status)
	}
}

func TestStatusWriterForwardsFlush(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rr, status: http.StatusOK}

	var _ http.Flusher = sw
	sw.Flush()

	if !rr.Flushed {
		t.Error("expected flush to reach the underlying writer")
	}
}

func TestMetricsMiddlewarePassesThrough(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("ok"))
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	MetricsMiddleware(inner).ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Errorf("expected handler status preserved, got %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("expected body preserved, got %q", rr.Body.String())
	}
}
