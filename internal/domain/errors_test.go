package domain

import (
	"errors"
	"net/http"
	"testing"
)

func TestAPIErrorError(t *testing.T) {
	err := ErrInvalidRequest("bad request")
	if got := err.Error(); got != "invalid_request: bad request" {
		t.Errorf("Error() = %q, want %q", got, "invalid_request: bad request")
	}
}

func TestAPIErrorHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want int
	}{
		{"invalid request", ErrInvalidRequest("x"), http.StatusBadRequest},
		{"unauthorized", ErrUnauthorized("x"), http.StatusUnauthorized},
		{"server", NewAPIError(ErrorTypeServer, "x"), http.StatusInternalServerError},
		{"backend failure", NewAPIError(ErrorTypeBackendFailure, "x"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.HTTPStatusCode(); got != tt.want {
				t.Errorf("HTTPStatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrAllBackendsFailedIsSentinel(t *testing.T) {
	var err error = ErrAllBackendsFailed
	if !errors.Is(err, ErrAllBackendsFailed) {
		t.Error("sentinel must match itself through errors.Is")
	}
	if errors.Is(ErrInvalidRequest("x"), ErrAllBackendsFailed) {
		t.Error("distinct errors must not match the sentinel")
	}
}
