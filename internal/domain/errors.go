// Package domain holds the canonical types and error taxonomy shared by the
// normalizers, the dispatch engine, and the response composers.
package domain

import (
	"fmt"
	"net/http"
)

// ErrorType classifies an APIError.
type ErrorType string

const (
	// ErrorTypeInvalidRequest indicates a malformed or invalid request body.
	ErrorTypeInvalidRequest ErrorType = "invalid_request"

	// ErrorTypeUnauthorized indicates a missing or mismatched shared secret.
	ErrorTypeUnauthorized ErrorType = "unauthorized"

	// ErrorTypeBackendFailure indicates a single backend erred or returned
	// nothing. It is recovered inside the dispatch engine by advancing the
	// rotation and never reaches the transport layer.
	ErrorTypeBackendFailure ErrorType = "backend_failure"

	// ErrorTypeAllBackendsFailed indicates every configured backend was
	// exhausted without producing output.
	ErrorTypeAllBackendsFailed ErrorType = "all_backends_failed"

	// ErrorTypeServer indicates an internal server error.
	ErrorTypeServer ErrorType = "server"
)

// APIError is the canonical error carried between components and rendered
// by the transport layer.
type APIError struct {
	Type    ErrorType
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// HTTPStatusCode maps the error type onto the status the transport answers
// with. Exhaustion never reaches this mapping: it is answered 200 with a
// placeholder completion instead of an error status.
func (e *APIError) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// NewAPIError creates a new API error.
func NewAPIError(errType ErrorType, message string) *APIError {
	return &APIError{Type: errType, Message: message}
}

// ErrInvalidRequest creates an invalid request error.
func ErrInvalidRequest(message string) *APIError {
	return NewAPIError(ErrorTypeInvalidRequest, message)
}

// ErrUnauthorized creates an authentication error.
func ErrUnauthorized(message string) *APIError {
	return NewAPIError(ErrorTypeUnauthorized, message)
}

// ErrAllBackendsFailed is the terminal dispatch failure. The engine returns
// this sentinel once the rotation list and any last-resort backend are
// exhausted; per-backend causes are logged, not attached.
var ErrAllBackendsFailed = NewAPIError(ErrorTypeAllBackendsFailed, "all configured backends failed")
