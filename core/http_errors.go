package core

import "net/http"

// HTTPError represents an HTTP error with a status code and a stable
// machine-readable key.
type HTTPError struct {
	Code    int         // HTTP status code
	Key     string      // Stable error code (e.g. "tenant_not_found")
	Message string      // Optional human-readable message
	Headers http.Header // Optional extra headers (e.g. Retry-After)
}

// Error implements the error interface.
func (e HTTPError) Error() string {
	return e.Key
}

// WithMessage returns a copy of the error with a human-readable message.
func (e HTTPError) WithMessage(msg string) HTTPError {
	e.Message = msg
	return e
}

// WithHeader returns a copy of the error carrying an extra response header.
func (e HTTPError) WithHeader(key, value string) HTTPError {
	headers := make(http.Header, len(e.Headers)+1)
	for k, vs := range e.Headers {
		headers[k] = vs
	}
	headers.Set(key, value)
	e.Headers = headers
	return e
}

var (
	ErrBadRequest          = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
	ErrUnauthorized        = HTTPError{Code: http.StatusUnauthorized, Key: "unauthorized"}
	ErrForbidden           = HTTPError{Code: http.StatusForbidden, Key: "forbidden"}
	ErrNotFound            = HTTPError{Code: http.StatusNotFound, Key: "not_found"}
	ErrConflict            = HTTPError{Code: http.StatusConflict, Key: "conflict"}
	ErrUnprocessableEntity = HTTPError{Code: http.StatusUnprocessableEntity, Key: "unprocessable_entity"}
	ErrTooManyRequests     = HTTPError{Code: http.StatusTooManyRequests, Key: "too_many_requests"}
	ErrInternalServerError = HTTPError{Code: http.StatusInternalServerError, Key: "internal_server_error"}
	ErrServiceUnavailable  = HTTPError{Code: http.StatusServiceUnavailable, Key: "service_unavailable"}
)

// NewHTTPError creates a custom HTTP error.
func NewHTTPError(code int, key string) HTTPError {
	return HTTPError{Code: code, Key: key}
}
