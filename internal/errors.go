package internal

import (
	"errors"
	"net/http"
)

// HTTPError carries what the error handler needs to render a failure.
// Message and ErrorCode reach the client; Err is only logged.
type HTTPError struct {
	Err       error
	Message   string
	ErrorCode string // stable, e.g. "access_denied"
	RequestID string
	Code      int
}

func (e *HTTPError) Error() string { return e.Message }
func (e *HTTPError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status, 500 when none was set.
func (e *HTTPError) StatusCode() int {
	if e.Code == 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

type HTTPErrorOption func(*HTTPError)

func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	e := &HTTPError{Code: code, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithErrorCode(code string) HTTPErrorOption {
	return func(e *HTTPError) { e.ErrorCode = code }
}

func WithRequestID(id string) HTTPErrorOption {
	return func(e *HTTPError) { e.RequestID = id }
}

// WithError attaches the cause. errors.Is and errors.As see through to it.
func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) { e.Err = err }
}

func ErrBadRequest(msg string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, msg, opts...)
}

func ErrUnauthorized(msg string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, msg, opts...)
}

func ErrForbidden(msg string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusForbidden, msg, opts...)
}

func ErrNotFound(msg string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, msg, opts...)
}

func ErrRequestTooLarge(msg string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusRequestEntityTooLarge, msg, opts...)
}

func ErrInternal(msg string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, msg, opts...)
}

// ErrBadGateway reports a failed call to the object store or AWS.
func ErrBadGateway(msg string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadGateway, msg, opts...)
}

func ErrGatewayTimeout(msg string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusGatewayTimeout, msg, opts...)
}

// AsHTTPError returns the first HTTPError in err's chain, or nil.
func AsHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return nil
}
