package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// DefaultMaxJSONBody is the request body limit applied by BindJSON.
const DefaultMaxJSONBody = 1 << 20 // 1MiB

// Context is the per-request handle given to every HandlerFunc and
// Middleware. It is itself a context.Context bound to the request, so it can
// be passed straight into storage and IAM calls and is cancelled when the
// client goes away.
type Context interface {
	context.Context

	Request() *http.Request
	Response() http.ResponseWriter
	Context() context.Context

	// SetContext swaps the request context. Timeout uses it to attach a deadline.
	SetContext(ctx context.Context)

	// Param reads a chi URL parameter; Query reads the raw query string.
	// Both return "" when the name is absent.
	Param(name string) string
	Query(name string) string

	Header(name string) string
	SetHeader(name, value string)

	JSON(code int, v any) error
	String(code int, s string) error
	NoContent(code int) error

	// BindJSON decodes the body into v. Unknown fields, trailing data and
	// bodies over DefaultMaxJSONBody come back as 400/413 HTTPErrors.
	BindJSON(v any) error

	// Written reports whether a status line has gone out.
	Written() bool
	ResponseWriter() *ResponseWriter

	LogDebug(msg string, attrs ...any)
	LogInfo(msg string, attrs ...any)
	LogWarn(msg string, attrs ...any)
	LogError(msg string, attrs ...any)

	// Set and Get store values on the request context, so anything set here
	// is also visible through Value.
	Set(key any, value any)
	Get(key any) any
}

type requestContext struct {
	request        *http.Request
	responseWriter *ResponseWriter
	logger         *slog.Logger
}

// newContext reuses w when it is already a *ResponseWriter so the middleware
// chain and the handler agree on what has been written.
func newContext(w http.ResponseWriter, r *http.Request, logger *slog.Logger) *requestContext {
	rw, ok := w.(*ResponseWriter)
	if !ok {
		rw = NewResponseWriter(w)
	}
	return &requestContext{
		request:        r,
		responseWriter: rw,
		logger:         logger,
	}
}

func (c *requestContext) Request() *http.Request {
	return c.request
}

func (c *requestContext) Response() http.ResponseWriter {
	return c.responseWriter
}

func (c *requestContext) Context() context.Context {
	return c.request.Context()
}

func (c *requestContext) SetContext(ctx context.Context) {
	c.request = c.request.WithContext(ctx)
}

func (c *requestContext) Param(name string) string {
	return chi.URLParam(c.request, name)
}

func (c *requestContext) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *requestContext) Deadline() (time.Time, bool) {
	return c.request.Context().Deadline()
}

func (c *requestContext) Done() <-chan struct{} {
	return c.request.Context().Done()
}

func (c *requestContext) Err() error {
	return c.request.Context().Err()
}

func (c *requestContext) Value(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Header(name string) string {
	return c.request.Header.Get(name)
}

func (c *requestContext) SetHeader(name, value string) {
	c.responseWriter.Header().Set(name, value)
}

func (c *requestContext) JSON(code int, v any) error {
	c.responseWriter.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.responseWriter.WriteHeader(code)
	return json.NewEncoder(c.responseWriter).Encode(v)
}

func (c *requestContext) String(code int, s string) error {
	c.responseWriter.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.responseWriter.WriteHeader(code)
	_, err := c.responseWriter.Write([]byte(s))
	return err
}

func (c *requestContext) NoContent(code int) error {
	c.responseWriter.WriteHeader(code)
	return nil
}

func (c *requestContext) BindJSON(v any) error {
	if c.request.Body == nil {
		return ErrBadRequest("request body is required", WithErrorCode("invalid_request"))
	}
	dec := json.NewDecoder(http.MaxBytesReader(c.responseWriter, c.request.Body, DefaultMaxJSONBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return ErrRequestTooLarge("request body is too large", WithErrorCode("invalid_request"), WithError(err))
		case errors.Is(err, io.EOF):
			return ErrBadRequest("request body is required", WithErrorCode("invalid_request"), WithError(err))
		default:
			return ErrBadRequest("malformed JSON body", WithErrorCode("invalid_request"), WithError(fmt.Errorf("bind json: %w", err)))
		}
	}
	if dec.More() {
		return ErrBadRequest("malformed JSON body", WithErrorCode("invalid_request"))
	}
	return nil
}

func (c *requestContext) Written() bool {
	return c.responseWriter.Written()
}

func (c *requestContext) ResponseWriter() *ResponseWriter {
	return c.responseWriter
}

func (c *requestContext) LogDebug(msg string, attrs ...any) {
	c.logger.DebugContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogInfo(msg string, attrs ...any) {
	c.logger.InfoContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogWarn(msg string, attrs ...any) {
	c.logger.WarnContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.logger.ErrorContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) Set(key, value any) {
	ctx := context.WithValue(c.request.Context(), key, value)
	c.request = c.request.WithContext(ctx)
}

func (c *requestContext) Get(key any) any {
	return c.request.Context().Value(key)
}
