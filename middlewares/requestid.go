package middlewares

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/dmitrymomot/bucketgate/internal"
	"github.com/dmitrymomot/bucketgate/pkg/id"
	"github.com/dmitrymomot/bucketgate/pkg/logger"
)

type requestIDKey struct{}

// MaxRequestIDLength bounds client-supplied request IDs.
const MaxRequestIDLength = 128

const requestIDHeader = "X-Request-ID"

type requestIDConfig struct {
	generate func() string
	accept   []string
	respond  string
}

// RequestIDOption configures RequestID.
type RequestIDOption func(*requestIDConfig)

// WithRequestIDHeaders replaces the incoming headers searched for an upstream ID.
func WithRequestIDHeaders(headers ...string) RequestIDOption {
	return func(cfg *requestIDConfig) {
		cfg.accept = headers
	}
}

// WithRequestIDGenerator replaces the xid generator.
func WithRequestIDGenerator(gen func() string) RequestIDOption {
	return func(cfg *requestIDConfig) {
		if gen != nil {
			cfg.generate = gen
		}
	}
}

// WithRequestIDResponseHeader names the header the ID is echoed in.
func WithRequestIDResponseHeader(header string) RequestIDOption {
	return func(cfg *requestIDConfig) {
		if header != "" {
			cfg.respond = header
		}
	}
}

// RequestID tags every request with an ID that ends up in logs, error
// bodies and audit events. An upstream ID is kept when it is short and
// printable; otherwise a fresh xid is generated.
func RequestID(opts ...RequestIDOption) internal.Middleware {
	cfg := &requestIDConfig{
		generate: id.NewRequestID,
		accept:   []string{requestIDHeader, "X-Correlation-ID"},
		respond:  requestIDHeader,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			reqID := ""
			for _, h := range cfg.accept {
				if v := c.Header(h); validRequestID(v) {
					reqID = v
					break
				}
			}
			if reqID == "" {
				reqID = cfg.generate()
			}

			c.Set(requestIDKey{}, reqID)
			c.SetHeader(cfg.respond, reqID)
			return next(c)
		}
	}
}

func validRequestID(v string) bool {
	if v == "" || len(v) > MaxRequestIDLength {
		return false
	}
	return !strings.ContainsFunc(v, func(r rune) bool {
		return unicode.IsControl(r) || unicode.IsSpace(r)
	})
}

// RequestIDFromContext returns the ID stored by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// GetRequestID returns the ID stored by RequestID, or "".
func GetRequestID(c internal.Context) string {
	return internal.Value[string](c, requestIDKey{})
}

// RequestIDExtractor adds "request_id" to log entries.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v := RequestIDFromContext(ctx); v != "" {
			return slog.String("request_id", v), true
		}
		return slog.Attr{}, false
	}
}
