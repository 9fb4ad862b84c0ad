package middlewares

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/bucketgate/internal"
)

// DefaultTimeout is the default request timeout.
const DefaultTimeout = 30 * time.Second

// TimeoutError replaces a handler error observed after the request deadline.
type TimeoutError struct {
	Err      error
	Duration time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timeout after %s", e.Duration)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// IsTimeoutError reports whether err carries a TimeoutError.
func IsTimeoutError(err error) bool {
	_, ok := AsTimeoutError(err)
	return ok
}

// AsTimeoutError extracts the TimeoutError from err if present.
func AsTimeoutError(err error) (*TimeoutError, bool) {
	var te *TimeoutError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// TimeoutConfig configures the timeout middleware.
type TimeoutConfig struct {
	Skip    func(c internal.Context) bool
	Timeout time.Duration
}

// TimeoutOption configures TimeoutConfig.
type TimeoutOption func(*TimeoutConfig)

// WithTimeoutSkipper excludes matching requests from the deadline,
// e.g. streaming uploads bounded by the body size instead.
func WithTimeoutSkipper(fn func(c internal.Context) bool) TimeoutOption {
	return func(cfg *TimeoutConfig) {
		cfg.Skip = fn
	}
}

// Timeout returns middleware that attaches a deadline to the request context.
// Handlers observe it through the Context they already pass to downstream
// calls. When a handler fails after the deadline passed, the error is
// replaced by a TimeoutError for the global ErrorHandler.
func Timeout(timeout time.Duration, opts ...TimeoutOption) internal.Middleware {
	cfg := &TimeoutConfig{
		Timeout: timeout,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if cfg.Skip != nil && cfg.Skip(c) {
				return next(c)
			}

			parent := c.Context()
			ctx, cancel := context.WithTimeout(parent, cfg.Timeout)
			defer cancel()
			c.SetContext(ctx)

			err := next(c)
			if err == nil {
				return nil
			}
			// only our own deadline counts; a parent cancellation is the client leaving
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
				c.LogWarn("request timeout", "timeout", cfg.Timeout.String())
				return &TimeoutError{Duration: cfg.Timeout, Err: err}
			}
			return err
		}
	}
}
