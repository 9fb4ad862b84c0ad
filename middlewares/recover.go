package middlewares

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/dmitrymomot/bucketgate/internal"
)

// DefaultStackSize bounds the stack captured for a recovered panic.
const DefaultStackSize = 4096

// PanicError is returned by Recover in place of a handler panic.
type PanicError struct {
	Value any
	Stack []byte // nil when stack capture is disabled
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// AsPanicError extracts the PanicError from err if present.
func AsPanicError(err error) (*PanicError, bool) {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// RecoverOption configures Recover.
type RecoverOption func(*recoverConfig)

type recoverConfig struct {
	stackSize int
}

// WithStackSize caps the captured stack at n bytes. Zero disables capture.
func WithStackSize(n int) RecoverOption {
	return func(cfg *recoverConfig) {
		if n >= 0 {
			cfg.stackSize = n
		}
	}
}

// Recover turns a handler panic into a PanicError so the error handler can
// answer 500 and the request still gets its audit and log entries.
func Recover(opts ...RecoverOption) internal.Middleware {
	cfg := &recoverConfig{stackSize: DefaultStackSize}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				pe := &PanicError{Value: r}
				if cfg.stackSize > 0 {
					buf := make([]byte, cfg.stackSize)
					pe.Stack = buf[:runtime.Stack(buf, false)]
				}
				c.LogError("panic recovered", "panic", r, "path", c.Request().URL.Path)
				err = pe
			}()

			return next(c)
		}
	}
}
