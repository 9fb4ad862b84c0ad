package internal

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/bucketgate/pkg/job"
)

// Option configures an App. Options are applied once, in order, by New.
type Option func(*App)

// WithMiddleware appends global middleware. The first one listed runs outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithHandlers registers route declarers.
func WithHandlers(h ...Handler) Option {
	return func(a *App) {
		a.handlers = append(a.handlers, h...)
	}
}

// WithMount serves a plain http.Handler under pattern, outside the
// HandlerFunc error flow. The metrics endpoint is mounted this way.
func WithMount(pattern string, h http.Handler) Option {
	return func(a *App) {
		if pattern != "" && h != nil {
			a.mounts = append(a.mounts, mountRoute{handler: h, pattern: pattern})
		}
	}
}

func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		a.errorHandler = h
	}
}

func WithNotFoundHandler(h HandlerFunc) Option {
	return func(a *App) {
		a.notFoundHandler = h
	}
}

func WithMethodNotAllowedHandler(h HandlerFunc) Option {
	return func(a *App) {
		a.methodNotAllowedHandler = h
	}
}

// WithLogger sets the logger handed to every request Context.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithJobs starts m before the listener opens and stops it after requests drain.
func WithJobs(m *job.Manager) Option {
	return func(a *App) {
		a.jobManager = m
	}
}
