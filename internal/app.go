package internal

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/bucketgate/pkg/job"
	"github.com/dmitrymomot/bucketgate/pkg/logger"
)

// Default server timeouts.
// Read and write timeouts are zero: upload bodies stream to the object store
// and handler deadlines come from the Timeout middleware.
const (
	defaultReadTimeout       = 0
	defaultWriteTimeout      = 0
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// App orchestrates the application lifecycle.
// It manages HTTP routing, middleware, and graceful shutdown.
// App is immutable after creation - all configuration is done via New().
type App struct {
	router                  chi.Router
	errorHandler            ErrorHandler
	notFoundHandler         HandlerFunc
	methodNotAllowedHandler HandlerFunc
	healthConfig            *healthConfig
	logger                  *slog.Logger
	jobManager              *job.Manager
	middlewares             []Middleware
	handlers                []Handler
	mounts                  []mountRoute
}

// mountRoute is a plain http.Handler attached at a pattern.
type mountRoute struct {
	handler http.Handler
	pattern string
}

// New creates a new application with the given options.
//
// Example:
//
//	app := internal.New(
//	    internal.WithMiddleware(middlewares.RequestID()),
//	    internal.WithHandlers(api.NewObjects(svc)),
//	)
func New(opts ...Option) *App {
	a := &App{
		router: chi.NewRouter(),
		logger: logger.NewNope(),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.setupRoutes()
	return a
}

// Router returns the underlying chi.Router for the App.
func (a *App) Router() chi.Router {
	return a.router
}

// ServeHTTP lets the App be used directly as an http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Jobs returns the job manager if configured, nil otherwise.
func (a *App) Jobs() *job.Manager {
	return a.jobManager
}

// Run starts the HTTP server and blocks until shutdown.
// If a job manager is configured, it starts before serving requests
// and stops after the HTTP server has drained.
//
// Example:
//
//	err := app.Run(":8080", internal.Logger(log), internal.ShutdownHook(db.Shutdown(pool)))
func (a *App) Run(addr string, opts ...RunOption) error {
	cfg := buildRunConfig(opts...)
	if cfg.logger == nil {
		cfg.logger = a.logger
	}

	startupHooks := cfg.startupHooks
	shutdownHooks := cfg.shutdownHooks

	if a.jobManager != nil {
		startupHooks = append([]func(context.Context) error{a.jobManager.StartFunc()}, startupHooks...)
		shutdownHooks = append([]func(context.Context) error{a.jobManager.Shutdown()}, shutdownHooks...)
	}

	return runServer(runtimeConfig{
		handler:         a.router,
		address:         addr,
		logger:          cfg.logger,
		shutdownTimeout: cfg.shutdownTimeout,
		startupHooks:    startupHooks,
		shutdownHooks:   shutdownHooks,
		baseCtx:         cfg.baseCtx,
		listener:        cfg.listener,
	})
}

// setupRoutes configures the router with middleware and handlers.
func (a *App) setupRoutes() {
	if a.notFoundHandler != nil {
		a.router.NotFound(a.toHTTP(a.notFoundHandler))
	}
	if a.methodNotAllowedHandler != nil {
		a.router.MethodNotAllowed(a.toHTTP(a.methodNotAllowedHandler))
	}

	for _, mw := range a.middlewares {
		a.router.Use(a.toChi(mw))
	}

	for _, m := range a.mounts {
		a.router.Mount(m.pattern, m.handler)
	}

	if a.healthConfig != nil {
		a.healthConfig.mount(a.router, a.logger)
	}

	r := &chiRouter{mux: a.router, app: a}
	for _, h := range a.handlers {
		h.Routes(r)
	}
}

// handleError handles errors from handlers using the configured error handler.
func (a *App) handleError(c Context, err error) {
	if c.Written() {
		c.LogDebug("error after response was written", slog.Any("error", err))
		return
	}
	if a.errorHandler != nil {
		if herr := a.errorHandler(c, err); herr != nil {
			a.logger.ErrorContext(c, "error handler failed", slog.Any("error", herr))
		}
		return
	}
	defaultErrorHandler(c, err)
}

// defaultErrorHandler writes the status of an HTTPError or a bare 500.
func defaultErrorHandler(c Context, err error) {
	if httpErr := AsHTTPError(err); httpErr != nil {
		http.Error(c.Response(), httpErr.Message, httpErr.StatusCode())
		return
	}
	http.Error(c.Response(), http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
