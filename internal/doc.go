// Package internal provides the HTTP core of the bucketgate server.
//
// # Core Types
//
//   - App: Orchestrates HTTP routing, middleware, health endpoints, background jobs, and graceful shutdown
//   - Context: Request/response access, JSON helpers, and request-scoped logging
//   - Router: Interface handlers use to declare routes with HTTP methods and grouping
//   - Handler: Interface implemented by types that declare routes on a router
//   - HandlerFunc: Signature for individual route handlers that return errors
//   - Middleware: Wraps handlers to add cross-cutting concerns like auth or timeouts
//   - ErrorHandler: Converts handler errors into responses
//
// # Context as context.Context
//
// Context embeds context.Context, so it can be passed directly to the gateway
// and credential services:
//
//	func (h *Storage) list(c internal.Context) error {
//	    res, err := h.svc.List(c, middlewares.GetTenantID(c), params)
//	    if err != nil {
//	        return err
//	    }
//	    return c.JSON(http.StatusOK, res)
//	}
//
// # Application Structure
//
//	app := internal.New(
//	    internal.WithLogger(log),
//	    internal.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
//	    internal.WithHandlers(api.NewStorage(svc, auth), api.NewCredentials(issuer, auth)),
//	    internal.WithErrorHandler(api.ErrorHandler),
//	    internal.WithHealthChecks(internal.WithReadinessCheck("storage", store.Ping)),
//	)
//	err := app.Run(":8080", internal.ShutdownHook(db.Shutdown(pool)))
//
// # Errors
//
// Handlers return errors instead of writing failure responses. HTTPError
// carries a status code and a stable error code; any other error is passed
// to the configured ErrorHandler, which maps domain sentinels to statuses.
//
// # Graceful Shutdown
//
// Run listens for SIGINT and SIGTERM. On shutdown the HTTP server drains first,
// then the job manager stops, then shutdown hooks run in registration order.
package internal
