// Package middlewares provides the HTTP middleware of the bucketgate server.
//
// # Request ID
//
// RequestID assigns an xid to each request, or keeps a well-formed one from
// X-Request-ID. Use RequestIDExtractor with the logger so every entry carries it:
//
//	logger.NewFromConfig(cfg.Log, os.Stdout, middlewares.RequestIDExtractor(), middlewares.TenantIDExtractor())
//
// # Authentication
//
// JWT verifies the bearer token and stores its subject as the tenant ID.
// Handlers read it with GetTenantID; it is the only source of tenant identity.
//
//	r.Group(func(r internal.Router) {
//	    r.Use(middlewares.JWT(tokens))
//	    r.GET("/api/s3/objects", h.list)
//	})
//
// # Recover and Timeout
//
// Recover converts panics into PanicError. Timeout attaches a deadline to the
// request context and reports TimeoutError when work fails after it expired.
// Both are rendered by the global ErrorHandler.
//
// # CORS
//
// CORS handles preflight requests for browser clients uploading through presigned URLs.
//
// # Metrics
//
// Metrics counts requests and observes latency per chi route pattern, so
// object keys and tenant IDs never become label values.
//
// # Recommended Order
//
//	internal.WithMiddleware(
//	    httpMetrics,
//	    middlewares.CORS(),
//	    middlewares.RequestID(),
//	    middlewares.Recover(),
//	    middlewares.Timeout(30*time.Second),
//	)
package middlewares
