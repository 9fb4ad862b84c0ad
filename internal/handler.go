package internal

// Handler declares a group of routes.
//
//	func (h *Storage) Routes(r internal.Router) {
//	    r.Route("/api/s3", func(r internal.Router) {
//	        r.Use(h.middleware...)
//	        r.GET("/objects", h.listObjects)
//	        r.POST("/upload", h.uploadObject)
//	    })
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc serves one route. A returned error goes to the ErrorHandler
// unless the response was already written.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc. It may short-circuit by returning without
// calling next.
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler renders errors returned from handlers. Its own error is only logged.
type ErrorHandler func(Context, error) error
