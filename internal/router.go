package internal

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
)

// Router is what a Handler sees while declaring its routes.
type Router interface {
	GET(path string, h HandlerFunc, mw ...Middleware)
	POST(path string, h HandlerFunc, mw ...Middleware)
	PUT(path string, h HandlerFunc, mw ...Middleware)
	DELETE(path string, h HandlerFunc, mw ...Middleware)

	// Group scopes middleware added with Use without adding a path prefix.
	Group(fn func(r Router))

	// Route mounts a sub-router at pattern. A pattern can be routed only once
	// per router, so handlers sharing a prefix must declare it together.
	Route(pattern string, fn func(r Router))

	// Use appends middleware for every route declared after it on this router.
	Use(mw ...Middleware)
}

type chiRouter struct {
	mux chi.Router
	app *App
}

func (r *chiRouter) GET(path string, h HandlerFunc, mw ...Middleware) {
	r.handle(http.MethodGet, path, h, mw)
}

func (r *chiRouter) POST(path string, h HandlerFunc, mw ...Middleware) {
	r.handle(http.MethodPost, path, h, mw)
}

func (r *chiRouter) PUT(path string, h HandlerFunc, mw ...Middleware) {
	r.handle(http.MethodPut, path, h, mw)
}

func (r *chiRouter) DELETE(path string, h HandlerFunc, mw ...Middleware) {
	r.handle(http.MethodDelete, path, h, mw)
}

func (r *chiRouter) Group(fn func(Router)) {
	r.mux.Group(func(sub chi.Router) {
		fn(&chiRouter{mux: sub, app: r.app})
	})
}

func (r *chiRouter) Route(pattern string, fn func(Router)) {
	r.mux.Route(pattern, func(sub chi.Router) {
		fn(&chiRouter{mux: sub, app: r.app})
	})
}

func (r *chiRouter) Use(mw ...Middleware) {
	for _, m := range mw {
		r.mux.Use(r.app.toChi(m))
	}
}

func (r *chiRouter) handle(method, path string, h HandlerFunc, mw []Middleware) {
	// the first route middleware is the outermost
	for _, m := range slices.Backward(mw) {
		h = m(h)
	}
	r.mux.Method(method, path, r.app.toHTTP(h))
}

// toHTTP runs h with a fresh Context and routes its error to the error handler.
func (a *App) toHTTP(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		c := newContext(w, req, a.logger)
		if err := h(c); err != nil {
			a.handleError(c, err)
		}
	}
}

// toChi adapts mw to chi. The next handler receives the request held by the
// Context, so values and deadlines the middleware sets travel downstream.
func (a *App) toChi(mw Middleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return a.toHTTP(mw(func(c Context) error {
			next.ServeHTTP(c.Response(), c.Request())
			return nil
		}))
	}
}
