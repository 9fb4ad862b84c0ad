package internal_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bucketgate/internal"
)

// routeHandler registers a single route for tests.
type routeHandler struct {
	method string
	path   string
	fn     internal.HandlerFunc
	mw     []internal.Middleware
}

func (h *routeHandler) Routes(r internal.Router) {
	switch h.method {
	case http.MethodPost:
		r.POST(h.path, h.fn, h.mw...)
	case http.MethodPut:
		r.PUT(h.path, h.fn, h.mw...)
	case http.MethodDelete:
		r.DELETE(h.path, h.fn, h.mw...)
	default:
		r.GET(h.path, h.fn, h.mw...)
	}
}

func serve(t *testing.T, app *internal.App, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func TestAppRouting(t *testing.T) {
	t.Parallel()

	app := internal.New(internal.WithHandlers(&routeHandler{
		method: http.MethodGet,
		path:   "/items/{id}",
		fn: func(c internal.Context) error {
			return c.JSON(http.StatusOK, map[string]string{"id": c.Param("id")})
		},
	}))

	w := serve(t, app, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"id":"42"}`, w.Body.String())
	require.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	w = serve(t, app, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAppErrorHandling(t *testing.T) {
	t.Parallel()

	failing := func(err error) *routeHandler {
		return &routeHandler{path: "/", fn: func(internal.Context) error { return err }}
	}

	t.Run("default handler renders HTTPError status", func(t *testing.T) {
		t.Parallel()
		app := internal.New(internal.WithHandlers(failing(internal.ErrForbidden("nope"))))
		w := serve(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusForbidden, w.Code)
		require.Contains(t, w.Body.String(), "nope")
	})

	t.Run("default handler hides plain errors", func(t *testing.T) {
		t.Parallel()
		app := internal.New(internal.WithHandlers(failing(errors.New("db password leaked"))))
		w := serve(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.NotContains(t, w.Body.String(), "password")
	})

	t.Run("custom handler", func(t *testing.T) {
		t.Parallel()
		var got error
		app := internal.New(
			internal.WithHandlers(failing(errors.New("boom"))),
			internal.WithErrorHandler(func(c internal.Context, err error) error {
				got = err
				return c.String(http.StatusTeapot, "custom")
			}),
		)
		w := serve(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusTeapot, w.Code)
		require.EqualError(t, got, "boom")
	})

	t.Run("error after write is dropped", func(t *testing.T) {
		t.Parallel()
		called := false
		app := internal.New(
			internal.WithHandlers(&routeHandler{path: "/", fn: func(c internal.Context) error {
				_ = c.NoContent(http.StatusAccepted)
				return errors.New("late")
			}}),
			internal.WithErrorHandler(func(internal.Context, error) error {
				called = true
				return nil
			}),
		)
		w := serve(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusAccepted, w.Code)
		require.False(t, called)
	})

	t.Run("not found and method not allowed handlers", func(t *testing.T) {
		t.Parallel()
		app := internal.New(
			internal.WithHandlers(&routeHandler{path: "/only-get", fn: func(c internal.Context) error {
				return c.NoContent(http.StatusOK)
			}}),
			internal.WithNotFoundHandler(func(c internal.Context) error {
				return c.String(http.StatusNotFound, "custom 404")
			}),
			internal.WithMethodNotAllowedHandler(func(c internal.Context) error {
				return c.String(http.StatusMethodNotAllowed, "custom 405")
			}),
		)

		w := serve(t, app, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
		require.Equal(t, "custom 404", w.Body.String())

		w = serve(t, app, httptest.NewRequest(http.MethodPost, "/only-get", nil))
		require.Equal(t, http.StatusMethodNotAllowed, w.Code)
		require.Equal(t, "custom 405", w.Body.String())
	})
}

type ctxKey struct{}

func TestMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var trace []string
	mark := func(name string) internal.Middleware {
		return func(next internal.HandlerFunc) internal.HandlerFunc {
			return func(c internal.Context) error {
				trace = append(trace, name)
				return next(c)
			}
		}
	}
	setValue := func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			c.Set(ctxKey{}, "from-middleware")
			return next(c)
		}
	}

	app := internal.New(
		internal.WithMiddleware(mark("global-1"), mark("global-2"), setValue),
		internal.WithHandlers(&routeHandler{
			path: "/",
			mw:   []internal.Middleware{mark("route-1"), mark("route-2")},
			fn: func(c internal.Context) error {
				trace = append(trace, "handler")
				return c.String(http.StatusOK, internal.Value[string](c, ctxKey{}))
			},
		}),
	)

	w := serve(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "from-middleware", w.Body.String())
	require.Equal(t, []string{"global-1", "global-2", "route-1", "route-2", "handler"}, trace)
}

func TestMiddlewareErrorShortCircuits(t *testing.T) {
	t.Parallel()

	deny := func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			return internal.ErrUnauthorized("no token")
		}
	}
	reached := false
	app := internal.New(
		internal.WithMiddleware(deny),
		internal.WithHandlers(&routeHandler{path: "/", fn: func(c internal.Context) error {
			reached = true
			return nil
		}}),
	)

	w := serve(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.False(t, reached)
}

func TestHealthChecks(t *testing.T) {
	t.Parallel()

	app := internal.New(internal.WithHealthChecks(
		internal.WithReadinessCheck("ok", func(context.Context) error { return nil }),
		internal.WithReadinessCheck("storage", func(context.Context) error { return errors.New("bucket unreachable") }),
	))

	w := serve(t, app, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(t, app, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	custom := internal.New(internal.WithHealthChecks(
		internal.WithLivenessPath("/livez"),
		internal.WithReadinessPath("/readyz"),
	))
	w = serve(t, custom, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	w = serve(t, custom, httptest.NewRequest(http.MethodGet, "/livez", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestWithMount(t *testing.T) {
	t.Parallel()

	app := internal.New(internal.WithMount("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("metrics"))
	})))

	w := serve(t, app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.HasPrefix(w.Body.String(), "metrics"))
}

func TestRouteGroups(t *testing.T) {
	t.Parallel()

	app := internal.New(internal.WithHandlers(groupHandler{}))

	w := serve(t, app, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "grouped", w.Header().Get("X-Group"))

	w = serve(t, app, httptest.NewRequest(http.MethodDelete, "/api/ping", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
}

type groupHandler struct{}

func (groupHandler) Routes(r internal.Router) {
	r.Route("/api", func(r internal.Router) {
		r.Use(func(next internal.HandlerFunc) internal.HandlerFunc {
			return func(c internal.Context) error {
				c.SetHeader("X-Group", "grouped")
				return next(c)
			}
		})
		r.GET("/ping", func(c internal.Context) error { return c.String(http.StatusOK, "pong") })
		r.DELETE("/ping", func(c internal.Context) error { return c.NoContent(http.StatusNoContent) })
	})
}
