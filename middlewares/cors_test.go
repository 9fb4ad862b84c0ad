package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bucketgate/internal"
	"github.com/dmitrymomot/bucketgate/middlewares"
)

func runCORS(t *testing.T, mw internal.Middleware, method, origin string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	req := httptest.NewRequest(method, "/api/s3/objects", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()

	reached := false
	err := mw(func(c internal.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})(newTestContext(rec, req))
	require.NoError(t, err)
	return rec, reached
}

func TestCORS(t *testing.T) {
	t.Parallel()

	t.Run("default configuration allows all origins", func(t *testing.T) {
		t.Parallel()
		rec, reached := runCORS(t, middlewares.CORS(), http.MethodGet, "http://example.com")
		require.True(t, reached)
		require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("no CORS headers without Origin", func(t *testing.T) {
		t.Parallel()
		rec, reached := runCORS(t, middlewares.CORS(), http.MethodGet, "")
		require.True(t, reached)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("specific origins are echoed", func(t *testing.T) {
		t.Parallel()
		mw := middlewares.CORS(middlewares.WithAllowOrigins("https://app.example.com"))

		rec, _ := runCORS(t, mw, http.MethodGet, "https://app.example.com")
		require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Contains(t, rec.Header().Values("Vary"), "Origin")

		rec, reached := runCORS(t, mw, http.MethodGet, "https://evil.example.com")
		require.True(t, reached)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("origin func overrides list", func(t *testing.T) {
		t.Parallel()
		mw := middlewares.CORS(
			middlewares.WithAllowOrigins("https://listed.example.com"),
			middlewares.WithAllowOriginFunc(func(origin string) bool {
				return strings.HasSuffix(origin, ".tenant.example.com")
			}),
		)

		rec, _ := runCORS(t, mw, http.MethodGet, "https://a.tenant.example.com")
		require.Equal(t, "https://a.tenant.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

		rec, _ = runCORS(t, mw, http.MethodGet, "https://listed.example.com")
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("credentials echo origin even with wildcard", func(t *testing.T) {
		t.Parallel()
		rec, _ := runCORS(t, middlewares.CORS(middlewares.WithAllowCredentials()), http.MethodGet, "https://app.example.com")
		require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		t.Parallel()
		mw := middlewares.CORS(
			middlewares.WithAllowMethods(http.MethodGet, http.MethodPut),
			middlewares.WithAllowHeaders("Authorization", "Content-Type"),
			middlewares.WithExposeHeaders("ETag", "X-Request-ID"),
			middlewares.WithMaxAge(time.Hour),
		)

		rec, reached := runCORS(t, mw, http.MethodOptions, "https://app.example.com")
		require.False(t, reached)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "GET, PUT", rec.Header().Get("Access-Control-Allow-Methods"))
		require.Equal(t, "Authorization, Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
		require.Equal(t, "ETag, X-Request-ID", rec.Header().Get("Access-Control-Expose-Headers"))
		require.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
	})
}
