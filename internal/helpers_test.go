package internal_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bucketgate/internal"
)

func withContext(t *testing.T, target string, fn func(c internal.Context)) {
	t.Helper()
	app := internal.New(internal.WithHandlers(&routeHandler{
		path: "/{n}",
		fn: func(c internal.Context) error {
			fn(c)
			return c.NoContent(http.StatusOK)
		},
	}))
	w := serve(t, app, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestQueryCount(t *testing.T) {
	t.Parallel()

	withContext(t, "/1?max_keys=250&limit=5000000000&neg=-1&bad=ten", func(c internal.Context) {
		n, err := internal.QueryCount[int32](c, "max_keys")
		require.NoError(t, err)
		require.EqualValues(t, 250, n)

		n, err = internal.QueryCount[int32](c, "missing")
		require.NoError(t, err)
		require.Zero(t, n)

		_, err = internal.QueryCount[int32](c, "limit")
		require.Error(t, err)
		big, err := internal.QueryCount[int64](c, "limit")
		require.NoError(t, err)
		require.EqualValues(t, 5_000_000_000, big)

		for _, name := range []string{"neg", "bad"} {
			_, err := internal.QueryCount[int](c, name)
			httpErr := internal.AsHTTPError(err)
			require.NotNil(t, httpErr, name)
			require.Equal(t, http.StatusBadRequest, httpErr.StatusCode())
			require.Contains(t, httpErr.Message, name)
		}
	})
}

type tenantKey struct{}

func TestValue(t *testing.T) {
	t.Parallel()

	withContext(t, "/1", func(c internal.Context) {
		require.Empty(t, internal.Value[string](c, tenantKey{}))
		c.Set(tenantKey{}, "tenant-1")
		require.Equal(t, "tenant-1", internal.Value[string](c, tenantKey{}))
		require.Zero(t, internal.Value[int](c, tenantKey{}))
	})
}
