package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bucketgate/pkg/health"
)

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("no checks is healthy", func(t *testing.T) {
		t.Parallel()
		r := health.Run(context.Background(), nil)
		require.Equal(t, health.StatusHealthy, r.Status)
		require.Empty(t, r.Checks)
	})

	t.Run("one failure marks the report unhealthy", func(t *testing.T) {
		t.Parallel()
		r := health.Run(context.Background(), health.Checks{
			"storage": func(context.Context) error { return nil },
			"db":      func(context.Context) error { return errors.New("connection refused") },
		})
		require.Equal(t, health.StatusUnhealthy, r.Status)
		require.Equal(t, health.StatusHealthy, r.Checks["storage"].Status)
		require.Equal(t, health.StatusUnhealthy, r.Checks["db"].Status)
		require.Equal(t, "connection refused", r.Checks["db"].Error)
	})

	t.Run("timeout bounds slow checks", func(t *testing.T) {
		t.Parallel()
		start := time.Now()
		r := health.Run(context.Background(), health.Checks{
			"redis": func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		}, health.WithTimeout(20*time.Millisecond))
		require.Less(t, time.Since(start), time.Second)
		require.Equal(t, health.StatusUnhealthy, r.Status)
		require.Contains(t, r.Checks["redis"].Error, "deadline exceeded")
	})
}

func TestHandlers(t *testing.T) {
	t.Parallel()

	t.Run("liveness", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		health.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	})

	t.Run("readiness failure is 503", func(t *testing.T) {
		t.Parallel()
		h := health.ReadinessHandler(health.Checks{
			"storage": func(context.Context) error { return errors.New("bucket missing") },
		})
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

		var report health.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		require.Equal(t, "bucket missing", report.Checks["storage"].Error)
	})

	t.Run("readiness success is 200", func(t *testing.T) {
		t.Parallel()
		h := health.ReadinessHandler(health.Checks{
			"storage": func(context.Context) error { return nil },
		})
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	})
}
