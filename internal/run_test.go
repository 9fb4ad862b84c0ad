package internal_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bucketgate/internal"
)

func TestAppRun(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var started, stopped atomic.Bool
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := internal.New(internal.WithHealthChecks())
	done := make(chan error, 1)
	go func() {
		done <- app.Run(ln.Addr().String(),
			internal.WithListener(ln),
			internal.WithContext(ctx),
			internal.ShutdownTimeout(5*time.Second),
			internal.StartupHook(func(context.Context) error {
				started.Store(true)
				return nil
			}),
			internal.ShutdownHook(func(context.Context) error {
				stopped.Store(true)
				return nil
			}),
		)
	}()

	url := "http://" + ln.Addr().String() + "/health/live"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) //nolint:noctx
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)
	require.True(t, started.Load())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
	require.True(t, stopped.Load())
}

func TestAppRun_StartupHookFails(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	hookErr := errors.New("migrations pending")
	err = internal.New().Run(ln.Addr().String(),
		internal.WithListener(ln),
		internal.StartupHook(func(context.Context) error { return hookErr }),
	)
	require.ErrorIs(t, err, hookErr)
}

func TestAppRun_ShutdownHookError(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	hookErr := errors.New("close pool")
	err = internal.New().Run(ln.Addr().String(),
		internal.WithListener(ln),
		internal.WithContext(ctx),
		internal.ShutdownHook(func(context.Context) error { return hookErr }),
	)
	require.ErrorIs(t, err, hookErr)
}
