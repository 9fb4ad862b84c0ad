package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bucketgate/internal/config"
	"github.com/dmitrymomot/bucketgate/pkg/logger"
)

func testConfig(t *testing.T, extra map[string]string) config.Config {
	t.Helper()
	environ := map[string]string{
		"S3_BUCKET_NAME":        "tenant-files",
		"S3_ENDPOINT":           "http://127.0.0.1:1",
		"S3_FORCE_PATH_STYLE":   "true",
		"JWT_SECRET":            testSecret,
		"AWS_ACCESS_KEY_ID":     "AKIAEXAMPLE",
		"AWS_SECRET_ACCESS_KEY": "aws-secret-value",
	}
	for k, v := range extra {
		environ[k] = v
	}
	cfg, err := config.LoadFrom(environ)
	require.NoError(t, err)
	return cfg
}

func newTestGateway(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	srv, err := buildServer(ctx, cfg, logger.NewNope())
	require.NoError(t, err)
	for _, start := range srv.startup {
		require.NoError(t, start(ctx))
	}
	t.Cleanup(func() { require.NoError(t, srv.close(ctx)) })

	ts := httptest.NewServer(srv.app)
	t.Cleanup(ts.Close)
	return ts
}

func TestBuildServer_Routes(t *testing.T) {
	t.Parallel()

	ts := newTestGateway(t, testConfig(t, nil))

	get := func(path string) *http.Response {
		t.Helper()
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	resp := get("/health/live")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get("/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get("/api/s3/objects")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var body struct {
		Error struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, resp.Header.Get("X-Request-ID"), body.Error.RequestID)

	resp = get("/api/nowhere")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBuildServer_CORS(t *testing.T) {
	t.Parallel()

	ts := newTestGateway(t, testConfig(t, map[string]string{
		"CORS_ORIGINS": "https://app.example.com",
	}))

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/s3/objects", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestBuildServer_InvalidStorage(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, map[string]string{"STORAGE_DRIVER": "gcs"})
	_, err := buildServer(context.Background(), cfg, logger.NewNope())
	require.Error(t, err)
}
