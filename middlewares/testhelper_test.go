package middlewares_test

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrymomot/bucketgate/internal"
)

// testContext is a minimal internal.Context for exercising middleware in isolation.
type testContext struct {
	response *internal.ResponseWriter
	request  *http.Request
	values   map[any]any
	warnings []string
}

func newTestContext(w http.ResponseWriter, r *http.Request) *testContext {
	return &testContext{
		response: internal.NewResponseWriter(w),
		request:  r,
		values:   make(map[any]any),
	}
}

func (c *testContext) Request() *http.Request          { return c.request }
func (c *testContext) Response() http.ResponseWriter   { return c.response }
func (c *testContext) Context() context.Context        { return c.request.Context() }
func (c *testContext) SetContext(ctx context.Context)  { c.request = c.request.WithContext(ctx) }
func (c *testContext) Param(name string) string        { return "" }
func (c *testContext) Query(name string) string        { return c.request.URL.Query().Get(name) }
func (c *testContext) Header(name string) string       { return c.request.Header.Get(name) }
func (c *testContext) SetHeader(name, value string)    { c.response.Header().Set(name, value) }
func (c *testContext) NoContent(code int) error        { c.response.WriteHeader(code); return nil }
func (c *testContext) Written() bool                   { return c.response.Written() }
func (c *testContext) LogDebug(msg string, attrs ...any) {}
func (c *testContext) LogInfo(msg string, attrs ...any)  {}
func (c *testContext) LogWarn(msg string, attrs ...any)  { c.warnings = append(c.warnings, msg) }
func (c *testContext) LogError(msg string, attrs ...any) {}
func (c *testContext) Deadline() (time.Time, bool)     { return c.request.Context().Deadline() }
func (c *testContext) Done() <-chan struct{}           { return c.request.Context().Done() }
func (c *testContext) Err() error                      { return c.request.Context().Err() }
func (c *testContext) Value(key any) any               { return c.request.Context().Value(key) }

func (c *testContext) ResponseWriter() *internal.ResponseWriter {
	return c.response
}

func (c *testContext) JSON(code int, v any) error {
	c.response.Header().Set("Content-Type", "application/json")
	c.response.WriteHeader(code)
	return json.NewEncoder(c.response).Encode(v)
}

func (c *testContext) String(code int, s string) error {
	c.response.WriteHeader(code)
	_, err := c.response.Write([]byte(s))
	return err
}

func (c *testContext) BindJSON(v any) error {
	return json.NewDecoder(c.request.Body).Decode(v)
}

func (c *testContext) Set(key, value any) {
	c.values[key] = value
	// mirror into the request context for logger extractors
	ctx := context.WithValue(c.request.Context(), key, value)
	c.request = c.request.WithContext(ctx)
}

func (c *testContext) Get(key any) any {
	if v, ok := c.values[key]; ok {
		return v
	}
	return c.request.Context().Value(key)
}

var _ internal.Context = (*testContext)(nil)
