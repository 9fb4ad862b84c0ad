package middlewares

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/bucketgate/internal"
)

// DefaultCORSMaxAge is how long browsers may cache a preflight answer.
const DefaultCORSMaxAge = 12 * time.Hour

type corsConfig struct {
	origins     []string
	originFunc  func(origin string) bool
	methods     []string
	headers     []string
	expose      []string
	credentials bool
	maxAge      time.Duration
}

// CORSOption configures CORS.
type CORSOption func(*corsConfig)

// WithAllowOrigins lists the allowed origins. "*" allows any origin.
func WithAllowOrigins(origins ...string) CORSOption {
	return func(cfg *corsConfig) {
		if len(origins) > 0 {
			cfg.origins = origins
		}
	}
}

// WithAllowOriginFunc decides per origin. It takes precedence over the list.
func WithAllowOriginFunc(fn func(origin string) bool) CORSOption {
	return func(cfg *corsConfig) {
		cfg.originFunc = fn
	}
}

func WithAllowMethods(methods ...string) CORSOption {
	return func(cfg *corsConfig) {
		cfg.methods = methods
	}
}

func WithAllowHeaders(headers ...string) CORSOption {
	return func(cfg *corsConfig) {
		cfg.headers = headers
	}
}

func WithExposeHeaders(headers ...string) CORSOption {
	return func(cfg *corsConfig) {
		cfg.expose = headers
	}
}

// WithAllowCredentials makes the middleware echo the origin instead of "*".
func WithAllowCredentials() CORSOption {
	return func(cfg *corsConfig) {
		cfg.credentials = true
	}
}

func WithMaxAge(d time.Duration) CORSOption {
	return func(cfg *corsConfig) {
		cfg.maxAge = d
	}
}

// CORS answers preflight requests and tags cross-origin responses for browser
// clients of the gateway API. Requests from origins that are not allowed pass
// through untouched and the browser blocks them.
//
// Defaults allow any origin with the methods and headers the API uses, and
// expose X-Request-ID so clients can quote it.
func CORS(opts ...CORSOption) internal.Middleware {
	cfg := &corsConfig{
		origins: []string{"*"},
		methods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		headers: []string{"Authorization", "Content-Type", requestIDHeader},
		expose:  []string{requestIDHeader},
		maxAge:  DefaultCORSMaxAge,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	wildcard := slices.Contains(cfg.origins, "*")
	methods := strings.Join(cfg.methods, ", ")
	headers := strings.Join(cfg.headers, ", ")
	expose := strings.Join(cfg.expose, ", ")
	maxAge := strconv.Itoa(int(cfg.maxAge.Seconds()))

	allowed := func(origin string) bool {
		switch {
		case cfg.originFunc != nil:
			return cfg.originFunc(origin)
		case wildcard:
			return true
		default:
			return slices.Contains(cfg.origins, origin)
		}
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			origin := c.Header("Origin")
			if origin == "" || !allowed(origin) {
				return next(c)
			}

			h := c.Response().Header()
			h.Add("Vary", "Origin")
			if cfg.credentials || !wildcard {
				h.Set("Access-Control-Allow-Origin", origin)
			} else {
				h.Set("Access-Control-Allow-Origin", "*")
			}
			if cfg.credentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if expose != "" {
				h.Set("Access-Control-Expose-Headers", expose)
			}

			if c.Request().Method != http.MethodOptions {
				return next(c)
			}

			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			if cfg.maxAge > 0 {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			return c.NoContent(http.StatusNoContent)
		}
	}
}
