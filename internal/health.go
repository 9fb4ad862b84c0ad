package internal

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/bucketgate/pkg/health"
)

const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
}

// HealthOption configures the health endpoints.
type HealthOption func(*healthConfig)

// WithHealthChecks serves a liveness probe, which only proves the process
// answers, and a readiness probe, which runs every registered check.
// Both sit outside the /api routes and need no token.
//
//	internal.WithHealthChecks(
//	    internal.WithReadinessCheck("storage", store.Ping),
//	    internal.WithReadinessCheck("database", db.Healthcheck(pool)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		cfg := &healthConfig{
			checks:        make(health.Checks),
			livenessPath:  defaultLivenessPath,
			readinessPath: defaultReadinessPath,
		}
		for _, opt := range opts {
			opt(cfg)
		}
		a.healthConfig = cfg
	}
}

func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck registers fn under name. Checks run concurrently on
// each probe; a later check with the same name replaces the earlier one.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if fn != nil {
			c.checks[name] = fn
		}
	}
}

func (c *healthConfig) mount(r chi.Router, log *slog.Logger) {
	r.Get(c.livenessPath, health.LivenessHandler())
	r.Get(c.readinessPath, health.ReadinessHandler(c.checks, health.WithLogger(log)))
}
