package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"

	defaultTimeout = 5 * time.Second
)

// CheckFunc reports whether a dependency is usable. db.Healthcheck,
// redis.Healthcheck and the storage Ping all have this shape.
type CheckFunc func(ctx context.Context) error

// Checks maps dependency names to their probes.
type Checks map[string]CheckFunc

// Report is the readiness body.
type Report struct {
	Checks map[string]Result `json:"checks,omitempty"`
	Status string            `json:"status"`
}

// Result is the outcome of one probe.
type Result struct {
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type config struct {
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures readiness probing.
type Option func(*config)

// WithTimeout bounds the whole probe round. Default: 5s.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger failed probes are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Run executes every check concurrently under one deadline.
func Run(ctx context.Context, checks Checks, opts ...Option) Report {
	cfg := config{timeout: defaultTimeout, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(checks) == 0 {
		return Report{Status: StatusHealthy}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		report = Report{Status: StatusHealthy, Checks: make(map[string]Result, len(checks))}
	)
	// a plain group: one failing probe must not cancel the others
	var g errgroup.Group
	for name, check := range checks {
		g.Go(func() error {
			start := time.Now()
			err := check(ctx)
			res := Result{Status: StatusHealthy, DurationMS: time.Since(start).Milliseconds()}
			if err != nil {
				res.Status = StatusUnhealthy
				res.Error = err.Error()
				cfg.logger.WarnContext(ctx, "readiness check failed",
					slog.String("check", name),
					slog.Any("error", err),
				)
			}

			mu.Lock()
			defer mu.Unlock()
			report.Checks[name] = res
			if err != nil {
				report.Status = StatusUnhealthy
			}
			return nil
		})
	}
	_ = g.Wait()
	return report
}
