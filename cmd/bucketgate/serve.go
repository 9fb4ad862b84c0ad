package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/bucketgate/internal"
	"github.com/dmitrymomot/bucketgate/internal/api"
	"github.com/dmitrymomot/bucketgate/internal/config"
	"github.com/dmitrymomot/bucketgate/middlewares"
	"github.com/dmitrymomot/bucketgate/pkg/audit"
	"github.com/dmitrymomot/bucketgate/pkg/awsclient"
	"github.com/dmitrymomot/bucketgate/pkg/cache"
	"github.com/dmitrymomot/bucketgate/pkg/credentials"
	"github.com/dmitrymomot/bucketgate/pkg/credentials/awsiam"
	"github.com/dmitrymomot/bucketgate/pkg/db"
	"github.com/dmitrymomot/bucketgate/pkg/gateway"
	"github.com/dmitrymomot/bucketgate/pkg/job"
	"github.com/dmitrymomot/bucketgate/pkg/jwt"
	"github.com/dmitrymomot/bucketgate/pkg/logger"
	"github.com/dmitrymomot/bucketgate/pkg/redis"
	"github.com/dmitrymomot/bucketgate/pkg/storage"
	"github.com/dmitrymomot/bucketgate/pkg/tenancy"
)

const (
	uploadPath         = "/api/s3/upload"
	sentryFlushTimeout = 2 * time.Second
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logger.NewFromConfig(cfg.Log, os.Stdout,
				middlewares.RequestIDExtractor(),
				middlewares.TenantIDExtractor(),
			)
			if err != nil {
				return err
			}
			defer logger.Flush(sentryFlushTimeout)

			ctx := cmd.Context()
			srv, err := buildServer(ctx, cfg, log)
			if err != nil {
				return err
			}
			return srv.app.Run(cfg.HTTP.Addr, srv.runOptions(ctx, cfg, log)...)
		},
	}
}

// server is the fully wired gateway plus everything that must be released
// when it stops.
type server struct {
	app      *internal.App
	startup  []func(context.Context) error
	shutdown []func(context.Context) error
}

func (s *server) runOptions(ctx context.Context, cfg config.Config, log *slog.Logger) []internal.RunOption {
	opts := []internal.RunOption{
		internal.WithContext(ctx),
		internal.Logger(log),
		internal.ShutdownTimeout(cfg.HTTP.ShutdownTimeout),
	}
	for _, fn := range s.startup {
		opts = append(opts, internal.StartupHook(fn))
	}
	for _, fn := range s.shutdown {
		opts = append(opts, internal.ShutdownHook(fn))
	}
	return opts
}

// close runs the shutdown hooks when the server never started.
func (s *server) close(ctx context.Context) error {
	var errs []error
	for _, fn := range s.shutdown {
		errs = append(errs, fn(ctx))
	}
	return errors.Join(errs...)
}

func buildServer(ctx context.Context, cfg config.Config, log *slog.Logger) (srv *server, err error) {
	srv = &server{}
	// shutdown hooks run in registration order, so dependencies are
	// registered before the components that use them and then reversed
	var releases []func(context.Context) error
	defer func() {
		for i, j := 0, len(releases)-1; i < j; i, j = i+1, j-1 {
			releases[i], releases[j] = releases[j], releases[i]
		}
		srv.shutdown = releases
		if err != nil {
			_ = srv.close(context.WithoutCancel(ctx))
			srv = nil
		}
	}()

	awsCfg, err := awsclient.Load(ctx, cfg.AWS)
	if err != nil {
		return srv, err
	}
	store, err := storage.Open(ctx, awsCfg, cfg.Storage)
	if err != nil {
		return srv, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := audit.NewMetricsSink(registry)
	if err != nil {
		return srv, err
	}

	checks := []internal.HealthOption{internal.WithReadinessCheck("storage", store.Ping)}

	var pool *pgxpool.Pool
	if cfg.DB.Enabled() {
		if pool, err = db.Connect(ctx, cfg.DB); err != nil {
			return srv, err
		}
		releases = append(releases, db.Shutdown(pool))
		checks = append(checks, internal.WithReadinessCheck("database", db.Healthcheck(pool)))
	}

	var principals cache.Cache[bool]
	if cfg.Redis.Enabled() {
		var client goredis.UniversalClient
		if client, err = redis.Open(ctx, cfg.Redis); err != nil {
			return srv, err
		}
		releases = append(releases, redis.Shutdown(client))
		checks = append(checks, internal.WithReadinessCheck("redis", redis.Healthcheck(client)))
		principals = cache.NewRedis[bool](client, nil, cache.WithRedisDefaultTTL(cfg.Credentials.PrincipalCacheTTL))
	}

	sinks := []audit.Sink{audit.NewLogSink(log), metrics}
	if pool != nil {
		enqueuer, eerr := job.NewEnqueuer(pool, log)
		if eerr != nil {
			return srv, eerr
		}
		fallback := audit.NewLogSink(log.With(slog.String("audit_delivery", "failed")))
		sinks = append(sinks, audit.NewJobSink(enqueuer, fallback,
			job.InQueue(cfg.Audit.Queue),
			job.MaxAttempts(cfg.Audit.MaxAttempts),
		))
	}
	sink := audit.NewAsync(audit.Multi(sinks...), audit.WithBuffer(cfg.Audit.Buffer))
	releases = append(releases, sink.Close)

	validatorOpts := []tenancy.ValidatorOption{tenancy.WithAuditSink(sink)}
	if cfg.HTTP.RejectDotSegments {
		validatorOpts = append(validatorOpts, tenancy.WithRejectDotSegments())
	}
	validator := tenancy.NewValidator(validatorOpts...)

	svc, err := gateway.NewService(store, validator, cfg.Gateway,
		gateway.WithAuditSink(sink),
		gateway.WithLogger(log),
	)
	if err != nil {
		return srv, err
	}

	issuerOpts := []credentials.Option{
		credentials.WithAuditSink(sink),
		credentials.WithLogger(log),
	}
	if principals != nil {
		issuerOpts = append(issuerOpts, credentials.WithPrincipalCache(principals))
	}
	issuer, err := credentials.NewIssuer(
		awsiam.NewTokenService(awsCfg),
		awsiam.NewIdentityService(awsCfg),
		cfg.Credentials,
		issuerOpts...,
	)
	if err != nil {
		return srv, err
	}
	releases = append(releases, func(context.Context) error { return issuer.Close() })

	tokens, err := jwt.New(cfg.JWT)
	if err != nil {
		return srv, err
	}
	auth := middlewares.JWT(tokens)

	httpMetrics, err := middlewares.Metrics(registry)
	if err != nil {
		return srv, err
	}

	sweep := gateway.NewSweepTask(svc, cfg.Sweep.Schedule, cfg.Sweep.MaxAge, log)
	appOpts := []internal.Option{
		internal.WithLogger(log),
		internal.WithMiddleware(
			httpMetrics,
			middlewares.RequestID(),
			middlewares.Recover(),
			middlewares.CORS(middlewares.WithAllowOrigins(cfg.HTTP.CORSOrigins...)),
			middlewares.Timeout(cfg.HTTP.RequestTimeout, middlewares.WithTimeoutSkipper(func(c internal.Context) bool {
				// uploads are bounded by UPLOAD_TIMEOUT inside the gateway
				return c.Request().URL.Path == uploadPath
			})),
		),
		internal.WithErrorHandler(api.ErrorHandler),
		internal.WithNotFoundHandler(api.NotFound),
		internal.WithMethodNotAllowedHandler(api.MethodNotAllowed),
		internal.WithMount(cfg.HTTP.MetricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
		internal.WithHandlers(
			api.NewStorage(svc, auth),
			api.NewCredentials(issuer, auth),
		),
	}

	if pool != nil {
		jobs, jerr := job.NewManager(pool,
			job.WithConfig(cfg.Jobs),
			job.WithLogger(log),
			job.WithQueue(cfg.Audit.Queue, cfg.Audit.QueueWorkers),
			job.WithTask[audit.Event](audit.NewPersistTask(audit.NewStore(pool), log)),
			job.WithScheduledTask(sweep),
		)
		if jerr != nil {
			return srv, jerr
		}
		appOpts = append(appOpts, internal.WithJobs(jobs))
		checks = append(checks, internal.WithReadinessCheck("jobs", job.Healthcheck(jobs)))
	} else {
		start, stop, cerr := localSchedule(ctx, sweep, log)
		if cerr != nil {
			return srv, cerr
		}
		srv.startup = append(srv.startup, start)
		releases = append(releases, stop)
	}

	appOpts = append(appOpts, internal.WithHealthChecks(checks...))
	srv.app = internal.New(appOpts...)
	return srv, nil
}

type scheduledTask interface {
	Name() string
	Schedule() string
	Handle(context.Context) error
}

// localSchedule runs task in process when there is no job queue to own it.
// With several replicas each one sweeps; aborting an upload twice is harmless.
func localSchedule(ctx context.Context, task scheduledTask, log *slog.Logger) (start, stop func(context.Context) error, err error) {
	c := cron.New(cron.WithLogger(cron.DiscardLogger), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	base := context.WithoutCancel(ctx)
	_, err = c.AddFunc(task.Schedule(), func() {
		if err := task.Handle(base); err != nil {
			log.ErrorContext(base, "scheduled task failed",
				slog.String("task", task.Name()),
				slog.Any("error", err),
			)
		}
	})
	if err != nil {
		return nil, nil, err
	}

	start = func(context.Context) error {
		c.Start()
		return nil
	}
	stop = func(ctx context.Context) error {
		select {
		case <-c.Stop().Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return start, stop, nil
}
