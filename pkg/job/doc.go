// Package job runs background tasks on River, a Postgres-backed queue.
//
// Every job is stored under a single River kind and dispatched by task name
// to a handler registered on the Manager. Two shapes of task are supported.
//
// Typed tasks receive a JSON payload:
//
//	type PersistTask struct{ store *audit.Store }
//
//	func (t *PersistTask) Name() string { return "audit.persist" }
//	func (t *PersistTask) Handle(ctx context.Context, e audit.Event) error {
//	    return t.store.Insert(ctx, e)
//	}
//
// Scheduled tasks take no payload and run on a cron expression
// (5 fields, or a descriptor such as "@hourly"):
//
//	func (t *SweepTask) Schedule() string { return "0 * * * *" }
//	func (t *SweepTask) Handle(ctx context.Context) error { ... }
//
// # Setup
//
//	if _, err := job.Migrate(ctx, pool); err != nil {
//	    return err
//	}
//
//	manager, err := job.NewManager(pool,
//	    job.WithConfig(cfg.Jobs),
//	    job.WithTask[audit.Event](audit.NewPersistTask(store, log)),
//	    job.WithScheduledTask(gateway.NewSweepTask(svc, "0 * * * *", 24*time.Hour, log)),
//	    job.WithLogger(log),
//	)
//
// Jobs may be enqueued before Start. Pass the manager to internal.WithJobs so
// it starts with the server and drains on shutdown.
//
// # Enqueueing
//
//	err := manager.Enqueue(ctx, "audit.persist", event,
//	    job.InQueue("audit"),
//	    job.MaxAttempts(5),
//	)
//
// Producers that must not depend on the Manager, such as the audit JobSink,
// use NewEnqueuer for an insert-only client on the same pool.
//
// # Health Checks
//
//	internal.WithHealthChecks(
//	    internal.WithReadinessCheck("jobs", job.Healthcheck(manager)),
//	)
//
// # Errors
//
//   - [ErrPoolRequired] - NewManager or Migrate was given a nil pool
//   - [ErrUnknownTask] - Task name not registered
//   - [ErrDuplicateTask] - Two tasks share a name
//   - [ErrInvalidPayload] - Payload deserialization failed
//   - [ErrAlreadyStarted] - Manager already running
//   - [ErrNotStarted] - Manager not running
//   - [ErrHealthcheckFailed] - Health check failed
package job
