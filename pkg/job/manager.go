package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
)

const defaultMaxWorkers = 10

// Manager works the jobs of registered tasks and fires scheduled ones.
// It can enqueue before Start; rows wait in Postgres until workers run.
type Manager struct {
	Enqueuer

	pool     *pgxpool.Pool
	handlers map[string]handlerFunc
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
}

// NewManager builds the River client with one worker serving every task.
func NewManager(pool *pgxpool.Pool, opts ...Option) (*Manager, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.err != nil {
		return nil, cfg.err
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.maxWorkers == 0 {
		cfg.maxWorkers = defaultMaxWorkers
	}

	queues := map[string]river.QueueConfig{
		river.QueueDefault: {MaxWorkers: cfg.maxWorkers},
	}
	for name, n := range cfg.queues {
		queues[name] = river.QueueConfig{MaxWorkers: n}
	}

	periodic := make([]*river.PeriodicJob, 0, len(cfg.schedules))
	for _, s := range cfg.schedules {
		when, err := parseCronSchedule(s.spec)
		if err != nil {
			return nil, fmt.Errorf("job: schedule of %s %q: %w", s.name, s.spec, err)
		}
		args := taskArgs{TaskName: s.name}
		periodic = append(periodic, river.NewPeriodicJob(when,
			func() (river.JobArgs, *river.InsertOpts) { return args, nil },
			&river.PeriodicJobOpts{},
		))
	}

	m := &Manager{
		pool:     pool,
		handlers: cfg.handlers,
		logger:   cfg.logger,
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &taskWorker{manager: m})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:       queues,
		Workers:      workers,
		PeriodicJobs: periodic,
		ErrorHandler: &errorHandler{logger: cfg.logger},
		Logger:       cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("job: create client: %w", err)
	}
	m.client = client
	return m, nil
}

// Enqueue rejects names with no registered handler, then inserts the job.
func (m *Manager) Enqueue(ctx context.Context, name string, payload any, opts ...EnqueueOption) error {
	if _, ok := m.handlers[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return m.Enqueuer.Enqueue(ctx, name, payload, opts...)
}

func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}
	if err := m.client.Start(ctx); err != nil {
		return fmt.Errorf("job: start: %w", err)
	}
	m.started = true
	m.logger.Info("job manager started", slog.Int("tasks", len(m.handlers)))
	return nil
}

// Stop waits for running jobs until ctx expires.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return ErrNotStarted
	}
	if err := m.client.Stop(ctx); err != nil {
		return fmt.Errorf("job: stop: %w", err)
	}
	m.started = false
	m.logger.Info("job manager stopped")
	return nil
}

// StartFunc and Shutdown adapt the manager to server lifecycle hooks.
func (m *Manager) StartFunc() func(context.Context) error { return m.Start }
func (m *Manager) Shutdown() func(context.Context) error  { return m.Stop }

func (m *Manager) running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Healthcheck reports the manager unhealthy until it starts, and whenever
// Postgres is unreachable.
func Healthcheck(m *Manager) func(context.Context) error {
	return func(ctx context.Context) error {
		switch {
		case m == nil:
			return errors.Join(ErrHealthcheckFailed, errors.New("job: no manager"))
		case !m.running():
			return errors.Join(ErrHealthcheckFailed, ErrNotStarted)
		}
		if err := m.pool.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

type taskWorker struct {
	river.WorkerDefaults[taskArgs]
	manager *Manager
}

func (w *taskWorker) Work(ctx context.Context, j *river.Job[taskArgs]) error {
	return w.manager.run(ctx, j.Args, slog.Int64("job_id", j.ID), slog.Int("attempt", j.Attempt))
}

// run dispatches one job to its handler. A failed run is returned to River,
// which retries it with backoff until attempts run out.
func (m *Manager) run(ctx context.Context, args taskArgs, attrs ...slog.Attr) error {
	h, ok := m.handlers[args.TaskName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, args.TaskName)
	}

	start := time.Now()
	err := h(ctx, args.Payload)
	log := m.logger.With(slog.String("task", args.TaskName), slog.Duration("took", time.Since(start)))
	for _, a := range attrs {
		log = log.With(a)
	}
	if err != nil {
		log.ErrorContext(ctx, "task failed", slog.Any("error", err))
		return err
	}
	log.DebugContext(ctx, "task completed")
	return nil
}

// errorHandler cancels jobs no handler can serve and reports jobs that ran
// out of attempts or panicked. Other failures are left to River's retries.
type errorHandler struct {
	logger *slog.Logger
}

func (h *errorHandler) HandleError(ctx context.Context, row *rivertype.JobRow, err error) *river.ErrorHandlerResult {
	if errors.Is(err, ErrUnknownTask) {
		h.logger.ErrorContext(ctx, "job cancelled", rowAttrs(row, err)...)
		return &river.ErrorHandlerResult{SetCancelled: true}
	}
	if row.Attempt >= row.MaxAttempts {
		h.logger.ErrorContext(ctx, "job discarded after final attempt", rowAttrs(row, err)...)
	}
	return nil
}

func (h *errorHandler) HandlePanic(ctx context.Context, row *rivertype.JobRow, panicVal any, trace string) *river.ErrorHandlerResult {
	h.logger.ErrorContext(ctx, "job panicked",
		append(rowAttrs(row, fmt.Errorf("panic: %v", panicVal)), slog.String("stack", trace))...)
	return nil
}

func rowAttrs(row *rivertype.JobRow, err error) []any {
	return []any{
		slog.Int64("job_id", row.ID),
		slog.String("queue", row.Queue),
		slog.Int("attempt", row.Attempt),
		slog.Int("max_attempts", row.MaxAttempts),
		slog.Any("error", err),
	}
}
