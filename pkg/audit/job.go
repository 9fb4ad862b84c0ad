package audit

import (
	"context"
	"log/slog"
	"maps"

	"github.com/dmitrymomot/bucketgate/pkg/job"
)

// PersistTaskName is the job task that writes an event to the Store.
const PersistTaskName = "audit.persist"

// Enqueuer is the subset of job.Manager used by JobSink.
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, payload any, opts ...job.EnqueueOption) error
}

// JobSink hands events to the background job queue for durable persistence.
// When enqueueing fails the event goes to the fallback sink instead of being lost silently.
type JobSink struct {
	enqueuer Enqueuer
	fallback Sink
	opts     []job.EnqueueOption
}

// NewJobSink creates a sink enqueuing PersistTaskName jobs.
func NewJobSink(e Enqueuer, fallback Sink, opts ...job.EnqueueOption) *JobSink {
	return &JobSink{
		enqueuer: e,
		fallback: OrNop(fallback),
		opts:     opts,
	}
}

func (s *JobSink) Emit(ctx context.Context, e Event) {
	if err := s.enqueuer.Enqueue(ctx, PersistTaskName, e, s.opts...); err != nil {
		details := maps.Clone(e.Details)
		if details == nil {
			details = make(map[string]any, 1)
		}
		details["delivery_error"] = err.Error()
		e.Details = details
		s.fallback.Emit(ctx, e)
	}
}

// PersistTask is the job handler paired with JobSink.
type PersistTask struct {
	store  *Store
	logger *slog.Logger
}

// NewPersistTask creates the persistence task for registration with job.WithTask.
func NewPersistTask(store *Store, logger *slog.Logger) *PersistTask {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersistTask{store: store, logger: logger}
}

func (t *PersistTask) Name() string { return PersistTaskName }

func (t *PersistTask) Handle(ctx context.Context, e Event) error {
	if err := t.store.Insert(ctx, e); err != nil {
		t.logger.ErrorContext(ctx, "failed to persist audit event",
			slog.String("event_id", e.ID),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}
