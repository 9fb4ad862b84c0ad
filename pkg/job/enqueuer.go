package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

// TaskKind is the River kind every job row is stored under. Rows are routed
// to handlers by their task name.
const TaskKind = "bucketgate:task"

type taskArgs struct {
	TaskName string          `json:"task_name"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

func (taskArgs) Kind() string { return TaskKind }

// EnqueueOption adjusts a single insert.
type EnqueueOption func(*river.InsertOpts)

// InQueue routes the job to a named queue. The queue needs workers on the
// Manager side, see WithQueue.
func InQueue(name string) EnqueueOption {
	return func(o *river.InsertOpts) {
		if name != "" {
			o.Queue = name
		}
	}
}

// MaxAttempts caps retries. River's default applies when n is not positive.
func MaxAttempts(n int) EnqueueOption {
	return func(o *river.InsertOpts) {
		if n > 0 {
			o.MaxAttempts = n
		}
	}
}

// Enqueuer inserts jobs without working them. Components that only produce
// jobs depend on it instead of the Manager, which would otherwise close a
// construction cycle with the tasks the Manager runs.
type Enqueuer struct {
	client *river.Client[pgx.Tx]
}

// NewEnqueuer creates an insert-only River client on pool.
func NewEnqueuer(pool *pgxpool.Pool, logger *slog.Logger) (*Enqueuer, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("job: create enqueuer: %w", err)
	}
	return &Enqueuer{client: client}, nil
}

// Enqueue inserts a job for the task called name. Payload is stored as JSON
// and decoded by the handler registered under the same name.
func (e *Enqueuer) Enqueue(ctx context.Context, name string, payload any, opts ...EnqueueOption) error {
	args, insert, err := newInsert(name, payload, opts)
	if err != nil {
		return err
	}
	if _, err := e.client.Insert(ctx, args, insert); err != nil {
		return fmt.Errorf("job: enqueue %s: %w", name, err)
	}
	return nil
}

func newInsert(name string, payload any, opts []EnqueueOption) (taskArgs, *river.InsertOpts, error) {
	args := taskArgs{TaskName: name}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return args, nil, errors.Join(ErrInvalidPayload, err)
		}
		args.Payload = raw
	}

	insert := &river.InsertOpts{}
	for _, opt := range opts {
		opt(insert)
	}
	return args, insert, nil
}
