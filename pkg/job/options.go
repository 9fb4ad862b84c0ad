package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// handlerFunc runs one job. Payload is the raw JSON stored with the row.
type handlerFunc func(ctx context.Context, payload json.RawMessage) error

type schedule struct {
	name string
	spec string
	run  func(context.Context) error
}

type config struct {
	handlers   map[string]handlerFunc
	schedules  []schedule
	queues     map[string]int
	logger     *slog.Logger
	maxWorkers int
	err        error
}

func newConfig() *config {
	return &config{
		handlers: make(map[string]handlerFunc),
		queues:   make(map[string]int),
	}
}

func (c *config) register(name string, h handlerFunc) {
	if _, ok := c.handlers[name]; ok {
		c.err = errors.Join(c.err, fmt.Errorf("%w: %s", ErrDuplicateTask, name))
		return
	}
	c.handlers[name] = h
}

// Option configures a Manager.
type Option func(*config)

// WithTask registers a task that receives a typed payload. The payload type
// usually has to be given explicitly, e.g. WithTask[audit.Event](task).
func WithTask[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}](task T) Option {
	return func(c *config) {
		c.register(task.Name(), decode(task.Handle))
	}
}

// WithScheduledTask registers a task run on its cron Schedule. It takes no
// payload. The expression is checked by NewManager.
func WithScheduledTask[T interface {
	Name() string
	Schedule() string
	Handle(context.Context) error
}](task T) Option {
	return func(c *config) {
		c.schedules = append(c.schedules, schedule{
			name: task.Name(),
			spec: task.Schedule(),
			run:  task.Handle,
		})
		c.register(task.Name(), func(ctx context.Context, _ json.RawMessage) error {
			return task.Handle(ctx)
		})
	}
}

// WithQueue adds a named queue worked by n workers.
func WithQueue(name string, n int) Option {
	return func(c *config) {
		if name != "" && n > 0 {
			c.queues[name] = n
		}
	}
}

// WithMaxWorkers sets the worker count of the default queue.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// WithConfig applies environment settings. Options given after it win.
func WithConfig(cfg Config) Option {
	return func(c *config) {
		WithMaxWorkers(cfg.MaxWorkers)(c)
		for name, n := range cfg.Queues {
			WithQueue(name, n)(c)
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func decode[P any](handle func(context.Context, P) error) handlerFunc {
	return func(ctx context.Context, raw json.RawMessage) error {
		var payload P
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &payload); err != nil {
				return errors.Join(ErrInvalidPayload, err)
			}
		}
		return handle(ctx, payload)
	}
}
