package gateway

import (
	"context"
	"log/slog"
	"time"
)

// SweepTaskName identifies the stale multipart sweep in the job queue.
const SweepTaskName = "gateway.sweep_stale_uploads"

// SweepTask periodically aborts abandoned multipart uploads.
// Register it with job.WithScheduledTask.
type SweepTask struct {
	svc      *Service
	logger   *slog.Logger
	schedule string
	maxAge   time.Duration
}

// NewSweepTask creates the sweep. schedule is a 5-field cron expression.
func NewSweepTask(svc *Service, schedule string, maxAge time.Duration, logger *slog.Logger) *SweepTask {
	if logger == nil {
		logger = slog.Default()
	}
	return &SweepTask{svc: svc, schedule: schedule, maxAge: maxAge, logger: logger}
}

func (t *SweepTask) Name() string     { return SweepTaskName }
func (t *SweepTask) Schedule() string { return t.schedule }

func (t *SweepTask) Handle(ctx context.Context) error {
	aborted, err := t.svc.AbortStaleUploads(ctx, t.maxAge)
	if aborted > 0 || err != nil {
		t.logger.InfoContext(ctx, "stale multipart sweep finished",
			slog.Int("aborted", aborted),
			slog.Duration("max_age", t.maxAge),
			slog.Any("error", err),
		)
	}
	return err
}
