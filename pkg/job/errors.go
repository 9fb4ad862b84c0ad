package job

import "errors"

var (
	ErrPoolRequired      = errors.New("job: pool is required")
	ErrUnknownTask       = errors.New("job: unknown task")
	ErrDuplicateTask     = errors.New("job: task registered twice")
	ErrInvalidPayload    = errors.New("job: invalid payload")
	ErrAlreadyStarted    = errors.New("job: already started")
	ErrNotStarted        = errors.New("job: not started")
	ErrHealthcheckFailed = errors.New("job: healthcheck failed")
)
