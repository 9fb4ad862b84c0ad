package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotConfigured means DATABASE_URL is empty. The gateway then runs
	// without durable audit storage and without the job queue.
	ErrNotConfigured   = errors.New("db: database is not configured")
	ErrInvalidConfig   = errors.New("db: invalid database configuration")
	ErrUnreachable     = errors.New("db: database unreachable")
	ErrUnhealthy       = errors.New("db: healthcheck failed")
	ErrMigrate         = errors.New("db: migration failed")
	ErrMigrationStatus = errors.New("db: failed to read migration status")
)

// Healthcheck pings the pool for the readiness endpoint.
func Healthcheck(pool *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		if pool == nil {
			return errors.Join(ErrUnhealthy, ErrNotConfigured)
		}
		if err := pool.Ping(ctx); err != nil {
			return errors.Join(ErrUnhealthy, err)
		}
		return nil
	}
}

// Shutdown closes the pool as a server shutdown hook. Close waits for
// acquired connections to be released.
func Shutdown(pool *pgxpool.Pool) func(context.Context) error {
	return func(context.Context) error {
		pool.Close()
		return nil
	}
}
