package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// MigrationStatus describes one migration file and whether it is applied.
type MigrationStatus struct {
	AppliedAt time.Time `json:"applied_at,omitzero" yaml:"applied_at,omitempty"`
	Path      string    `json:"path" yaml:"path"`
	Version   int64     `json:"version" yaml:"version"`
	Applied   bool      `json:"applied" yaml:"applied"`
}

// Migrate applies pending migrations from migrations (a directory of goose
// SQL files at its root) and returns the versions applied in this run.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrations fs.FS, table string, log *slog.Logger) ([]int64, error) {
	provider, err := newProvider(pool, migrations, table)
	if err != nil {
		return nil, err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, errors.Join(ErrMigrate, err)
	}

	applied := make([]int64, 0, len(results))
	for _, r := range results {
		log.InfoContext(ctx, "migration applied",
			slog.Int64("version", r.Source.Version),
			slog.String("path", r.Source.Path),
			slog.Duration("duration", r.Duration),
		)
		applied = append(applied, r.Source.Version)
	}
	return applied, nil
}

// Status lists every known migration in version order.
func Status(ctx context.Context, pool *pgxpool.Pool, migrations fs.FS, table string) ([]MigrationStatus, error) {
	provider, err := newProvider(pool, migrations, table)
	if err != nil {
		return nil, err
	}

	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, errors.Join(ErrMigrationStatus, err)
	}

	out := make([]MigrationStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationStatus{
			AppliedAt: s.AppliedAt,
			Path:      s.Source.Path,
			Version:   s.Source.Version,
			Applied:   s.State == goose.StateApplied,
		})
	}
	return out, nil
}

func newProvider(pool *pgxpool.Pool, migrations fs.FS, table string) (*goose.Provider, error) {
	if pool == nil {
		return nil, ErrNotConfigured
	}
	if table == "" {
		table = "schema_migrations"
	}

	store, err := database.NewStore(database.DialectPostgres, table)
	if err != nil {
		return nil, errors.Join(ErrMigrate, err)
	}

	// shares the pool's connections; closing it would close the pool
	sqlDB := stdlib.OpenDBFromPool(pool)

	provider, err := goose.NewProvider("", sqlDB, migrations, goose.WithStore(store))
	if err != nil {
		return nil, fmt.Errorf("db migrator: %w", err)
	}
	return provider, nil
}
