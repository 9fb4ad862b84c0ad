package main

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/bucketgate/internal/config"
	"github.com/dmitrymomot/bucketgate/pkg/db"
	"github.com/dmitrymomot/bucketgate/pkg/logger"
)

var errNoDatabase = errors.New("DATABASE_CONN_URL is not set")

// openDatabase connects for one-shot commands. The returned close func is
// always safe to call.
func openDatabase(ctx context.Context) (*pgxpool.Pool, db.Config, func(), error) {
	cfg, err := config.Section[db.Config]()
	if err != nil {
		return nil, cfg, func() {}, err
	}
	if !cfg.Enabled() {
		return nil, cfg, func() {}, errNoDatabase
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, cfg, func() {}, err
	}
	return pool, cfg, pool.Close, nil
}

// commandLogger writes human readable logs for one-shot commands.
func commandLogger(w io.Writer) *slog.Logger {
	cfg, err := config.Section[logger.Config]()
	if err != nil {
		cfg = logger.Config{Level: "info"}
	}
	cfg.Format = logger.FormatText
	cfg.Sentry.DSN = ""
	log, err := logger.NewFromConfig(cfg, w)
	if err != nil {
		return logger.NewNope()
	}
	return log
}
