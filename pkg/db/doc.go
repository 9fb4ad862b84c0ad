// Package db manages the PostgreSQL pool that backs audit persistence and
// the job queue.
//
//	pool, err := db.Connect(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	applied, err := db.Migrate(ctx, pool, migrations.FS, cfg.Database.MigrationsTable, log)
//
// Migrations are goose SQL files, usually embedded with the migrations
// package. Status reports which of them are applied.
//
// Connect retries with linear backoff (RetryAttempts, RetryInterval) and
// verifies the pool with a ping before returning it. Healthcheck plugs into
// the readiness endpoint.
package db
