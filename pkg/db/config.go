package db

import "time"

// Config holds PostgreSQL pool settings. An empty ConnectionString disables
// persistence: audit events are only logged and background jobs do not run.
type Config struct {
	ConnectionString string `env:"DATABASE_CONN_URL" yaml:"-"`
	MigrationsTable  string `env:"DATABASE_MIGRATIONS_TABLE" envDefault:"schema_migrations" yaml:"migrations_table"`

	HealthCheckPeriod time.Duration `env:"DATABASE_HEALTHCHECK_PERIOD" envDefault:"1m" yaml:"healthcheck_period"`
	// Recycled so connections survive failovers and PgBouncer restarts.
	MaxConnIdleTime time.Duration `env:"DATABASE_MAX_CONN_IDLE_TIME" envDefault:"10m" yaml:"max_conn_idle_time"`
	MaxConnLifetime time.Duration `env:"DATABASE_MAX_CONN_LIFETIME" envDefault:"30m" yaml:"max_conn_lifetime"`

	// Attempt n waits n*RetryInterval before the next one.
	RetryAttempts int           `env:"DATABASE_RETRY_ATTEMPTS" envDefault:"3" yaml:"retry_attempts"`
	RetryInterval time.Duration `env:"DATABASE_RETRY_INTERVAL" envDefault:"5s" yaml:"retry_interval"`

	MaxOpenConns int32 `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"10" yaml:"max_open_conns"`
	MinConns     int32 `env:"DATABASE_MIN_CONNS" envDefault:"2" yaml:"min_conns"`
}

// Enabled reports whether a database is configured.
func (c Config) Enabled() bool {
	return c.ConnectionString != ""
}
