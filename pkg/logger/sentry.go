package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN         string `env:"SENTRY_DSN" yaml:"-"`
	Environment string `env:"SENTRY_ENVIRONMENT" envDefault:"production" yaml:"environment"`
	// MinLevel is WARN or ERROR. Errors always become issues; at WARN,
	// warnings such as tenant denials are kept as searchable logs.
	MinLevel slog.Level `env:"SENTRY_MIN_LEVEL" envDefault:"WARN" yaml:"min_level"`
}

// withSentry adds a Sentry handler next to base. Without a DSN, or when the
// client fails to start, base is returned alone.
func withSentry(base slog.Handler, cfg SentryConfig) slog.Handler {
	if cfg.DSN == "" {
		return base
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		EnableLogs:  true,
	})
	if err != nil {
		slog.New(base).Error("sentry disabled", slog.Any("error", err))
		return base
	}

	logLevels := []slog.Level{slog.LevelWarn, slog.LevelError}
	if cfg.MinLevel >= slog.LevelError {
		logLevels = logLevels[1:]
	}
	return fanout{base, sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevels,
	}.NewSentryHandler(context.Background())}
}

// Flush waits up to timeout for buffered Sentry events. It returns at once
// when Sentry is not configured.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}
