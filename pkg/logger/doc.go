// Package logger builds the gateway's slog loggers.
//
// NewFromConfig reads LOG_LEVEL and LOG_FORMAT. JSON is the default; "text"
// renders colored lines through charmbracelet/log for local runs and the
// maintenance commands.
//
//	log, err := logger.NewFromConfig(cfg.Log, os.Stdout,
//	    middlewares.RequestIDExtractor(),
//	    middlewares.TenantIDExtractor(),
//	)
//
// Extractors run on every call and add request-scoped attributes from the
// context passed to the *Context logging methods.
//
// Attributes named like credentials (secret_access_key, session_token,
// authorization, token, password) are replaced with [Redacted] at any depth.
//
// When SENTRY_DSN is set, errors also become Sentry issues and warnings are
// kept as Sentry logs. Call Flush before the process exits.
package logger
