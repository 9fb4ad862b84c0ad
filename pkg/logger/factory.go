package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config selects the log level and format.
// Text output is meant for terminals during development.
type Config struct {
	Level  string       `env:"LOG_LEVEL" envDefault:"info" yaml:"level"`
	Format string       `env:"LOG_FORMAT" envDefault:"json" yaml:"format"`
	Sentry SentryConfig `yaml:"sentry"`
}

// NewFromConfig builds a logger writing to w, fanning out to Sentry when a
// DSN is configured. Extractors and secret redaction apply to both outputs.
func NewFromConfig(cfg Config, w io.Writer, extractors ...ContextExtractor) (*slog.Logger, error) {
	h, err := newHandler(cfg, w)
	if err != nil {
		return nil, err
	}
	return slog.New(newContextHandler(withSentry(h, cfg.Sentry), extractors...)), nil
}

// NewNope returns a logger that discards everything.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newHandler(cfg Config, w io.Writer) (slog.Handler, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.Format) {
	case "", FormatJSON:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}), nil
	case FormatText:
		return charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(level),
			TimeFormat:      time.RFC3339,
			ReportTimestamp: true,
			TimeFunction:    charmlog.NowUTC,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, cfg.Format)
	}
}

// ParseLevel accepts debug, info, warn or error in any case. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, s)
	}
	return level, nil
}
