// Package config loads the gateway configuration from the environment.
//
// Each component owns its settings (storage.Config, credentials.Config, ...)
// and declares them with env tags; Config only nests them and adds the
// process-level settings no single package owns.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/bucketgate/pkg/awsclient"
	"github.com/dmitrymomot/bucketgate/pkg/credentials"
	"github.com/dmitrymomot/bucketgate/pkg/db"
	"github.com/dmitrymomot/bucketgate/pkg/gateway"
	"github.com/dmitrymomot/bucketgate/pkg/job"
	"github.com/dmitrymomot/bucketgate/pkg/jwt"
	"github.com/dmitrymomot/bucketgate/pkg/logger"
	"github.com/dmitrymomot/bucketgate/pkg/redis"
	"github.com/dmitrymomot/bucketgate/pkg/storage"
)

const redacted = "[redacted]"

// ErrInvalid is returned by Validate and Load.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the full gateway configuration.
type Config struct {
	HTTP        HTTP               `yaml:"http"`
	Log         logger.Config      `yaml:"log"`
	AWS         awsclient.Config   `yaml:"aws"`
	Storage     storage.Config     `yaml:"storage"`
	Gateway     gateway.Config     `yaml:"gateway"`
	Credentials credentials.Config `yaml:"credentials"`
	JWT         jwt.Config         `yaml:"jwt"`
	DB          db.Config          `yaml:"database"`
	Redis       redis.Config       `yaml:"redis"`
	Jobs        job.Config         `yaml:"jobs"`
	Audit       Audit              `yaml:"audit"`
	Sweep       Sweep              `yaml:"sweep"`
}

// HTTP configures the listener and request handling.
type HTTP struct {
	Addr string `env:"HTTP_ADDR" envDefault:":8080" yaml:"addr"`

	// CORSOrigins is a comma separated allow list. Empty allows any origin.
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," yaml:"cors_origins,omitempty"`

	// RequestTimeout bounds every request except uploads, which use
	// UPLOAD_TIMEOUT.
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s" yaml:"request_timeout"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s" yaml:"shutdown_timeout"`

	MetricsPath string `env:"METRICS_PATH" envDefault:"/metrics" yaml:"metrics_path"`

	// RejectDotSegments denies keys containing "." or ".." path segments.
	RejectDotSegments bool `env:"REJECT_DOT_SEGMENTS" yaml:"reject_dot_segments"`
}

// Audit configures event delivery.
type Audit struct {
	// Buffer is the in-process queue size in front of the sinks.
	Buffer int `env:"AUDIT_BUFFER" envDefault:"1024" yaml:"buffer"`

	// Queue is the job queue persisted events go through. Used only when a
	// database is configured.
	Queue        string `env:"AUDIT_QUEUE" envDefault:"audit" yaml:"queue"`
	QueueWorkers int    `env:"AUDIT_QUEUE_WORKERS" envDefault:"5" yaml:"queue_workers"`
	MaxAttempts  int    `env:"AUDIT_MAX_ATTEMPTS" envDefault:"10" yaml:"max_attempts"`
}

// Sweep configures the stale multipart upload sweep.
type Sweep struct {
	Schedule string        `env:"STALE_UPLOAD_SCHEDULE" envDefault:"0 * * * *" yaml:"schedule"`
	MaxAge   time.Duration `env:"STALE_UPLOAD_AGE" envDefault:"24h" yaml:"max_age"`
}

// Load parses the process environment and validates the result.
func Load() (Config, error) {
	return load(env.Options{})
}

// LoadFrom is Load over an explicit environment instead of the process one.
func LoadFrom(environ map[string]string) (Config, error) {
	return load(env.Options{Environment: environ})
}

// Section parses a single component's settings, for commands that need only
// one dependency.
func Section[T any]() (T, error) {
	v, err := env.ParseAs[T]()
	if err != nil {
		var zero T
		return zero, errors.Join(ErrInvalid, err)
	}
	return v, nil
}

func load(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, errors.Join(ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings no component would accept. It checks only what
// can fail before any client is built.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.HTTP.Addr == "" {
		add("HTTP_ADDR is required")
	}
	if c.HTTP.RequestTimeout <= 0 {
		add("REQUEST_TIMEOUT must be positive")
	}
	if c.Storage.Bucket == "" {
		add("S3_BUCKET_NAME is required")
	}
	if len(c.JWT.Secret) < jwt.MinSecretLength {
		add("JWT_SECRET must be at least %d bytes", jwt.MinSecretLength)
	}
	if c.Credentials.MinDuration > c.Credentials.MaxDuration {
		add("STS_MIN_DURATION exceeds STS_MAX_DURATION")
	}
	if c.Gateway.DownloadURLExpiry > c.Gateway.MaxDownloadURLExpiry {
		add("PRESIGNED_URL_EXPIRATION exceeds PRESIGNED_URL_MAX_EXPIRATION")
	}
	if c.Audit.Buffer <= 0 {
		add("AUDIT_BUFFER must be positive")
	}
	if c.Sweep.MaxAge <= 0 {
		add("STALE_UPLOAD_AGE must be positive")
	}
	if err := job.ValidateSchedule(c.Sweep.Schedule); err != nil {
		add("STALE_UPLOAD_SCHEDULE: %w", err)
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalid}, errs...)...)
}

// Redacted returns a copy safe to print. Connection URLs and the JWT and
// Sentry secrets are never serialized; static AWS keys are masked.
func (c Config) Redacted() Config {
	if c.AWS.SecretAccessKey != "" {
		c.AWS.SecretAccessKey = redacted
	}
	if c.AWS.SessionToken != "" {
		c.AWS.SessionToken = redacted
	}
	return c
}

// YAML renders the redacted configuration.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c.Redacted())
}
