package credentials

import (
	"errors"
	"time"
)

// Duration bounds accepted by the token service.
const (
	MinSessionDuration     = 15 * time.Minute
	MaxSessionDuration     = 12 * time.Hour
	DefaultSessionDuration = time.Hour
)

// Config holds issuer settings.
type Config struct {
	// Bucket is the shared bucket the generated policies are scoped to (required).
	Bucket string `env:"S3_BUCKET_NAME" yaml:"bucket"`

	// MinDuration and MaxDuration bound session lifetimes. Requests outside are clamped.
	MinDuration time.Duration `env:"STS_MIN_DURATION" envDefault:"15m" yaml:"min_duration"`
	MaxDuration time.Duration `env:"STS_MAX_DURATION" envDefault:"12h" yaml:"max_duration"`

	// DefaultDuration is used when the caller does not request a lifetime.
	DefaultDuration time.Duration `env:"STS_DEFAULT_DURATION" envDefault:"1h" yaml:"default_duration"`

	// PrincipalCacheTTL is how long a confirmed principal is remembered.
	PrincipalCacheTTL time.Duration `env:"PRINCIPAL_CACHE_TTL" envDefault:"10m" yaml:"principal_cache_ttl"`

	// UpstreamTimeout bounds every token and identity service call.
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s" yaml:"upstream_timeout"`
}

func (c *Config) applyDefaults() {
	if c.MinDuration <= 0 {
		c.MinDuration = MinSessionDuration
	}
	if c.MaxDuration <= 0 {
		c.MaxDuration = MaxSessionDuration
	}
	if c.DefaultDuration <= 0 {
		c.DefaultDuration = DefaultSessionDuration
	}
	if c.PrincipalCacheTTL <= 0 {
		c.PrincipalCacheTTL = 10 * time.Minute
	}
	if c.UpstreamTimeout <= 0 {
		c.UpstreamTimeout = 30 * time.Second
	}
}

func (c *Config) validate() error {
	var errs []error
	if c.Bucket == "" {
		errs = append(errs, errors.New("bucket is required"))
	}
	if c.MinDuration < MinSessionDuration || c.MaxDuration > MaxSessionDuration {
		errs = append(errs, errors.New("session duration bounds must stay within 15m..12h"))
	}
	if c.MinDuration > c.MaxDuration {
		errs = append(errs, errors.New("min duration exceeds max duration"))
	}
	if c.DefaultDuration < c.MinDuration || c.DefaultDuration > c.MaxDuration {
		errs = append(errs, errors.New("default duration must be within min and max"))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// clamp converts a requested lifetime in seconds into the accepted range.
// Zero selects the default; other values are clamped silently.
func (c *Config) clamp(requestedSeconds int) int32 {
	if requestedSeconds == 0 {
		return int32(c.DefaultDuration / time.Second)
	}
	lower := int(c.MinDuration / time.Second)
	upper := int(c.MaxDuration / time.Second)
	return int32(max(lower, min(requestedSeconds, upper)))
}
