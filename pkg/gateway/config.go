package gateway

import (
	"errors"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	defaultDownloadExpiry    = time.Hour
	defaultMaxDownloadExpiry = 7 * 24 * time.Hour
	defaultUpstreamTimeout   = 30 * time.Second
	defaultUploadTimeout     = 10 * time.Minute
	defaultMaxUploadSize     = 100 * humanize.MByte
	defaultListMaxKeys       = 100
	maxListKeys              = 1000
	maxBatchDeleteKeys       = 1000
	maxPartNumber            = 10000
)

// Config holds gateway settings.
type Config struct {
	// DownloadURLExpiry is used when the caller does not request an expiry.
	DownloadURLExpiry time.Duration `env:"PRESIGNED_URL_EXPIRATION" envDefault:"1h" yaml:"download_url_expiry"`

	// MaxDownloadURLExpiry caps requested expiries. Presigned URLs cannot outlive 7 days.
	MaxDownloadURLExpiry time.Duration `env:"PRESIGNED_URL_MAX_EXPIRATION" envDefault:"168h" yaml:"max_download_url_expiry"`

	// UpstreamTimeout bounds every store call except uploads.
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s" yaml:"upstream_timeout"`

	// UploadTimeout bounds streaming uploads.
	UploadTimeout time.Duration `env:"UPLOAD_TIMEOUT" envDefault:"10m" yaml:"upload_timeout"`

	// MaxUploadSize rejects larger single-request uploads. Accepts "100MB", "1GiB", ...
	MaxUploadSize ByteSize `env:"MAX_UPLOAD_SIZE" envDefault:"100MB" yaml:"max_upload_size"`

	// DefaultListMaxKeys is the page size when the caller does not pass one.
	DefaultListMaxKeys int32 `env:"LIST_MAX_KEYS" envDefault:"100" yaml:"default_list_max_keys"`
}

// DefaultConfig returns the configuration used when env defaults are not applied.
func DefaultConfig() Config {
	return Config{
		DownloadURLExpiry:    defaultDownloadExpiry,
		MaxDownloadURLExpiry: defaultMaxDownloadExpiry,
		UpstreamTimeout:      defaultUpstreamTimeout,
		UploadTimeout:        defaultUploadTimeout,
		MaxUploadSize:        ByteSize(defaultMaxUploadSize),
		DefaultListMaxKeys:   defaultListMaxKeys,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.DownloadURLExpiry <= 0 {
		c.DownloadURLExpiry = d.DownloadURLExpiry
	}
	if c.MaxDownloadURLExpiry <= 0 {
		c.MaxDownloadURLExpiry = d.MaxDownloadURLExpiry
	}
	if c.UpstreamTimeout <= 0 {
		c.UpstreamTimeout = d.UpstreamTimeout
	}
	if c.UploadTimeout <= 0 {
		c.UploadTimeout = d.UploadTimeout
	}
	if c.MaxUploadSize <= 0 {
		c.MaxUploadSize = d.MaxUploadSize
	}
	if c.DefaultListMaxKeys <= 0 {
		c.DefaultListMaxKeys = d.DefaultListMaxKeys
	}
}

func (c *Config) validate() error {
	var errs []error
	if c.MaxDownloadURLExpiry > defaultMaxDownloadExpiry {
		errs = append(errs, errors.New("max download url expiry exceeds 7 days"))
	}
	if c.DownloadURLExpiry > c.MaxDownloadURLExpiry {
		errs = append(errs, errors.New("download url expiry exceeds the maximum"))
	}
	if c.DefaultListMaxKeys > maxListKeys {
		errs = append(errs, errors.New("list page size exceeds 1000"))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// ByteSize is a size in bytes that reads and writes human-readable text ("100MB").
type ByteSize int64

// UnmarshalText parses sizes like "100MB", "1.5GiB" or plain byte counts.
func (b *ByteSize) UnmarshalText(text []byte) error {
	n, err := humanize.ParseBytes(string(text))
	if err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	*b = ByteSize(n)
	return nil
}

// MarshalText renders the size using SI units.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b ByteSize) String() string {
	if b < 0 {
		return "0 B"
	}
	return humanize.Bytes(uint64(b))
}
