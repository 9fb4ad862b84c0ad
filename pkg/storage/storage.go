package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/dmitrymomot/bucketgate/pkg/gateway"
)

// Driver selects the object store client.
type Driver string

const (
	// DriverS3 uses aws-sdk-go-v2. Works with AWS and most S3-compatible services.
	DriverS3 Driver = "s3"

	// DriverMinio uses minio-go. Useful for MinIO and other self-hosted stores.
	DriverMinio Driver = "minio"
)

// Config holds S3-compatible storage configuration.
// Credentials and region come from the shared AWS configuration.
type Config struct {
	// Driver is the client implementation (default: s3).
	Driver Driver `env:"STORAGE_DRIVER" envDefault:"s3" yaml:"driver"`

	// Bucket is the shared bucket all tenants live in (required).
	Bucket string `env:"S3_BUCKET_NAME" yaml:"bucket"`

	// Endpoint is the custom S3 endpoint URL (optional, for MinIO or other S3-compatible services).
	Endpoint string `env:"S3_ENDPOINT" yaml:"endpoint,omitempty"`

	// PathStyle enables path-style URLs (required for MinIO).
	PathStyle bool `env:"S3_FORCE_PATH_STYLE" yaml:"path_style"`

	// PartSize is the part size for streaming uploads (default: 8MiB, minimum 5MiB).
	PartSize gateway.ByteSize `env:"S3_UPLOAD_PART_SIZE" envDefault:"8MiB" yaml:"part_size"`

	// UploadConcurrency is the number of parts uploaded in parallel (default: 4).
	UploadConcurrency int `env:"S3_UPLOAD_CONCURRENCY" envDefault:"4" yaml:"upload_concurrency"`
}

// Default configuration values.
const (
	DefaultPartSize          = 8 << 20 // 8MiB
	MinPartSize              = 5 << 20 // 5MiB, S3 minimum for all but the last part
	DefaultUploadConcurrency = 4
	DefaultStorageClass      = "STANDARD"
)

// applyDefaults fills in default values for empty config fields.
func (c *Config) applyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverS3
	}
	if c.PartSize == 0 {
		c.PartSize = DefaultPartSize
	}
	if c.UploadConcurrency <= 0 {
		c.UploadConcurrency = DefaultUploadConcurrency
	}
}

// validate checks that required configuration fields are set.
func (c *Config) validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("%w: bucket is required", ErrInvalidConfig)
	}
	if c.PartSize < MinPartSize {
		return fmt.Errorf("%w: part size must be at least 5MiB", ErrInvalidConfig)
	}
	switch c.Driver {
	case DriverS3:
	case DriverMinio:
		if c.Endpoint == "" {
			return fmt.Errorf("%w: minio driver requires an endpoint", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown driver %q", ErrInvalidConfig, c.Driver)
	}
	return nil
}

// Store is an ObjectStore that can also report its own health.
type Store interface {
	gateway.ObjectStore

	// Ping checks that the bucket is reachable with the configured credentials.
	Ping(ctx context.Context) error
}

// Open creates the object store selected by cfg.Driver.
// The minio driver resolves static credentials from awsCfg once at start.
func Open(ctx context.Context, awsCfg aws.Config, cfg Config) (Store, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case DriverMinio:
		auth := MinioAuth{Region: awsCfg.Region}
		if awsCfg.Credentials != nil {
			creds, err := awsCfg.Credentials.Retrieve(ctx)
			if err != nil {
				return nil, fmt.Errorf("%w: resolve credentials: %v", ErrInvalidConfig, err)
			}
			auth.AccessKey = creds.AccessKeyID
			auth.SecretKey = creds.SecretAccessKey
			auth.SessionToken = creds.SessionToken
		}
		return NewMinio(cfg, auth)
	default:
		return NewS3(awsCfg, cfg)
	}
}
