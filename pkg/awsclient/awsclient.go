package awsclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// ErrInvalidConfig is returned when the AWS configuration cannot be resolved.
var ErrInvalidConfig = errors.New("awsclient: invalid configuration")

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"

// Config holds the credentials shared by the S3, STS and IAM clients.
// Empty keys fall back to the default AWS credential chain
// (environment, shared config, instance role).
type Config struct {
	Region          string `env:"AWS_REGION" envDefault:"us-east-1" yaml:"region"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" yaml:"secret_access_key,omitempty"`
	SessionToken    string `env:"AWS_SESSION_TOKEN" yaml:"session_token,omitempty"`
	MaxAttempts     int    `env:"AWS_MAX_ATTEMPTS" envDefault:"3" yaml:"max_attempts"`
}

// Load resolves an aws.Config once at start. Clients built from it are safe
// for concurrent use and should be shared.
func Load(ctx context.Context, cfg Config) (aws.Config, error) {
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return aws.Config{}, fmt.Errorf("%w: access key id and secret must be set together", ErrInvalidConfig)
	}

	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if cfg.MaxAttempts > 0 {
		opts = append(opts, config.WithRetryMaxAttempts(cfg.MaxAttempts))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			cfg.SessionToken,
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return awsCfg, nil
}
