package awsiam

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/dmitrymomot/bucketgate/pkg/credentials"
)

// STSAPI is the subset of the STS client used by TokenService.
type STSAPI interface {
	GetFederationToken(ctx context.Context, in *sts.GetFederationTokenInput, optFns ...func(*sts.Options)) (*sts.GetFederationTokenOutput, error)
}

// TokenService mints federated sessions through STS GetFederationToken.
type TokenService struct {
	client STSAPI
}

// NewTokenService creates a TokenService from a shared AWS configuration.
func NewTokenService(cfg aws.Config) *TokenService {
	return NewTokenServiceWithClient(sts.NewFromConfig(cfg))
}

// NewTokenServiceWithClient wraps an existing client.
func NewTokenServiceWithClient(client STSAPI) *TokenService {
	return &TokenService{client: client}
}

func (s *TokenService) IssueSessionToken(ctx context.Context, name, policyJSON string, durationSeconds int32) (*credentials.TemporaryCredential, error) {
	out, err := s.client.GetFederationToken(ctx, &sts.GetFederationTokenInput{
		Name:            aws.String(name),
		Policy:          aws.String(policyJSON),
		DurationSeconds: aws.Int32(durationSeconds),
	})
	if err != nil {
		return nil, wrapError(err, ErrUpstream)
	}
	if out.Credentials == nil {
		return nil, errors.Join(ErrUpstream, errors.New("awsiam: response has no credentials"))
	}

	c := out.Credentials
	expiration := time.Now().Add(time.Duration(durationSeconds) * time.Second)
	if c.Expiration != nil {
		expiration = *c.Expiration
	}
	return &credentials.TemporaryCredential{
		AccessKeyID:     aws.ToString(c.AccessKeyId),
		SecretAccessKey: aws.ToString(c.SecretAccessKey),
		SessionToken:    aws.ToString(c.SessionToken),
		Expiration:      expiration.UTC(),
	}, nil
}

var _ credentials.TokenService = (*TokenService)(nil)
