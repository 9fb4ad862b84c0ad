package awsiam

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"

	"github.com/dmitrymomot/bucketgate/pkg/credentials"
)

// IAMAPI is the subset of the IAM client used by IdentityService.
type IAMAPI interface {
	GetUser(ctx context.Context, in *iam.GetUserInput, optFns ...func(*iam.Options)) (*iam.GetUserOutput, error)
	CreateUser(ctx context.Context, in *iam.CreateUserInput, optFns ...func(*iam.Options)) (*iam.CreateUserOutput, error)
	PutUserPolicy(ctx context.Context, in *iam.PutUserPolicyInput, optFns ...func(*iam.Options)) (*iam.PutUserPolicyOutput, error)
	CreateAccessKey(ctx context.Context, in *iam.CreateAccessKeyInput, optFns ...func(*iam.Options)) (*iam.CreateAccessKeyOutput, error)
	ListAccessKeys(ctx context.Context, in *iam.ListAccessKeysInput, optFns ...func(*iam.Options)) (*iam.ListAccessKeysOutput, error)
	DeleteAccessKey(ctx context.Context, in *iam.DeleteAccessKeyInput, optFns ...func(*iam.Options)) (*iam.DeleteAccessKeyOutput, error)
	UpdateAccessKey(ctx context.Context, in *iam.UpdateAccessKeyInput, optFns ...func(*iam.Options)) (*iam.UpdateAccessKeyOutput, error)
}

// IdentityService manages IAM users and their access keys.
type IdentityService struct {
	client IAMAPI
	path   string
}

// IdentityOption configures an IdentityService.
type IdentityOption func(*IdentityService)

// WithUserPath places created users under an IAM path such as "/bucketgate/".
func WithUserPath(path string) IdentityOption {
	return func(s *IdentityService) {
		s.path = path
	}
}

// NewIdentityService creates an IdentityService from a shared AWS configuration.
func NewIdentityService(cfg aws.Config, opts ...IdentityOption) *IdentityService {
	return NewIdentityServiceWithClient(iam.NewFromConfig(cfg), opts...)
}

// NewIdentityServiceWithClient wraps an existing client.
func NewIdentityServiceWithClient(client IAMAPI, opts ...IdentityOption) *IdentityService {
	s := &IdentityService{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *IdentityService) GetPrincipal(ctx context.Context, name string) error {
	_, err := s.client.GetUser(ctx, &iam.GetUserInput{UserName: aws.String(name)})
	return wrapError(err, credentials.ErrPrincipalNotFound)
}

func (s *IdentityService) CreatePrincipal(ctx context.Context, name string) error {
	in := &iam.CreateUserInput{UserName: aws.String(name)}
	if s.path != "" {
		in.Path = aws.String(s.path)
	}
	_, err := s.client.CreateUser(ctx, in)
	return wrapError(err, credentials.ErrPrincipalNotFound)
}

func (s *IdentityService) AttachPolicy(ctx context.Context, name, policyName, policyJSON string) error {
	_, err := s.client.PutUserPolicy(ctx, &iam.PutUserPolicyInput{
		UserName:       aws.String(name),
		PolicyName:     aws.String(policyName),
		PolicyDocument: aws.String(policyJSON),
	})
	return wrapError(err, credentials.ErrPrincipalNotFound)
}

func (s *IdentityService) CreateKey(ctx context.Context, name string) (*credentials.AccessKey, error) {
	out, err := s.client.CreateAccessKey(ctx, &iam.CreateAccessKeyInput{UserName: aws.String(name)})
	if err != nil {
		return nil, wrapError(err, credentials.ErrPrincipalNotFound)
	}
	if out.AccessKey == nil {
		return nil, errors.Join(ErrUpstream, errors.New("awsiam: response has no access key"))
	}

	k := out.AccessKey
	return &credentials.AccessKey{
		AccessKeyID:     aws.ToString(k.AccessKeyId),
		SecretAccessKey: aws.ToString(k.SecretAccessKey),
		Status:          fromStatusType(k.Status),
		CreateDate:      aws.ToTime(k.CreateDate).UTC(),
	}, nil
}

// ListKeys follows Marker pagination until the listing is complete.
func (s *IdentityService) ListKeys(ctx context.Context, name string) ([]credentials.AccessKey, error) {
	var (
		keys   []credentials.AccessKey
		marker *string
	)
	for {
		out, err := s.client.ListAccessKeys(ctx, &iam.ListAccessKeysInput{
			UserName: aws.String(name),
			Marker:   marker,
		})
		if err != nil {
			return nil, wrapError(err, credentials.ErrPrincipalNotFound)
		}
		for _, k := range out.AccessKeyMetadata {
			keys = append(keys, credentials.AccessKey{
				AccessKeyID: aws.ToString(k.AccessKeyId),
				Status:      fromStatusType(k.Status),
				CreateDate:  aws.ToTime(k.CreateDate).UTC(),
			})
		}
		if !out.IsTruncated || out.Marker == nil {
			return keys, nil
		}
		marker = out.Marker
	}
}

// DeleteKey removes keyID from the user name. IAM reports a key owned by a
// different user as NoSuchEntity, which maps to ErrKeyNotFound.
func (s *IdentityService) DeleteKey(ctx context.Context, name, keyID string) error {
	_, err := s.client.DeleteAccessKey(ctx, &iam.DeleteAccessKeyInput{
		UserName:    aws.String(name),
		AccessKeyId: aws.String(keyID),
	})
	return wrapError(err, credentials.ErrKeyNotFound)
}

func (s *IdentityService) SetKeyStatus(ctx context.Context, name, keyID string, status credentials.KeyStatus) error {
	_, err := s.client.UpdateAccessKey(ctx, &iam.UpdateAccessKeyInput{
		UserName:    aws.String(name),
		AccessKeyId: aws.String(keyID),
		Status:      toStatusType(status),
	})
	return wrapError(err, credentials.ErrKeyNotFound)
}

func fromStatusType(s types.StatusType) credentials.KeyStatus {
	if s == types.StatusTypeInactive {
		return credentials.StatusInactive
	}
	return credentials.StatusActive
}

func toStatusType(s credentials.KeyStatus) types.StatusType {
	if s == credentials.StatusInactive {
		return types.StatusTypeInactive
	}
	return types.StatusTypeActive
}

var _ credentials.IdentityService = (*IdentityService)(nil)
