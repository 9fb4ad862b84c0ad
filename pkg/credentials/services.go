package credentials

import "context"

// TokenService mints session credentials restricted by an inline policy.
// Implementations return errors matching the tenancy taxonomy where they can;
// anything else is treated as an upstream failure.
type TokenService interface {
	IssueSessionToken(ctx context.Context, name, policyJSON string, durationSeconds int32) (*TemporaryCredential, error)
}

// IdentityService manages durable principals and their access keys.
//
// Implementations report ErrPrincipalNotFound, ErrPrincipalExists and
// ErrKeyNotFound for the matching conditions. Principal names are always
// derived from the tenant ID by the Issuer, never taken from callers.
type IdentityService interface {
	GetPrincipal(ctx context.Context, name string) error
	CreatePrincipal(ctx context.Context, name string) error
	AttachPolicy(ctx context.Context, name, policyName, policyJSON string) error
	CreateKey(ctx context.Context, name string) (*AccessKey, error)
	ListKeys(ctx context.Context, name string) ([]AccessKey, error)
	DeleteKey(ctx context.Context, name, keyID string) error
	SetKeyStatus(ctx context.Context, name, keyID string, status KeyStatus) error
}
