package credentials

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/bucketgate/pkg/audit"
	"github.com/dmitrymomot/bucketgate/pkg/cache"
	"github.com/dmitrymomot/bucketgate/pkg/policy"
	"github.com/dmitrymomot/bucketgate/pkg/tenancy"
)

const (
	sessionNamePrefix   = "user-"
	sessionNameIDRunes  = 16
	principalNamePrefix = "s3-user-"
)

// SessionName returns the federation session name for a tenant:
// "user-" followed by at most the first 16 characters of the tenant ID.
func SessionName(tenantID string) string {
	n := 0
	for i := range tenantID {
		if n == sessionNameIDRunes {
			return sessionNamePrefix + tenantID[:i]
		}
		n++
	}
	return sessionNamePrefix + tenantID
}

// PrincipalName returns the durable principal name for a tenant.
func PrincipalName(tenantID string) string {
	return principalNamePrefix + tenantID
}

// Issuer mints temporary credentials and manages each tenant's durable
// principal and access keys. Every policy it produces is scoped to the
// tenant's namespace in the configured bucket.
type Issuer struct {
	tokens     TokenService
	identities IdentityService
	principals cache.Cache[bool]
	ownCache   bool
	sink       audit.Sink
	logger     *slog.Logger
	cfg        Config
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithAuditSink sets the sink for credential lifecycle events.
func WithAuditSink(s audit.Sink) Option {
	return func(i *Issuer) {
		i.sink = audit.OrNop(s)
	}
}

// WithLogger sets the logger used for upstream failures.
func WithLogger(l *slog.Logger) Option {
	return func(i *Issuer) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithPrincipalCache replaces the in-memory cache of confirmed principals,
// e.g. with a Redis-backed cache shared between replicas.
func WithPrincipalCache(c cache.Cache[bool]) Option {
	return func(i *Issuer) {
		if c == nil {
			return
		}
		if i.ownCache {
			_ = i.principals.Close()
		}
		i.principals = c
		i.ownCache = false
	}
}

// NewIssuer creates an Issuer. Zero config fields take defaults.
func NewIssuer(tokens TokenService, identities IdentityService, cfg Config, opts ...Option) (*Issuer, error) {
	if tokens == nil {
		return nil, ErrNilTokenService
	}
	if identities == nil {
		return nil, ErrNilIdentityService
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	i := &Issuer{
		tokens:     tokens,
		identities: identities,
		principals: cache.NewMemory[bool](cache.WithDefaultTTL(cfg.PrincipalCacheTTL)),
		ownCache:   true,
		sink:       audit.Nop(),
		logger:     slog.New(slog.DiscardHandler),
		cfg:        cfg,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Close releases the principal cache if the Issuer created it.
func (i *Issuer) Close() error {
	if i.ownCache {
		return i.principals.Close()
	}
	return nil
}

// Config returns the effective configuration.
func (i *Issuer) Config() Config {
	return i.cfg
}

// IssueTemporaryCredentials mints session credentials valid only inside the
// tenant's namespace. durationSeconds of zero selects the default lifetime;
// other values are clamped into the accepted range.
func (i *Issuer) IssueTemporaryCredentials(ctx context.Context, tenantID string, durationSeconds int) (*TemporaryCredential, error) {
	if err := tenancy.ValidateTenantID(tenantID); err != nil {
		return nil, err
	}

	doc, err := i.policyJSON(policy.Session, tenantID)
	if err != nil {
		return nil, err
	}

	duration := i.cfg.clamp(durationSeconds)
	name := SessionName(tenantID)

	var creds *TemporaryCredential
	err = i.call(ctx, func(ctx context.Context) error {
		var err error
		creds, err = i.tokens.IssueSessionToken(ctx, name, doc, duration)
		return err
	})
	if err == nil && creds == nil {
		err = ErrUnexpectedTokenResp
	}
	if err != nil {
		err = i.fail(ctx, tenantID, "issue_session_token", name, err)
		i.emitResult(ctx, tenantID, audit.ActionCredentialsIssue, name, err, nil)
		return nil, err
	}

	i.emitResult(ctx, tenantID, audit.ActionCredentialsIssue, name, nil, map[string]any{
		"duration_seconds": duration,
		"expiration":       creds.Expiration.UTC().Format(time.RFC3339),
	})
	return creds, nil
}

// EnsureDurablePrincipal makes sure the tenant's principal exists with its
// namespace policy attached. It is idempotent: the policy is put again on an
// existing principal, and concurrent callers for the same tenant share one
// lookup. Only a fully converged principal is cached.
func (i *Issuer) EnsureDurablePrincipal(ctx context.Context, tenantID string) (string, error) {
	if err := tenancy.ValidateTenantID(tenantID); err != nil {
		return "", err
	}
	name := PrincipalName(tenantID)

	_, err := cache.GetOrSet(ctx, i.principals, "principal:"+name, func(ctx context.Context) (bool, time.Duration, error) {
		if err := i.ensurePrincipal(ctx, tenantID, name); err != nil {
			return false, 0, err
		}
		return true, i.cfg.PrincipalCacheTTL, nil
	})
	if err != nil {
		return "", err
	}
	return name, nil
}

// ensurePrincipal puts the namespace policy on every uncached pass, whether
// this call created the principal or found it. The put replaces the policy of
// the same name, so a principal left bare by a failed attach or a lost
// creation race is repaired by the next caller.
func (i *Issuer) ensurePrincipal(ctx context.Context, tenantID, name string) error {
	err := i.call(ctx, func(ctx context.Context) error {
		return i.identities.GetPrincipal(ctx, name)
	})
	if err != nil && !errors.Is(err, ErrPrincipalNotFound) {
		return i.fail(ctx, tenantID, "get_principal", name, err)
	}

	doc, derr := i.policyJSON(policy.Principal, tenantID)
	if derr != nil {
		return derr
	}

	created := false
	if err != nil {
		err = i.call(ctx, func(ctx context.Context) error {
			return i.identities.CreatePrincipal(ctx, name)
		})
		switch {
		case err == nil:
			created = true
		case errors.Is(err, ErrPrincipalExists):
			// another caller created it; the policy put below still runs
		default:
			err = i.fail(ctx, tenantID, "create_principal", name, err)
			i.emitResult(ctx, tenantID, audit.ActionPrincipalCreate, name, err, nil)
			return err
		}
	}

	err = i.call(ctx, func(ctx context.Context) error {
		return i.identities.AttachPolicy(ctx, name, policy.Name(tenantID), doc)
	})
	if err != nil {
		err = i.fail(ctx, tenantID, "attach_policy", name, err)
		i.emitResult(ctx, tenantID, audit.ActionPrincipalCreate, name, err, map[string]any{
			"policy_attached": false,
			"created":         created,
		})
		return err
	}

	if created {
		i.emitResult(ctx, tenantID, audit.ActionPrincipalCreate, name, nil, map[string]any{
			"policy_name": policy.Name(tenantID),
		})
	}
	return nil
}

// CreateAccessKey creates a durable access key for the tenant, creating the
// principal first if needed. The secret is only returned here.
func (i *Issuer) CreateAccessKey(ctx context.Context, tenantID string) (*AccessKey, error) {
	name, err := i.EnsureDurablePrincipal(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var key *AccessKey
	err = i.call(ctx, func(ctx context.Context) error {
		var err error
		key, err = i.identities.CreateKey(ctx, name)
		return err
	})
	if err == nil && key == nil {
		err = errors.New("credentials: identity service returned no key")
	}
	if err != nil {
		err = i.fail(ctx, tenantID, "create_access_key", name, err)
		i.emitResult(ctx, tenantID, audit.ActionAccessKeyCreate, name, err, nil)
		return nil, err
	}

	i.emitResult(ctx, tenantID, audit.ActionAccessKeyCreate, name, nil, map[string]any{
		"access_key_id": key.AccessKeyID,
	})
	return key, nil
}

// ListAccessKeys returns the tenant's keys without secrets.
// A tenant without a principal has no keys, which is not an error.
func (i *Issuer) ListAccessKeys(ctx context.Context, tenantID string) ([]AccessKey, error) {
	if err := tenancy.ValidateTenantID(tenantID); err != nil {
		return nil, err
	}
	name := PrincipalName(tenantID)

	var keys []AccessKey
	err := i.call(ctx, func(ctx context.Context) error {
		var err error
		keys, err = i.identities.ListKeys(ctx, name)
		return err
	})
	if errors.Is(err, ErrPrincipalNotFound) {
		return []AccessKey{}, nil
	}
	if err != nil {
		return nil, i.fail(ctx, tenantID, "list_access_keys", name, err)
	}

	out := make([]AccessKey, 0, len(keys))
	for _, k := range keys {
		k.SecretAccessKey = ""
		out = append(out, k)
	}
	return out, nil
}

// DeleteAccessKey removes one of the tenant's keys.
// Keys are looked up only under the tenant's own principal, so a key ID owned
// by another tenant is reported as not found.
func (i *Issuer) DeleteAccessKey(ctx context.Context, tenantID, keyID string) error {
	if err := tenancy.ValidateTenantID(tenantID); err != nil {
		return err
	}
	if keyID == "" {
		return ErrMissingKeyID
	}
	name := PrincipalName(tenantID)

	err := i.call(ctx, func(ctx context.Context) error {
		return i.identities.DeleteKey(ctx, name, keyID)
	})
	if errors.Is(err, ErrPrincipalNotFound) {
		err = ErrKeyNotFound
	}
	if err != nil {
		err = i.fail(ctx, tenantID, "delete_access_key", name, err)
	}
	i.emitResult(ctx, tenantID, audit.ActionAccessKeyDelete, name, err, map[string]any{
		"access_key_id": keyID,
	})
	return err
}

// SetAccessKeyStatus activates or deactivates one of the tenant's keys.
// status is "Active" or "Inactive" in any letter case.
func (i *Issuer) SetAccessKeyStatus(ctx context.Context, tenantID, keyID, status string) error {
	if err := tenancy.ValidateTenantID(tenantID); err != nil {
		return err
	}
	if keyID == "" {
		return ErrMissingKeyID
	}
	parsed, err := ParseKeyStatus(status)
	if err != nil {
		return err
	}
	name := PrincipalName(tenantID)

	err = i.call(ctx, func(ctx context.Context) error {
		return i.identities.SetKeyStatus(ctx, name, keyID, parsed)
	})
	if errors.Is(err, ErrPrincipalNotFound) {
		err = ErrKeyNotFound
	}
	if err != nil {
		err = i.fail(ctx, tenantID, "set_access_key_status", name, err)
	}
	i.emitResult(ctx, tenantID, audit.ActionAccessKeyStatus, name, err, map[string]any{
		"access_key_id": keyID,
		"status":        string(parsed),
	})
	return err
}

// RotateAccessKey creates a new key and then deletes oldKeyID.
// If the old key cannot be deleted the new key is still returned; the
// leftover key is reported through the audit sink as a warning.
func (i *Issuer) RotateAccessKey(ctx context.Context, tenantID, oldKeyID string) (*AccessKey, error) {
	if err := tenancy.ValidateTenantID(tenantID); err != nil {
		return nil, err
	}
	if oldKeyID == "" {
		return nil, ErrMissingKeyID
	}

	key, err := i.CreateAccessKey(ctx, tenantID)
	if err != nil {
		i.emitResult(ctx, tenantID, audit.ActionAccessKeyRotate, PrincipalName(tenantID), err, map[string]any{
			"old_access_key_id": oldKeyID,
		})
		return nil, err
	}

	name := PrincipalName(tenantID)
	if err := i.DeleteAccessKey(ctx, tenantID, oldKeyID); err != nil {
		i.sink.Emit(ctx, audit.Warning(tenantID, audit.ActionAccessKeyRotateWarn, name, map[string]any{
			"old_access_key_id": oldKeyID,
			"new_access_key_id": key.AccessKeyID,
			"error_class":       errorClass(ErrOldKeyNotDeleted),
			"cause_class":       errorClass(err),
		}))
		i.logger.WarnContext(ctx, "old access key left in place after rotation",
			slog.String("tenant_id", tenantID),
			slog.String("access_key_id", oldKeyID),
			slog.Any("error", err),
		)
	}

	i.emitResult(ctx, tenantID, audit.ActionAccessKeyRotate, name, nil, map[string]any{
		"old_access_key_id": oldKeyID,
		"new_access_key_id": key.AccessKeyID,
	})
	return key, nil
}

func (i *Issuer) policyJSON(variant policy.Variant, tenantID string) (string, error) {
	doc, err := policy.Build(variant, i.cfg.Bucket, tenancy.DeriveNamespace(tenantID))
	if err != nil {
		return "", errors.Join(tenancy.ErrInvalidRequest, err)
	}
	return doc.JSON()
}

// call runs fn under the upstream timeout.
func (i *Issuer) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, i.cfg.UpstreamTimeout)
	defer cancel()
	return fn(ctx)
}

// fail logs the upstream failure with its cause and returns the classified error.
func (i *Issuer) fail(ctx context.Context, tenantID, op, resource string, err error) error {
	wrapped := upstreamError(op, err)
	level := slog.LevelError
	if errors.Is(wrapped, tenancy.ErrNotFound) || errors.Is(wrapped, tenancy.ErrInvalidRequest) || errors.Is(err, context.Canceled) {
		level = slog.LevelDebug
	}
	i.logger.Log(ctx, level, "credential operation failed",
		slog.String("tenant_id", tenantID),
		slog.String("operation", op),
		slog.String("resource", resource),
		slog.Any("error", err),
	)
	return wrapped
}

func (i *Issuer) emitResult(ctx context.Context, tenantID, action, resource string, err error, details map[string]any) {
	if err != nil {
		if details == nil {
			details = map[string]any{}
		}
		details["error_class"] = errorClass(err)
		i.sink.Emit(ctx, audit.Failure(tenantID, action, resource, details))
		return
	}
	i.sink.Emit(ctx, audit.Success(tenantID, action, resource, details))
}
