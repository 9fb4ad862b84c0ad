package tenancy

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/dmitrymomot/bucketgate/pkg/audit"
)

// Validator decides whether a tenant may touch a storage key.
// It is safe for concurrent use.
type Validator struct {
	sink              audit.Sink
	rejectDotSegments bool
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithAuditSink sets the sink receiving denial events.
func WithAuditSink(s audit.Sink) ValidatorOption {
	return func(v *Validator) {
		v.sink = audit.OrNop(s)
	}
}

// WithRejectDotSegments makes the validator deny keys containing "." or ".."
// path segments, even when they carry the tenant prefix.
func WithRejectDotSegments() ValidatorOption {
	return func(v *Validator) {
		v.rejectDotSegments = true
	}
}

// NewValidator creates a Validator. Without WithAuditSink denials are not recorded.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{sink: audit.Nop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// IsKeyAccessible reports whether key starts with the tenant namespace.
// The comparison is byte-exact and case-sensitive; no path normalization is done.
// A denial is emitted to the audit sink.
func (v *Validator) IsKeyAccessible(ctx context.Context, tenantID, key string) bool {
	return v.check(ctx, tenantID, key, "")
}

// Authorize checks every key for tenantID and returns the first failure.
// It must be called before any upstream call: a nil result means all keys are in scope.
func (v *Validator) Authorize(ctx context.Context, tenantID, action string, keys ...string) error {
	if err := ValidateTenantID(tenantID); err != nil {
		return err
	}
	if len(keys) == 0 {
		return errors.Join(ErrInvalidRequest, errors.New("tenancy: no keys to authorize"))
	}

	for _, key := range keys {
		if key == "" {
			return errors.Join(ErrInvalidRequest, errors.New("tenancy: key is required"))
		}
	}
	for _, key := range keys {
		if !v.check(ctx, tenantID, key, action) {
			return ErrAccessDenied
		}
	}
	return nil
}

func (v *Validator) check(ctx context.Context, tenantID, key, action string) bool {
	allowed := strings.HasPrefix(key, DeriveNamespace(tenantID))
	reason := "outside_namespace"
	if allowed && v.rejectDotSegments && hasDotSegment(key) {
		allowed = false
		reason = "dot_segment"
	}
	if allowed {
		return true
	}

	details := map[string]any{"reason": reason}
	if action != "" {
		details["operation"] = action
	}
	v.sink.Emit(ctx, audit.Denied(tenantID, audit.ActionAccessDenied, key, details))
	return false
}

// ValidateTenantID rejects identifiers that would make namespaces overlap
// ("a" would otherwise own "users/a/b/") or that cannot appear in a key.
func ValidateTenantID(tenantID string) error {
	if tenantID == "" {
		return ErrMissingTenant
	}
	if strings.Contains(tenantID, Separator) || tenantID == "." || tenantID == ".." {
		return errors.Join(ErrInvalidRequest, errors.New("tenancy: tenant id must be a single path segment"))
	}
	if strings.IndexFunc(tenantID, unicode.IsControl) >= 0 {
		return errors.Join(ErrInvalidRequest, errors.New("tenancy: tenant id contains control characters"))
	}
	return nil
}

func hasDotSegment(key string) bool {
	for seg := range strings.SplitSeq(key, Separator) {
		if seg == "." || seg == ".." {
			return true
		}
	}
	return false
}
