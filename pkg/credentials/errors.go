package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/bucketgate/pkg/tenancy"
)

var (
	ErrInvalidConfig       = errors.New("credentials: invalid configuration")
	ErrNilTokenService     = errors.New("credentials: token service is required")
	ErrNilIdentityService  = errors.New("credentials: identity service is required")
	ErrPrincipalExists     = errors.New("credentials: principal already exists")
	ErrPrincipalNotFound   = fmt.Errorf("credentials: principal not found: %w", tenancy.ErrNotFound)
	ErrKeyNotFound         = fmt.Errorf("credentials: access key not found: %w", tenancy.ErrNotFound)
	ErrKeyLimit            = errors.Join(tenancy.ErrInvalidRequest, errors.New("credentials: access key limit reached"))
	ErrInvalidStatus       = errors.Join(tenancy.ErrInvalidRequest, errors.New("credentials: status must be Active or Inactive"))
	ErrMissingKeyID        = errors.Join(tenancy.ErrInvalidRequest, errors.New("credentials: access key id is required"))
	ErrOldKeyNotDeleted    = fmt.Errorf("credentials: old access key was not deleted: %w", tenancy.ErrValidationFailed)
	ErrUnexpectedTokenResp = errors.New("credentials: token service returned no credentials")
)

// upstreamError keeps taxonomy sentinels from the collaborator and classifies
// everything else as an upstream failure.
func upstreamError(op string, err error) error {
	switch {
	case errors.Is(err, tenancy.ErrNotFound),
		errors.Is(err, tenancy.ErrInvalidRequest),
		errors.Is(err, tenancy.ErrUpstreamUnavailable),
		errors.Is(err, context.Canceled):
		return fmt.Errorf("credentials: %s: %w", op, err)
	default:
		return fmt.Errorf("credentials: %s: %w", op, errors.Join(tenancy.ErrUpstreamUnavailable, err))
	}
}

// errorClass names the taxonomy class of err for audit details.
func errorClass(err error) string {
	switch {
	case errors.Is(err, tenancy.ErrNotFound):
		return "not_found"
	case errors.Is(err, tenancy.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, tenancy.ErrValidationFailed):
		return "validation_failed"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "upstream_unavailable"
	}
}
