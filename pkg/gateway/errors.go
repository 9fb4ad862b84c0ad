package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/bucketgate/pkg/tenancy"
)

var (
	ErrInvalidConfig = errors.New("gateway: invalid configuration")
	ErrNilStore      = errors.New("gateway: object store is required")
	ErrNilValidator  = errors.New("gateway: validator is required")

	ErrUploadTooLarge = errors.Join(tenancy.ErrInvalidRequest, errors.New("gateway: upload exceeds the maximum size"))
	ErrTooManyKeys    = errors.Join(tenancy.ErrInvalidRequest, errors.New("gateway: too many keys in one batch"))
	ErrNoParts        = errors.Join(tenancy.ErrInvalidRequest, errors.New("gateway: multipart completion needs at least one part"))
	ErrInvalidParts   = errors.Join(tenancy.ErrInvalidRequest, errors.New("gateway: part numbers must be ascending within 1..10000"))
	ErrMissingUpload  = errors.Join(tenancy.ErrInvalidRequest, errors.New("gateway: upload id is required"))

	// ErrEmptyStoreResult is a store answering nil, nil where a result is due.
	ErrEmptyStoreResult = errors.Join(tenancy.ErrUpstreamUnavailable, errors.New("gateway: store returned no result"))
)

// upstreamError keeps op and key for logs while classifying err into the
// tenancy taxonomy. Store errors already matching a sentinel keep it.
func upstreamError(op, key string, err error) error {
	switch {
	case errors.Is(err, tenancy.ErrNotFound),
		errors.Is(err, tenancy.ErrUpstreamUnavailable),
		errors.Is(err, tenancy.ErrInvalidRequest):
		return fmt.Errorf("gateway: %s %q: %w", op, key, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("gateway: %s %q: %w", op, key, err)
	default:
		return fmt.Errorf("gateway: %s %q: %w", op, key, errors.Join(tenancy.ErrUpstreamUnavailable, err))
	}
}
