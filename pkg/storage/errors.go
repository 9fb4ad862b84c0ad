package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"

	"github.com/dmitrymomot/bucketgate/pkg/tenancy"
)

// Sentinel errors for storage operations.
// Operation errors wrap the tenancy taxonomy so callers never inspect SDK types.
var (
	// Configuration errors.
	ErrInvalidConfig = errors.New("storage: invalid configuration")

	// Object store errors.
	ErrNotFound    = fmt.Errorf("storage: not found: %w", tenancy.ErrNotFound)
	ErrRejected    = fmt.Errorf("storage: request rejected: %w", tenancy.ErrInvalidRequest)
	ErrUnavailable = fmt.Errorf("storage: object store unavailable: %w", tenancy.ErrUpstreamUnavailable)
)

// Error codes shared by S3 and S3-compatible services.
var (
	notFoundCodes = map[string]struct{}{
		"NoSuchKey":     {},
		"NotFound":      {},
		"NoSuchUpload":  {},
		"NoSuchVersion": {},
	}
	rejectedCodes = map[string]struct{}{
		"InvalidPart":      {},
		"InvalidPartOrder": {},
		"EntityTooSmall":   {},
		"EntityTooLarge":   {},
	}
)

// wrapS3Error classifies aws-sdk errors into storage sentinels.
// Note: Uses %v (not %w) for the original error to normalize error types -
// callers should use errors.Is() with sentinel errors, not errors.As() for AWS types.
// AccessDenied is an upstream failure: the gateway's own credentials were refused.
func wrapS3Error(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if sentinel := classifyCode(apiErr.ErrorCode()); sentinel != nil {
			return fmt.Errorf("%w: %v", sentinel, err)
		}
	}

	// Check for S3 typed errors.
	var noKey *types.NoSuchKey
	var noUpload *types.NoSuchUpload
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &noUpload) || errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// wrapMinioError classifies minio-go errors into storage sentinels.
func wrapMinioError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	resp := minio.ToErrorResponse(err)
	if sentinel := classifyCode(resp.Code); sentinel != nil {
		return fmt.Errorf("%w: %v", sentinel, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func classifyCode(code string) error {
	if _, ok := notFoundCodes[code]; ok {
		return ErrNotFound
	}
	if _, ok := rejectedCodes[code]; ok {
		return ErrRejected
	}
	return nil
}
