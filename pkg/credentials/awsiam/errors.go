package awsiam

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"

	"github.com/dmitrymomot/bucketgate/pkg/credentials"
	"github.com/dmitrymomot/bucketgate/pkg/tenancy"
)

// IAM and STS error codes with a meaning in the credentials taxonomy.
const (
	codeNoSuchEntity         = "NoSuchEntity"
	codeEntityAlreadyExists  = "EntityAlreadyExists"
	codeLimitExceeded        = "LimitExceeded"
	codeValidationError      = "ValidationError"
	codeMalformedPolicy      = "MalformedPolicyDocument"
	codePackedPolicyTooLarge = "PackedPolicyTooLarge"
)

// ErrUpstream wraps failures from AWS that carry no more specific meaning.
var ErrUpstream = fmt.Errorf("awsiam: request failed: %w", tenancy.ErrUpstreamUnavailable)

// wrapError maps an AWS error onto the credentials sentinels.
// missing is returned for NoSuchEntity; it differs between principal and key calls.
func wrapError(err error, missing error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case codeNoSuchEntity:
			return fmt.Errorf("%w: %s", missing, apiErr.ErrorMessage())
		case codeEntityAlreadyExists:
			return fmt.Errorf("%w: %s", credentials.ErrPrincipalExists, apiErr.ErrorMessage())
		case codeLimitExceeded:
			return fmt.Errorf("%w: %s", credentials.ErrKeyLimit, apiErr.ErrorMessage())
		case codeValidationError, codeMalformedPolicy, codePackedPolicyTooLarge:
			return errors.Join(tenancy.ErrInvalidRequest, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}
