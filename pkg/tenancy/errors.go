package tenancy

import "errors"

// Error taxonomy shared by the gateway core. Every error returned by
// pkg/gateway and pkg/credentials matches exactly one of these with errors.Is.
var (
	// ErrAccessDenied is returned when a key lies outside the tenant namespace.
	// It is terminal and never says whether the object exists.
	ErrAccessDenied = errors.New("tenancy: access denied")

	// ErrNotFound is returned when a referenced key, upload or access key does not exist.
	ErrNotFound = errors.New("tenancy: not found")

	// ErrUpstreamUnavailable is returned when an external service call fails.
	// Callers may retry with backoff.
	ErrUpstreamUnavailable = errors.New("tenancy: upstream unavailable")

	// ErrInvalidRequest is returned for malformed input.
	ErrInvalidRequest = errors.New("tenancy: invalid request")

	// ErrValidationFailed classifies non-fatal cleanup failures. It is reported
	// through the audit sink and never returned from a primary operation.
	ErrValidationFailed = errors.New("tenancy: validation failed")

	// ErrMissingTenant is returned when an operation is invoked without a tenant identity.
	ErrMissingTenant = errors.Join(ErrInvalidRequest, errors.New("tenancy: tenant id is required"))
)
