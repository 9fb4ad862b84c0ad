// Package tenancy defines tenant namespaces and the access check that keeps
// every storage operation inside one.
//
// A tenant namespace is "users/{tenantID}/". A key is accessible to a tenant
// iff it starts with that namespace, compared byte for byte:
//
//	v := tenancy.NewValidator(tenancy.WithAuditSink(sink))
//	v.IsKeyAccessible(ctx, "u-42", "users/u-42/report.pdf") // true
//	v.IsKeyAccessible(ctx, "u-42", "users/u-99/report.pdf") // false, audited
//
// The validator does not canonicalize "." or ".." segments. The object store
// treats keys as opaque strings, so "users/u-42/../u-99/x" is a distinct key
// inside u-42's namespace; deployments fronting stores that interpret such
// segments can enable WithRejectDotSegments.
//
// The package also owns the error taxonomy (ErrAccessDenied, ErrNotFound,
// ErrUpstreamUnavailable, ErrInvalidRequest, ErrValidationFailed) used by
// the gateway and credential packages.
package tenancy
