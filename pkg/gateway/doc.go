// Package gateway runs object-storage operations for tenants sharing one bucket.
//
// Service wraps an ObjectStore (the bucket-bound object store client) and a
// tenancy.Validator. Every tenant-supplied key is validated before the store
// is touched; an empty listing prefix defaults to the tenant namespace.
//
//	svc, err := gateway.NewService(store, validator, cfg,
//	    gateway.WithAuditSink(sink),
//	    gateway.WithLogger(log),
//	)
//	page, err := svc.ListObjects(ctx, tenantID, gateway.ListInput{})
//
// # Errors
//
// All errors match one class of the tenancy taxonomy. Store failures are
// logged with their cause and returned as tenancy.ErrUpstreamUnavailable (or
// tenancy.ErrNotFound for missing keys and unknown uploads); the underlying
// message is never meant for end users.
//
// # Limits
//
// SearchObjects reads a single store page (up to 1000 keys) and filters it in
// memory. Keys past the first page are not searched.
//
// # Multipart
//
// Clients upload parts directly to the store with presigned part URLs or
// temporary credentials; the gateway validates the key on initiate, part URL,
// complete and abort. SweepTask aborts uploads left incomplete for too long.
package gateway
