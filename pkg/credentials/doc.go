// Package credentials issues namespace-scoped credentials for tenants.
//
// Two kinds are supported. Temporary credentials are minted per request with
// a session policy that confines them to "users/{tenant}/" in the shared
// bucket; their lifetime is clamped to 15 minutes..12 hours (1 hour default).
// Durable credentials are access keys of a per-tenant principal named
// "s3-user-{tenant}" that carries the same policy as an inline document.
//
// The Issuer talks to two collaborators, a [TokenService] and an
// [IdentityService]. Package awsiam adapts AWS STS and IAM to them.
//
//	issuer, err := credentials.NewIssuer(sts, iam, credentials.Config{Bucket: "files"},
//		credentials.WithAuditSink(sink),
//	)
//	creds, err := issuer.IssueTemporaryCredentials(ctx, tenantID, 0)
//
// Key rotation creates the new key before deleting the old one. When the
// delete fails, the new key is still returned and the leftover key is
// reported to the audit sink.
package credentials
