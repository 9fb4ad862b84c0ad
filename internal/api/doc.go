// Package api exposes the gateway and the credential issuer over HTTP.
//
// Storage routes live under /api/s3 and credential routes under
// /api/credentials. Both expect the tenant ID in the request context, as
// the JWT middleware stores it; requests without one are rejected by the
// services with an invalid request error.
//
// Errors render as
//
//	{"error": {"code": "access_denied", "message": "access denied", "request_id": "..."}}
//
// Denied and missing objects never leak upstream error text.
package api
