// Package awsiam implements the credentials collaborators on AWS.
//
// TokenService calls STS GetFederationToken with the session policy as an
// inline document. IdentityService maps principals to IAM users and
// principal policies to inline user policies.
//
// AWS error codes are translated into the credentials sentinels: NoSuchEntity
// becomes not found, EntityAlreadyExists becomes ErrPrincipalExists,
// LimitExceeded becomes ErrKeyLimit. Anything unrecognized is reported as an
// upstream failure.
package awsiam
