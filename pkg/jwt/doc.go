// Package jwt verifies the bearer tokens that identify tenants.
//
// Tokens are HS256-signed with a shared secret. The subject claim is the
// tenant ID; issuer and audience are checked when configured.
//
//	svc, err := jwt.New(jwt.Config{Secret: os.Getenv("JWT_SECRET")})
//	claims, err := svc.Parse(token)
//	tenantID := claims.Subject
package jwt
