package middlewares

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/bucketgate/internal"
	"github.com/dmitrymomot/bucketgate/pkg/jwt"
	"github.com/dmitrymomot/bucketgate/pkg/logger"
	"github.com/dmitrymomot/bucketgate/pkg/tenancy"
)

type (
	jwtClaimsKey struct{}
	tenantIDKey  struct{}
)

// TokenParser verifies a bearer token and returns its claims.
// *jwt.Service implements it.
type TokenParser interface {
	Parse(token string) (*jwt.Claims, error)
}

type jwtConfig struct {
	token internal.TokenSource
}

// JWTOption configures JWT.
type JWTOption func(*jwtConfig)

// WithTokenSources replaces the Authorization bearer header as the place
// the token is read from. Sources are tried in order.
func WithTokenSources(sources ...internal.TokenSource) JWTOption {
	return func(cfg *jwtConfig) {
		if len(sources) > 0 {
			cfg.token = internal.FirstToken(sources...)
		}
	}
}

// JWT returns middleware that authenticates the request with a bearer token.
// The token subject becomes the tenant ID; it must be a valid single path
// segment so it can never address another tenant's namespace.
// Parsed claims and the tenant ID are stored in the context.
func JWT(parser TokenParser, opts ...JWTOption) internal.Middleware {
	cfg := &jwtConfig{token: internal.BearerToken()}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			token, ok := cfg.token(c)
			if !ok || token == "" {
				return unauthorized(c, "missing authentication token", nil)
			}

			claims, err := parser.Parse(token)
			if err != nil {
				c.LogDebug("token rejected", slog.Any("error", err))
				if errors.Is(err, jwt.ErrExpiredToken) {
					return unauthorized(c, "token expired", err)
				}
				return unauthorized(c, "invalid token", err)
			}

			if err := tenancy.ValidateTenantID(claims.Subject); err != nil {
				c.LogWarn("token subject is not a valid tenant id", slog.Any("error", err))
				return unauthorized(c, "invalid token subject", err)
			}

			c.Set(jwtClaimsKey{}, claims)
			c.Set(tenantIDKey{}, claims.Subject)

			return next(c)
		}
	}
}

func unauthorized(c internal.Context, msg string, err error) error {
	c.SetHeader("WWW-Authenticate", `Bearer realm="bucketgate"`)
	return internal.ErrUnauthorized(msg,
		internal.WithErrorCode("unauthorized"),
		internal.WithRequestID(GetRequestID(c)),
		internal.WithError(err),
	)
}

// GetJWTClaims extracts parsed JWT claims from the context.
// Returns nil if the JWT middleware is not applied.
func GetJWTClaims(c internal.Context) *jwt.Claims {
	return internal.Value[*jwt.Claims](c, jwtClaimsKey{})
}

// GetTenantID returns the authenticated tenant ID.
// Returns an empty string if the JWT middleware is not applied.
func GetTenantID(c internal.Context) string {
	return internal.Value[string](c, tenantIDKey{})
}

// WithTenantID returns a copy of ctx carrying tenantID, as the JWT middleware stores it.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey{}, tenantID)
}

// TenantIDExtractor returns a ContextExtractor for logger.NewFromConfig.
// Automatically adds "tenant_id" to all log entries of authenticated requests.
func TenantIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v, ok := ctx.Value(tenantIDKey{}).(string); ok && v != "" {
			return slog.String("tenant_id", v), true
		}
		return slog.Attr{}, false
	}
}
