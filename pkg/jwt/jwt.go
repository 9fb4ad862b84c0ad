package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the minimum HMAC secret size in bytes.
const MinSecretLength = 32

// Claims are the token claims the gateway reads. Subject carries the tenant ID.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// Config holds token verification settings.
type Config struct {
	Secret   string        `env:"JWT_SECRET" yaml:"-"`
	Issuer   string        `env:"JWT_ISSUER" yaml:"issuer,omitempty"`
	Audience string        `env:"JWT_AUDIENCE" yaml:"audience,omitempty"`
	Leeway   time.Duration `env:"JWT_LEEWAY" envDefault:"30s" yaml:"leeway"`
}

// Service signs and verifies HS256 tokens.
type Service struct {
	secret []byte
	cfg    Config
}

// New creates a Service from cfg.
func New(cfg Config) (*Service, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	return &Service{secret: []byte(cfg.Secret), cfg: cfg}, nil
}

// NewFromString creates a Service with only a secret configured.
func NewFromString(secret string) (*Service, error) {
	return New(Config{Secret: secret})
}

// Generate issues a token for subject valid for ttl.
// It is used by the CLI and tests; production tokens come from the identity provider.
func (s *Service) Generate(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", ErrMissingSubject
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    s.cfg.Issuer,
		},
	}
	if s.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.cfg.Audience}
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return token, nil
}

// Parse verifies token and returns its claims. Tokens without an expiry or a
// subject are rejected.
func (s *Service) Parse(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.cfg.Leeway),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	if s.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.cfg.Audience))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, errors.Join(ErrExpiredToken, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, errors.Join(ErrInvalidSignature, err)
	default:
		return nil, errors.Join(ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}
