package jwt

import "errors"

var (
	ErrSecretTooShort   = errors.New("jwt: secret must be at least 32 bytes")
	ErrInvalidToken     = errors.New("jwt: invalid token")
	ErrExpiredToken     = errors.New("jwt: token expired")
	ErrInvalidSignature = errors.New("jwt: invalid signature")
	ErrMissingSubject   = errors.New("jwt: token has no subject")
)
