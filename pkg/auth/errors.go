package auth

import "errors"

var (
	ErrMissingToken            = errors.New("auth: missing token")
	ErrInvalidToken            = errors.New("auth: invalid token")
	ErrExpiredToken            = errors.New("auth: token is expired")
	ErrMissingSigningKey       = errors.New("auth: missing signing key")
	ErrInvalidSigningKey       = errors.New("auth: invalid signing key")
	ErrUnexpectedSigningMethod = errors.New("auth: unexpected signing method")
)
