package auth

import (
	"errors"
	"slices"

	"github.com/golang-jwt/jwt/v4"
)

// Verifier validates bearer tokens issued by the identity provider. This
// package never issues tokens for real users; it only checks them.
type Verifier struct {
	key      any
	methods  []string
	issuer   string
	audience string
}

// NewVerifier builds a verifier from Config.
func NewVerifier(cfg Config) (*Verifier, error) {
	switch {
	case cfg.PublicKeyPEM != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, errors.Join(ErrInvalidSigningKey, err)
		}
		return &Verifier{
			key:      key,
			methods:  []string{"RS256", "RS384", "RS512"},
			issuer:   cfg.Issuer,
			audience: cfg.Audience,
		}, nil

	case cfg.SigningKey != "":
		return &Verifier{
			key:      []byte(cfg.SigningKey),
			methods:  []string{"HS256", "HS384", "HS512"},
			issuer:   cfg.Issuer,
			audience: cfg.Audience,
		}, nil
	}
	return nil, ErrMissingSigningKey
}

// Verify checks the signature, algorithm and temporal claims of token, then
// the configured issuer and audience.
func (v *Verifier) Verify(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithJSONNumber())
	if _, err := parser.ParseWithClaims(token, claims, v.keyFunc); err != nil {
		switch {
		case errors.Is(err, ErrUnexpectedSigningMethod):
			return Identity{}, ErrUnexpectedSigningMethod
		case errors.Is(err, jwt.ErrTokenExpired):
			return Identity{}, errors.Join(ErrExpiredToken, err)
		}
		return Identity{}, errors.Join(ErrInvalidToken, err)
	}

	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return Identity{}, errors.Join(ErrInvalidToken, jwt.ErrTokenInvalidIssuer)
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return Identity{}, errors.Join(ErrInvalidToken, jwt.ErrTokenInvalidAudience)
	}

	id := Identity{Token: token, Claims: claims}
	if sub, ok := claims["sub"].(string); ok {
		id.Subject = sub
	}
	return id, nil
}

func (v *Verifier) keyFunc(t *jwt.Token) (any, error) {
	if !slices.Contains(v.methods, t.Method.Alg()) {
		return nil, ErrUnexpectedSigningMethod
	}
	return v.key, nil
}
