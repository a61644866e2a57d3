package auth

// Config selects how bearer tokens are verified. Exactly one of SigningKey
// (HMAC) or PublicKeyPEM (RSA) is expected.
type Config struct {
	SigningKey   string `env:"JWT_SIGNING_KEY"`    // SigningKey is the shared HMAC secret.
	PublicKeyPEM string `env:"JWT_PUBLIC_KEY_PEM"` // PublicKeyPEM is the PEM-encoded RSA public key of the identity provider.
	Issuer       string `env:"JWT_ISSUER"`         // Issuer, when set, must match the "iss" claim.
	Audience     string `env:"JWT_AUDIENCE"`       // Audience, when set, must be present in the "aud" claim.
}
