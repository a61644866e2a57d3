// Package auth verifies bearer tokens issued by the external identity
// provider and exposes the verified claims to the tenant resolver.
//
//	v, err := auth.NewVerifier(cfg)
//	r.Use(auth.Middleware(v))
//	r.Use(tenant.NewBinder(
//		tenant.WithResolver(tenant.NewClaimsResolver(auth.IdentitySource, "")),
//	).Middleware())
//
// Only HMAC (HS256/384/512) and RSA (RS256/384/512) tokens are accepted,
// depending on which key is configured; "none" and any other algorithm is
// rejected with ErrUnexpectedSigningMethod.
package auth
