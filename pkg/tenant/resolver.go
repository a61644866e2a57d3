package tenant

import (
	"context"
	"strings"
)

// DefaultClaim is the claim carrying the tenant identifier.
const DefaultClaim = "tenantId"

// DefaultAlternativeClaims are consulted when DefaultClaim is absent.
var DefaultAlternativeClaims = []string{"tenant", "org", "organization"}

// Resolver extracts the tenant identifier for a unit of work.
type Resolver interface {
	// Resolve returns the tenant id. It returns ErrTenantAuthenticationMissing
	// when there is no verified identity and ErrTenantInfoMissing when the
	// identity carries no tenant.
	Resolve(ctx context.Context) (string, error)
}

// ResolverFunc is an adapter to allow the use of ordinary functions as Resolvers.
type ResolverFunc func(ctx context.Context) (string, error)

// Resolve calls the function.
func (f ResolverFunc) Resolve(ctx context.Context) (string, error) {
	return f(ctx)
}

// IdentitySource returns the verified claims of the unit of work, if any.
// It is provided by the authentication layer; this package never verifies
// credentials itself.
type IdentitySource func(ctx context.Context) (Claims, bool)

// ClaimsResolver reads the tenant id from verified identity claims.
type ClaimsResolver struct {
	identity IdentitySource
	claims   []string
}

// NewClaimsResolver creates a resolver reading claim, then each alternative
// in order. An empty claim uses DefaultClaim and DefaultAlternativeClaims.
func NewClaimsResolver(identity IdentitySource, claim string, alternatives ...string) *ClaimsResolver {
	if claim == "" {
		claim = DefaultClaim
		if len(alternatives) == 0 {
			alternatives = DefaultAlternativeClaims
		}
	}
	names := make([]string, 0, len(alternatives)+1)
	names = append(names, claim)
	for _, alt := range alternatives {
		if alt != "" && alt != claim {
			names = append(names, alt)
		}
	}
	return &ClaimsResolver{identity: identity, claims: names}
}

// Resolve returns the first non-blank tenant claim.
func (r *ClaimsResolver) Resolve(ctx context.Context) (string, error) {
	if r.identity == nil {
		return "", ErrTenantAuthenticationMissing
	}

	claims, ok := r.identity(ctx)
	if !ok || claims == nil {
		return "", ErrTenantAuthenticationMissing
	}

	for _, name := range r.claims {
		if v, ok := claims.Claim(name); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v, nil
			}
		}
	}
	return "", ErrTenantInfoMissing
}
