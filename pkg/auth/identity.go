package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v4"

	"github.com/hermeshr/tenancy/pkg/tenant"
)

// Identity is the verified identity of the caller.
type Identity struct {
	Subject string
	Token   string
	Claims  jwt.MapClaims
}

// Claim returns a claim rendered as a string. Numeric claims are formatted
// without exponent; objects and arrays are not claims the tenant layer
// can use and report false.
func (i Identity) Claim(name string) (string, bool) {
	v, ok := i.Claims[name]
	if !ok || v == nil {
		return "", false
	}
	switch c := v.(type) {
	case string:
		return c, true
	case json.Number:
		return c.String(), true
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(c), true
	case map[string]any, []any:
		return "", false
	default:
		return fmt.Sprint(c), true
	}
}

type identityKey struct{}

// WithIdentity stores a verified identity in the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the verified identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// IdentitySource exposes the verified identity to tenant.ClaimsResolver.
func IdentitySource(ctx context.Context) (tenant.Claims, bool) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, false
	}
	return id, true
}
