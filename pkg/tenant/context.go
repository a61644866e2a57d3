package tenant

import (
	"context"
	"log/slog"

	"github.com/hermeshr/tenancy/pkg/logger"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithScope attaches the scope to the context.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// ScopeFromContext retrieves the scope from the context.
func ScopeFromContext(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(contextKey{}).(*Scope)
	return s, ok && s != nil
}

// Current returns the tenant bound to the unit of work carried by ctx.
// Returns ErrNoTenantContext when no tenant has been bound.
func Current(ctx context.Context) (string, error) {
	s, ok := ScopeFromContext(ctx)
	if !ok {
		return "", ErrNoTenantContext
	}
	return s.Current()
}

// IsNonTenant reports whether the unit of work runs outside tenant isolation.
func IsNonTenant(ctx context.Context) bool {
	s, ok := ScopeFromContext(ctx)
	return ok && s.IsNonTenant()
}

// HasContext reports whether a tenant or non-tenant context was established.
func HasContext(ctx context.Context) bool {
	s, ok := ScopeFromContext(ctx)
	return ok && s.HasContext()
}

// LoggerExtractor adds the bound tenant id to log records.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, err := Current(ctx); err == nil {
			return logger.Tenant(id), true
		}
		return slog.Attr{}, false
	}
}
