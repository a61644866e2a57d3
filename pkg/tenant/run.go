package tenant

import (
	"context"
	"strings"
)

// Run executes fn with tenantID bound. fn receives a context carrying a
// child scope, so the caller's scope is left as it was on every exit path,
// including panics, and concurrent Runs on one context never see each
// other's tenant.
//
// The tenant must be fixed before any connection is checked out: Run fails
// with ErrInvariantViolation if the unit of work already holds a connection
// or an open transaction, regardless of which tenant is requested.
func Run(ctx context.Context, tenantID string, fn func(ctx context.Context) error) error {
	_, err := RunWithTenant(ctx, tenantID, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// RunWithTenant is the value-returning form of Run.
func RunWithTenant[T any](ctx context.Context, tenantID string, fn func(ctx context.Context) (T, error)) (T, error) {
	return runScoped(ctx, fn, func(s *Scope) error {
		if strings.TrimSpace(tenantID) == "" {
			// Set ignores blank ids; keep the previous context.
			return nil
		}
		return s.Set(tenantID)
	})
}

// RunNonTenant executes fn outside tenant isolation with the same guard and
// restore semantics as Run.
func RunNonTenant(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := runScoped(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, func(s *Scope) error {
		return s.SetNonTenant()
	})
	return err
}

func runScoped[T any](ctx context.Context, fn func(ctx context.Context) (T, error), apply func(*Scope) error) (T, error) {
	var zero T

	var s *Scope
	if parent, ok := ScopeFromContext(ctx); ok {
		if parent.chainBound() {
			return zero, ErrInvariantViolation
		}
		s = parent.child()
	} else {
		s = NewScope()
	}

	if err := apply(s); err != nil {
		return zero, err
	}

	return fn(WithScope(ctx, s))
}
