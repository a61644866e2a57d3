// Package tenant carries the tenant identity of a unit of work and binds it
// at the unit-of-work boundary.
//
// Every HTTP request, queued message or background job runs with its own
// Scope attached to its context.Context. A Scope is either unset, bound to
// a tenant id, or explicitly non-tenant (health checks, admin endpoints).
// Scopes are never shared between units of work, so two concurrent
// requests cannot observe each other's tenant.
//
// # Binding
//
// The Binder resolves the tenant from verified identity claims and attaches
// a fresh Scope; the release function it returns clears the scope on every
// exit path:
//
//	binder := tenant.NewBinder(
//		tenant.WithResolver(tenant.NewClaimsResolver(auth.IdentitySource, "")),
//		tenant.WithStrategy(tenant.FailFast),
//		tenant.WithExcludePaths("/healthz", "/metrics"),
//	)
//	r.Use(binder.Middleware())
//
// Non-HTTP transports call Binder.Run with a Route instead.
//
// When no identity or no tenant claim is present, the FallbackStrategy
// decides: FailFast rejects (401 or 403), LogAndAllow proceeds without a
// tenant, AllowDefault binds the configured default tenant.
//
// # Scoped execution
//
// Run, RunWithTenant and RunNonTenant execute a function under another
// tenant. The function gets a child scope, so the caller's state is never
// modified and goroutines sharing one context can each run a different
// tenant:
//
//	err := tenant.Run(ctx, "acme", func(ctx context.Context) error {
//		return createInitialAdmin(ctx)
//	})
//
// Switching is refused with ErrInvariantViolation while the scope, or any
// scope it was derived from, holds a routed connection or an open
// transaction.
//
// # Session state
//
// SessionCache and Session partition cached state by the tenant resolved
// through a Source, so state populated for one tenant is never served to
// another.
package tenant
