package tenant

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hermeshr/tenancy/pkg/logger"
)

// Outcome is the result of resolving the tenant for a unit of work.
type Outcome uint8

const (
	// OutcomeUnbound: the unit of work proceeds without tenant isolation
	// (binder disabled or lenient fallback).
	OutcomeUnbound Outcome = iota
	// OutcomeBound: a tenant was bound.
	OutcomeBound
	// OutcomeNonTenant: the route is exempt from tenant isolation.
	OutcomeNonTenant
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBound:
		return "bound"
	case OutcomeNonTenant:
		return "non-tenant"
	default:
		return "unbound"
	}
}

// Binder establishes the tenant context at the boundary of every unit of
// work and tears it down when the unit of work ends. It is the only
// component that sets a Scope; everything else reads it.
type Binder struct {
	enabled         bool
	resolver        Resolver
	strategy        FallbackStrategy
	defaultTenant   string
	excludes        pathMatcher
	availability    Availability
	errorHandler    ErrorHandler
	securityLogging bool
	log             *slog.Logger
}

// NewBinder creates a binder. Without WithResolver every non-exempt unit of
// work is treated as unauthenticated.
func NewBinder(opts ...Option) *Binder {
	b := &Binder{
		enabled:      true,
		resolver:     ResolverFunc(func(context.Context) (string, error) { return "", ErrTenantAuthenticationMissing }),
		strategy:     FailFast,
		errorHandler: defaultErrorHandler,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bind resolves the tenant for a unit of work described by route and
// returns a context carrying a fresh Scope plus the release function that
// clears it. The caller must defer release on every path. On rejection no
// scope is left behind and release is nil.
func (b *Binder) Bind(ctx context.Context, route Route) (context.Context, func(), error) {
	scope := NewScope(WithScopeLogger(b.log))
	ctx = WithScope(ctx, scope)

	outcome, err := b.resolve(ctx, scope, route)
	if err != nil {
		scope.Clear()
		return ctx, nil, err
	}

	if b.securityLogging {
		id, _ := scope.Current()
		b.log.DebugContext(ctx, "Tenant context established",
			logger.Tenant(id),
			slog.String("route", route.Name),
			slog.String("outcome", outcome.String()),
		)
	}

	release := func() {
		scope.Clear()
		if b.securityLogging {
			b.log.DebugContext(ctx, "Tenant context cleared", slog.String("route", route.Name))
		}
	}
	return ctx, release, nil
}

// Run executes fn as a unit of work for route, for transports other than
// HTTP such as queued messages. The tenant context is cleared when fn
// returns, fails, panics or its context is cancelled.
func (b *Binder) Run(ctx context.Context, route Route, fn func(ctx context.Context) error) error {
	ctx, release, err := b.Bind(ctx, route)
	if err != nil {
		return err
	}
	defer release()

	return fn(ctx)
}

func (b *Binder) resolve(ctx context.Context, scope *Scope, route Route) (Outcome, error) {
	if !b.enabled {
		return OutcomeUnbound, nil
	}

	if route.Exempt {
		if err := scope.SetNonTenant(); err != nil {
			return OutcomeUnbound, err
		}
		return OutcomeNonTenant, nil
	}

	id, err := b.resolver.Resolve(ctx)
	if err == nil && id == "" {
		err = ErrTenantInfoMissing
	}
	if err != nil {
		return b.fallback(ctx, scope, route, err)
	}

	return b.bindTenant(ctx, scope, route, id)
}

// bindTenant sets id on scope unless its schema is marked unavailable.
func (b *Binder) bindTenant(ctx context.Context, scope *Scope, route Route, id string) (Outcome, error) {
	if b.availability != nil && b.availability.Unavailable(id) {
		b.log.WarnContext(ctx, "Rejecting unit of work for unavailable tenant",
			logger.Tenant(id),
			slog.String("route", route.Name),
		)
		return OutcomeUnbound, ErrTenantUnavailable
	}

	if err := scope.Set(id); err != nil {
		return OutcomeUnbound, err
	}
	return OutcomeBound, nil
}

func (b *Binder) fallback(ctx context.Context, scope *Scope, route Route, cause error) (Outcome, error) {
	if !errors.Is(cause, ErrTenantAuthenticationMissing) && !errors.Is(cause, ErrTenantInfoMissing) {
		cause = errors.Join(ErrTenantInfoMissing, cause)
	}

	switch b.strategy {
	case LogAndAllow:
		b.log.WarnContext(ctx, "Proceeding without tenant isolation",
			slog.String("route", route.Name),
			logger.Strategy(string(b.strategy)),
			logger.Error(cause),
		)
		return OutcomeUnbound, nil

	case AllowDefault:
		b.log.DebugContext(ctx, "Falling back to default tenant",
			slog.String("route", route.Name),
			logger.Strategy(string(b.strategy)),
			logger.Tenant(b.defaultTenant),
		)
		if b.defaultTenant == "" {
			return OutcomeUnbound, nil
		}
		return b.bindTenant(ctx, scope, route, b.defaultTenant)

	default:
		b.log.WarnContext(ctx, "Rejecting unit of work without tenant",
			slog.String("route", route.Name),
			logger.Strategy(string(FailFast)),
			logger.Error(cause),
		)
		return OutcomeUnbound, cause
	}
}
