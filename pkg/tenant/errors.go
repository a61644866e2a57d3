package tenant

import "errors"

var (
	// ErrNoTenantContext is returned when the tenant is read before the unit
	// of work bound one. It signals a call-site ordering bug.
	ErrNoTenantContext = errors.New("tenant: no tenant context")

	// ErrInvariantViolation is returned when the tenant context is changed
	// while a connection or transaction is bound to the unit of work.
	ErrInvariantViolation = errors.New("tenant: context change while a connection or transaction is active")

	// ErrTenantAuthenticationMissing is returned when the unit of work carries
	// no verified identity at all.
	ErrTenantAuthenticationMissing = errors.New("tenant: authentication missing")

	// ErrTenantInfoMissing is returned when the verified identity carries no
	// tenant claim.
	ErrTenantInfoMissing = errors.New("tenant: tenant claim missing")

	// ErrTenantUnavailable is returned when the tenant's storage is not ready
	// to serve traffic.
	ErrTenantUnavailable = errors.New("tenant: tenant temporarily unavailable")

	// ErrInvalidStrategy is returned when parsing an unknown fallback strategy.
	ErrInvalidStrategy = errors.New("tenant: invalid fallback strategy")
)
