package tenant

// State describes which tenant, if any, a unit of work operates on.
type State uint8

const (
	// StateUnset means no context has been established yet.
	StateUnset State = iota
	// StateTenant means a specific tenant is active.
	StateTenant
	// StateNonTenant means the unit of work explicitly runs outside tenant
	// isolation (health checks, platform administration).
	StateNonTenant
)

func (s State) String() string {
	switch s {
	case StateTenant:
		return "tenant"
	case StateNonTenant:
		return "non-tenant"
	default:
		return "unset"
	}
}

// Claims exposes the claims of an authenticated principal.
// Implementations must only be built from verified credentials.
type Claims interface {
	Claim(name string) (string, bool)
}

// Availability reports whether a tenant's storage may serve traffic.
type Availability interface {
	Unavailable(tenantID string) bool
}
