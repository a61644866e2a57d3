package tenant

import "context"

// Source exposes the active tenant identifier to session-level code.
type Source interface {
	// ResolveCurrentTenant returns the bound tenant id, or "" when the unit
	// of work has no tenant (including framework bootstrap paths).
	ResolveCurrentTenant(ctx context.Context) string

	// ValidateExistingSessions reports whether sessions created under a
	// different tenant must be discarded before reuse.
	ValidateExistingSessions() bool
}

// IdentifierSource is the default Source backed by the context Scope.
type IdentifierSource struct{}

// NewIdentifierSource returns the context-backed Source.
func NewIdentifierSource() IdentifierSource { return IdentifierSource{} }

// ResolveCurrentTenant never fails: missing context yields "".
func (IdentifierSource) ResolveCurrentTenant(ctx context.Context) string {
	id, err := Current(ctx)
	if err != nil {
		return ""
	}
	return id
}

// ValidateExistingSessions always returns true: a session reused for a
// different tenant must never keep state from the previous one.
func (IdentifierSource) ValidateExistingSessions() bool { return true }
