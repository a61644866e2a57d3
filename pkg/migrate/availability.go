package migrate

import (
	"slices"
	"sync"
)

// Availability tracks tenants whose schema failed to migrate and must not
// serve traffic. It satisfies tenant.Availability.
type Availability struct {
	mu      sync.RWMutex
	tenants map[string]error
}

func NewAvailability() *Availability {
	return &Availability{tenants: make(map[string]error)}
}

// MarkUnavailable records that tenantID cannot be served.
func (a *Availability) MarkUnavailable(tenantID string, cause error) {
	if a == nil || tenantID == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tenants[tenantID] = cause
}

// MarkAvailable clears tenantID, e.g. after a later successful migration.
func (a *Availability) MarkAvailable(tenantID string) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.tenants, tenantID)
}

// Unavailable reports whether tenantID is currently isolated.
func (a *Availability) Unavailable(tenantID string) bool {
	if a == nil {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.tenants[tenantID]
	return ok
}

// Cause returns the error that made tenantID unavailable.
func (a *Availability) Cause(tenantID string) error {
	if a == nil {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tenants[tenantID]
}

// Tenants returns the unavailable tenants, sorted.
func (a *Availability) Tenants() []string {
	if a == nil {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	ids := make([]string, 0, len(a.tenants))
	for id := range a.tenants {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
