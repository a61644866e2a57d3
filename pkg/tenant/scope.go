package tenant

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/hermeshr/tenancy/pkg/logger"
)

// Scope holds the tenant state of a single unit of work.
//
// A Scope is created by the Binder when a request or message arrives and is
// carried through context.Context. It also counts the connections and
// transactions bound to the unit of work so that a tenant switch can be
// refused once data access has started.
//
// Run and its variants never modify the scope they find in the context;
// they attach a child scope linked to it. Resources bound anywhere up the
// chain still block a switch in the child.
type Scope struct {
	mu     sync.Mutex
	state  State
	id     string
	conns  int
	txs    int
	parent *Scope
	log    *slog.Logger
}

// ScopeOption configures a Scope.
type ScopeOption func(*Scope)

// WithScopeLogger sets the logger used by the scope.
func WithScopeLogger(l *slog.Logger) ScopeOption {
	return func(s *Scope) {
		if l != nil {
			s.log = l
		}
	}
}

// NewScope returns an unset scope.
func NewScope(opts ...ScopeOption) *Scope {
	s := &Scope{log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set binds the scope to tenantID.
// A blank id is ignored (and logged) rather than reported as an error.
// Changing the tenant while a connection or transaction is bound returns
// ErrInvariantViolation.
func (s *Scope) Set(tenantID string) error {
	if strings.TrimSpace(tenantID) == "" {
		s.log.Warn("Attempted to set blank tenant id, ignoring")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateTenant && s.id == tenantID {
		return nil
	}
	if s.boundLocked() || s.parent.chainBound() {
		return ErrInvariantViolation
	}

	s.state = StateTenant
	s.id = tenantID
	s.log.Debug("Tenant context set", logger.Tenant(tenantID))
	return nil
}

// SetNonTenant marks the unit of work as operating outside tenant isolation.
func (s *Scope) SetNonTenant() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateNonTenant {
		return nil
	}
	if s.boundLocked() || s.parent.chainBound() {
		return ErrInvariantViolation
	}

	s.state = StateNonTenant
	s.id = ""
	return nil
}

// Current returns the active tenant id or ErrNoTenantContext.
// A non-tenant scope has no id and also yields ErrNoTenantContext.
func (s *Scope) Current() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateTenant {
		return "", ErrNoTenantContext
	}
	return s.id, nil
}

// State returns the current state of the scope.
func (s *Scope) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsNonTenant reports whether the scope was explicitly marked non-tenant.
func (s *Scope) IsNonTenant() bool {
	return s.State() == StateNonTenant
}

// HasContext reports whether Set or SetNonTenant has been called.
func (s *Scope) HasContext() bool {
	return s.State() != StateUnset
}

// Clear resets the scope to StateUnset.
// Connections still bound at this point were leaked by the unit of work.
func (s *Scope) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conns > 0 || s.txs > 0 {
		s.log.Error("Clearing tenant context with bound resources",
			logger.Tenant(s.id),
			logger.Count("connections", s.conns),
			logger.Count("transactions", s.txs),
		)
	}
	s.state = StateUnset
	s.id = ""
}

// Bound returns the number of connections and transactions currently bound.
func (s *Scope) Bound() (conns, txs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns, s.txs
}

// BindConn records a connection checkout. Intended for connection routers.
func (s *Scope) BindConn() {
	s.mu.Lock()
	s.conns++
	s.mu.Unlock()
}

// UnbindConn records a connection release. Intended for connection routers.
func (s *Scope) UnbindConn() {
	s.mu.Lock()
	if s.conns > 0 {
		s.conns--
	}
	s.mu.Unlock()
}

// BeginTx records a transaction start. Intended for connection routers.
func (s *Scope) BeginTx() {
	s.mu.Lock()
	s.txs++
	s.mu.Unlock()
}

// EndTx records a transaction end. Intended for connection routers.
func (s *Scope) EndTx() {
	s.mu.Lock()
	if s.txs > 0 {
		s.txs--
	}
	s.mu.Unlock()
}

func (s *Scope) boundLocked() bool {
	return s.conns > 0 || s.txs > 0
}

// child returns a scope for a nested Run, starting from s's state.
func (s *Scope) child() *Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Scope{state: s.state, id: s.id, parent: s, log: s.log}
}

// chainBound reports whether s or any ancestor holds a connection or an
// open transaction. Locks are taken child first, one at a time.
func (s *Scope) chainBound() bool {
	for p := s; p != nil; p = p.parent {
		p.mu.Lock()
		bound := p.boundLocked()
		p.mu.Unlock()
		if bound {
			return true
		}
	}
	return false
}
