package tenant

import (
	"context"
	"sync"
	"time"
)

// DefaultCacheSize is the default maximum number of items in a SessionCache.
const DefaultCacheSize = 1000

// DefaultCacheTTL is the default lifetime of a SessionCache entry.
const DefaultCacheTTL = 5 * time.Minute

// SessionCache is an in-memory TTL/LRU cache whose entries are partitioned
// by the tenant resolved from the calling context. A lookup made while
// tenant B is bound never observes values stored while tenant A was bound.
type SessionCache[V any] struct {
	source  Source
	mu      sync.Mutex
	items   map[cacheKey]cacheItem[V]
	lru     []cacheKey
	maxSize int
	ttl     time.Duration
	stop    chan struct{}
	done    chan struct{}
	closed  bool
}

type cacheKey struct {
	tenant string
	key    string
}

type cacheItem[V any] struct {
	value     V
	expiresAt time.Time
}

// NewSessionCache creates a cache and starts its cleanup goroutine.
// Non-positive size or ttl fall back to the defaults.
func NewSessionCache[V any](source Source, maxSize int, ttl time.Duration) *SessionCache[V] {
	if source == nil {
		source = NewIdentifierSource()
	}
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	c := &SessionCache[V]{
		source:  source,
		items:   make(map[cacheKey]cacheItem[V]),
		lru:     make([]cacheKey, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Get retrieves a value stored under key for the current tenant.
func (c *SessionCache[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	k := c.key(ctx, key)

	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[k]
	if !exists {
		return zero, false
	}

	if time.Now().After(item.expiresAt) {
		delete(c.items, k)
		c.removeLRU(k)
		return zero, false
	}

	c.updateLRU(k)
	return item.value, true
}

// Set stores value under key for the current tenant.
func (c *SessionCache[V]) Set(ctx context.Context, key string, value V) {
	k := c.key(ctx, key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[k]; !exists && len(c.items) >= c.maxSize {
		if len(c.lru) > 0 {
			evict := c.lru[0]
			delete(c.items, evict)
			c.lru = c.lru[1:]
		}
	}

	c.items[k] = cacheItem[V]{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.updateLRU(k)
}

// Delete removes key for the current tenant.
func (c *SessionCache[V]) Delete(ctx context.Context, key string) {
	k := c.key(ctx, key)

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, k)
	c.removeLRU(k)
}

// Invalidate drops every entry stored for tenantID, e.g. after its schema
// was migrated or dropped. An empty id targets the neutral partition.
func (c *SessionCache[V]) Invalidate(tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.items {
		if k.tenant == tenantID {
			delete(c.items, k)
			c.removeLRU(k)
		}
	}
}

// Len returns the number of entries, including expired ones not yet swept.
func (c *SessionCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close stops the cleanup goroutine and waits for it to finish.
func (c *SessionCache[V]) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	<-c.done
	return nil
}

func (c *SessionCache[V]) key(ctx context.Context, key string) cacheKey {
	return cacheKey{tenant: c.source.ResolveCurrentTenant(ctx), key: key}
}

func (c *SessionCache[V]) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *SessionCache[V]) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, k)
			c.removeLRU(k)
		}
	}
}

// updateLRU moves the key to the end of the LRU queue (most recently used).
func (c *SessionCache[V]) updateLRU(k cacheKey) {
	c.removeLRU(k)
	c.lru = append(c.lru, k)
}

func (c *SessionCache[V]) removeLRU(k cacheKey) {
	for i, existing := range c.lru {
		if existing == k {
			c.lru = append(c.lru[:i], c.lru[i+1:]...)
			return
		}
	}
}

// Session is long-lived session state (statement caches, identity maps)
// that may be reused across units of work. It remembers the tenant it was
// populated for and discards its state when used under another tenant.
type Session struct {
	source Source
	mu     sync.Mutex
	tenant string
	bound  bool
	state  map[string]any
}

// NewSession returns an empty session.
func NewSession(source Source) *Session {
	if source == nil {
		source = NewIdentifierSource()
	}
	return &Session{source: source, state: make(map[string]any)}
}

// Validate binds the session to the current tenant. It returns false when
// the tenant changed and the previous state was discarded.
func (s *Session) Validate(ctx context.Context) bool {
	current := s.source.ResolveCurrentTenant(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.validateLocked(current)
}

// Tenant returns the tenant the session state belongs to.
func (s *Session) Tenant() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tenant
}

// Get returns a value from the session after validating the tenant.
func (s *Session) Get(ctx context.Context, key string) (any, bool) {
	current := s.source.ResolveCurrentTenant(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.validateLocked(current)
	v, ok := s.state[key]
	return v, ok
}

// Put stores a value in the session after validating the tenant.
func (s *Session) Put(ctx context.Context, key string, value any) {
	current := s.source.ResolveCurrentTenant(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.validateLocked(current)
	s.state[key] = value
}

func (s *Session) validateLocked(current string) bool {
	if !s.bound {
		s.tenant = current
		s.bound = true
		return true
	}
	if s.tenant == current || !s.source.ValidateExistingSessions() {
		return true
	}
	s.tenant = current
	clear(s.state)
	return false
}
