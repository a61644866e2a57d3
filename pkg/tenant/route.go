package tenant

import (
	"path"
	"strings"
)

// Route is the tenancy metadata of a handler or message consumer,
// resolved once at registration time.
type Route struct {
	// Name identifies the route in logs.
	Name string
	// Exempt routes run outside tenant isolation and never resolve a tenant.
	Exempt bool
}

// RouteOption configures a Route.
type RouteOption func(*Route)

// Exempt marks the route as tenant-exempt (health checks, tenant creation
// and other platform operations).
func Exempt() RouteOption {
	return func(r *Route) { r.Exempt = true }
}

// Named sets the route name used in logs.
func Named(name string) RouteOption {
	return func(r *Route) { r.Name = name }
}

// NewRoute builds route metadata from options.
func NewRoute(opts ...RouteOption) Route {
	var r Route
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// pathMatcher matches request paths against exclude patterns.
// "/prefix/**" matches the prefix and everything below it; other patterns
// use path.Match semantics.
type pathMatcher struct {
	patterns []string
}

func newPathMatcher(patterns []string) pathMatcher {
	clean := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	return pathMatcher{patterns: clean}
}

func (m pathMatcher) match(p string) bool {
	for _, pattern := range m.patterns {
		if matchPath(pattern, p) {
			return true
		}
	}
	return false
}

func matchPath(pattern, p string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return p == prefix || strings.HasPrefix(p, prefix+"/")
	}
	ok, err := path.Match(pattern, p)
	return err == nil && ok
}
