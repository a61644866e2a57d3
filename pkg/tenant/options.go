package tenant

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// FallbackStrategy decides what happens when a unit of work that requires
// isolation carries no identity or no tenant claim.
type FallbackStrategy string

const (
	// FailFast rejects the unit of work. This is the default.
	FailFast FallbackStrategy = "FAIL_FAST"
	// LogAndAllow logs a warning and proceeds with no tenant bound.
	LogAndAllow FallbackStrategy = "LOG_AND_ALLOW"
	// AllowDefault proceeds bound to the configured default tenant, or with
	// no tenant when none is configured.
	AllowDefault FallbackStrategy = "ALLOW_DEFAULT"
)

// ParseFallbackStrategy parses a strategy name, case-insensitively.
func ParseFallbackStrategy(s string) (FallbackStrategy, error) {
	switch FallbackStrategy(strings.ToUpper(strings.TrimSpace(s))) {
	case FailFast, "":
		return FailFast, nil
	case LogAndAllow:
		return LogAndAllow, nil
	case AllowDefault:
		return AllowDefault, nil
	}
	return "", errors.Join(ErrInvalidStrategy, fmt.Errorf("unknown strategy %q", s))
}

// UnmarshalText lets configuration loaders parse the strategy directly.
func (s *FallbackStrategy) UnmarshalText(text []byte) error {
	v, err := ParseFallbackStrategy(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ErrorHandler writes the response for a rejected request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Option configures the Binder.
type Option func(*Binder)

// WithEnabled toggles tenant binding. A disabled binder attaches an unset
// scope and never resolves tenants.
func WithEnabled(enabled bool) Option {
	return func(b *Binder) { b.enabled = enabled }
}

// WithResolver sets the tenant resolver.
func WithResolver(r Resolver) Option {
	return func(b *Binder) {
		if r != nil {
			b.resolver = r
		}
	}
}

// WithStrategy sets the fallback strategy for missing tenant information.
func WithStrategy(s FallbackStrategy) Option {
	return func(b *Binder) {
		if s != "" {
			b.strategy = s
		}
	}
}

// WithDefaultTenant sets the tenant bound under AllowDefault.
func WithDefaultTenant(id string) Option {
	return func(b *Binder) { b.defaultTenant = strings.TrimSpace(id) }
}

// WithExcludePaths sets request path patterns exempt from tenant resolution.
func WithExcludePaths(patterns ...string) Option {
	return func(b *Binder) { b.excludes = newPathMatcher(patterns) }
}

// WithAvailability rejects tenants whose storage is not ready.
func WithAvailability(a Availability) Option {
	return func(b *Binder) { b.availability = a }
}

// WithErrorHandler sets a custom error handler for HTTP rejections.
func WithErrorHandler(h ErrorHandler) Option {
	return func(b *Binder) {
		if h != nil {
			b.errorHandler = h
		}
	}
}

// WithSecurityLogging logs every bind and clear at debug level.
func WithSecurityLogging(enabled bool) Option {
	return func(b *Binder) { b.securityLogging = enabled }
}

// WithLogger sets a custom logger for the binder.
func WithLogger(l *slog.Logger) Option {
	return func(b *Binder) {
		if l != nil {
			b.log = l
		}
	}
}

// defaultErrorHandler never reveals tenant or schema names.
func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTenantAuthenticationMissing):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrTenantInfoMissing):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, ErrTenantUnavailable):
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
