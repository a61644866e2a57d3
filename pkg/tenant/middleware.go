package tenant

import (
	"net/http"
)

// Middleware creates HTTP middleware binding the tenant for every request
// it wraps. Route options are resolved once, here, at registration time:
//
//	r.Group(func(r chi.Router) {
//		r.Use(binder.Middleware(tenant.Exempt()))
//		r.Get("/healthz", health)
//	})
//
// Requests whose path matches an exclude pattern are treated as exempt.
func (b *Binder) Middleware(opts ...RouteOption) func(http.Handler) http.Handler {
	route := NewRoute(opts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rt := route
			if rt.Name == "" {
				rt.Name = r.URL.Path
			}
			if !rt.Exempt && b.excludes.match(r.URL.Path) {
				rt.Exempt = true
			}

			ctx, release, err := b.Bind(r.Context(), rt)
			if err != nil {
				b.errorHandler(w, r, err)
				return
			}
			defer release()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTenant creates middleware rejecting requests that reach it
// without a bound tenant, for routes that must never run unisolated even
// under a lenient fallback strategy.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := Current(r.Context()); err != nil {
				errorHandler(w, r, ErrTenantInfoMissing)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
