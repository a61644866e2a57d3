package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hermeshr/tenancy/pkg/logger"
)

// TokenExtractorFunc extracts a raw token from an HTTP request. It returns
// ErrMissingToken when the request carries no token at all.
type TokenExtractorFunc func(r *http.Request) (string, error)

// SkipFunc reports whether a request bypasses verification entirely.
type SkipFunc func(r *http.Request) bool

// MiddlewareConfig configures Authenticate.
type MiddlewareConfig struct {
	Verifier  *Verifier          // Verifier checks extracted tokens
	Extractor TokenExtractorFunc // Extractor defaults to BearerTokenExtractor
	Skip      SkipFunc           // Skip is an optional request filter
	Logger    *slog.Logger       // Logger receives rejected-token diagnostics
}

// Middleware verifies bearer tokens with the default configuration.
func Middleware(v *Verifier) func(next http.Handler) http.Handler {
	return Authenticate(MiddlewareConfig{Verifier: v})
}

// Authenticate verifies the request token and stores the resulting Identity
// in the request context. Requests without any token pass through
// unauthenticated so the tenant fallback strategy can decide; requests with
// an unverifiable token are rejected with 401.
func Authenticate(cfg MiddlewareConfig) func(next http.Handler) http.Handler {
	if cfg.Extractor == nil {
		cfg.Extractor = BearerTokenExtractor
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			token, err := cfg.Extractor(r)
			if errors.Is(err, ErrMissingToken) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				reject(w, r, cfg.Logger, err)
				return
			}

			id, err := cfg.Verifier.Verify(token)
			if err != nil {
				reject(w, r, cfg.Logger, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	log.DebugContext(r.Context(), "rejected bearer token",
		logger.Path(r.URL.Path),
		logger.Error(err))
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}

// BearerTokenExtractor extracts tokens from "Authorization: Bearer <token>".
func BearerTokenExtractor(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" || strings.Contains(token, " ") {
		return "", ErrInvalidToken
	}
	return token, nil
}

// CookieTokenExtractor reads the token from the named cookie.
func CookieTokenExtractor(cookieName string) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		cookie, err := r.Cookie(cookieName)
		if err != nil || cookie.Value == "" {
			return "", ErrMissingToken
		}
		return cookie.Value, nil
	}
}

// HeaderTokenExtractor reads the raw token from a custom header.
func HeaderTokenExtractor(headerName string) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		token := r.Header.Get(headerName)
		if token == "" {
			return "", ErrMissingToken
		}
		return token, nil
	}
}
