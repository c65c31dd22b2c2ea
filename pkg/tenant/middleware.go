package tenant

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Provider loads tenant information from an authoritative source.
// The Registry is the canonical implementation.
type Provider interface {
	// GetByIdentifier retrieves a tenant by its identifier.
	// Returns ErrTenantNotFound when no tenant matches.
	GetByIdentifier(ctx context.Context, identifier string) (*Tenant, error)
}

// Middleware creates HTTP middleware that resolves the tenant named by each
// inbound request, validates it against the Provider, and establishes the
// tenant scope for the rest of the request's processing.
//
// Requests on non-skipped paths are rejected outright when they carry no
// identifier, name an unknown tenant, or name an inactive one. A request
// never proceeds to a downstream handler with an unresolved tenant.
func Middleware(resolver Resolver, provider Provider, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		cache:        NewInMemoryCache(),
		cacheTTL:     5 * time.Minute,
		errorHandler: defaultErrorHandler,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			identifier, err := resolver.Resolve(r)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}
			if identifier == "" {
				cfg.errorHandler(w, r, ErrMissingTenantID)
				return
			}
			if err := ValidateID(identifier); err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			t, ok := cfg.cache.Get(r.Context(), identifier)
			if !ok {
				t, err = provider.GetByIdentifier(r.Context(), identifier)
				if err != nil {
					cfg.errorHandler(w, r, err)
					return
				}
				cfg.cache.Set(r.Context(), identifier, t, cfg.cacheTTL)
			}

			if !t.Active() {
				cfg.errorHandler(w, r, ErrTenantInactive)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), t)))
		})
	}
}

// RequireTenant ensures a tenant is present in the request context. Mount it
// on routes that must never run unscoped.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); !ok {
				errorHandler(w, r, ErrNoTenantInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
