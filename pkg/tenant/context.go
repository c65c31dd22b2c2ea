package tenant

import (
	"context"
	"log/slog"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithTenant returns a context scoped to the given tenant. Nested calls
// shadow the outer tenant for the lifetime of the derived context only;
// the outer scope is untouched.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// ClearTenant returns a context with no tenant in scope, regardless of any
// tenant bound further up the chain. Registry and operator paths use it so
// their queries run against the shared schema even when called from inside
// a request scope.
func ClearTenant(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, (*Tenant)(nil))
}

// FromContext retrieves the tenant from the context.
// Returns nil, false if no tenant is in scope.
func FromContext(ctx context.Context) (*Tenant, bool) {
	t, ok := ctx.Value(contextKey{}).(*Tenant)
	if !ok || t == nil {
		return nil, false
	}
	return t, true
}

// IDFromContext retrieves just the tenant ID from the context.
func IDFromContext(ctx context.Context) (string, bool) {
	t, ok := FromContext(ctx)
	if !ok {
		return "", false
	}
	return t.ID, true
}

// MustFromContext retrieves the tenant from the context and panics if absent.
// Use only in handlers that sit behind RequireTenant.
func MustFromContext(ctx context.Context) *Tenant {
	t, ok := FromContext(ctx)
	if !ok {
		panic("tenant: no tenant in context")
	}
	return t
}

// RunWithTenant executes fn under a scope where FromContext returns t.
// Everything fn transitively invokes with the derived context, including
// goroutines it spawns, observes the same tenant. The scope ends when fn
// returns; the caller's context keeps whatever tenant it had before.
func RunWithTenant(ctx context.Context, t *Tenant, fn func(context.Context) error) error {
	return fn(WithTenant(ctx, t))
}

// LoggerExtractor returns a context extractor for the logger that attaches
// the current tenant ID to log records emitted inside a tenant scope.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IDFromContext(ctx); ok {
			return slog.String("tenant_id", id), true
		}
		return slog.Attr{}, false
	}
}
