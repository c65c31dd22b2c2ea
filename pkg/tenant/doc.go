// Package tenant provides the tenancy primitives of the system: the tenant
// record and its registry, request-scoped tenant propagation, identifier
// validation, and the resolution middleware.
//
// # Architecture
//
// The package is built around four cooperating pieces:
//
//  1. Context propagation - WithTenant / FromContext / RunWithTenant carry
//     the current tenant through a request's whole call tree, including
//     goroutines started with the derived context, without explicit
//     parameter threading. Concurrent request trees are isolated because
//     each holds its own context chain; there is no global mutable state.
//  2. Registry - the authoritative tenant catalog in the shared "public"
//     schema. Registry queries always run with no tenant in scope.
//  3. Resolvers - extract the tenant identifier from HTTP requests
//     (header, subdomain, or a composite chain).
//  4. Middleware - orchestrates resolution, validation, caching, and scope
//     establishment, rejecting requests with a missing, unknown, invalid,
//     or inactive tenant before any downstream handler runs.
//
// # Usage
//
//	resolver := tenant.NewHeaderResolver("X-Tenant-ID")
//	registry := tenant.NewRegistry(executor)
//	router.Use(tenant.Middleware(resolver, registry,
//		tenant.WithSkipPaths([]string{"/health", "/admin"}),
//	))
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		t := tenant.MustFromContext(r.Context())
//		// every query issued with r.Context() now runs in t's schema
//	}
//
// # Identifier safety
//
// Tenant identifiers double as PostgreSQL schema names and are interpolated
// into DDL and search_path statements, which cannot be parameterized.
// ValidateID is the allow-list boundary: every code path that puts an
// identifier into SQL text validates it first, and downstream components
// obtain identifiers from the registry rather than re-deriving them from
// user input.
package tenant
