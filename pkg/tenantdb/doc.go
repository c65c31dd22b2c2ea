// Package tenantdb routes every database operation to the schema of the
// tenant in the caller's context, over one shared pool of physical
// connections.
//
// Connections are generic, not pooled per tenant. Each borrow is bound to
// the requested tenant's schema with SET search_path immediately before use
// and reset to the neutral default schema before release. That discipline is
// the isolation guarantee: the single unacceptable outcome is a connection
// returning to the pool while still bound to a tenant schema, where the next
// borrower would silently operate on the wrong tenant's data. When the reset
// itself fails, the executor therefore destroys the connection rather than
// release it, and the pool opens a replacement.
//
// # Usage
//
//	pool := tenantdb.NewPgxPool(pgxPool)
//	db := tenantdb.NewExecutor(pool, tenantdb.WithLogger(log))
//
//	// Inside a request with a tenant scope established by the middleware:
//	_, err := db.Exec(r.Context(),
//		"INSERT INTO employees (name) VALUES ($1)", name)
//
// The same call with no tenant in scope runs against the shared default
// schema, which is what the registry and operator paths want.
//
// Acquisition blocks when the pool is exhausted, bounded by the configured
// timeout; past it the call fails with ErrPoolExhausted, a retryable
// capacity error.
package tenantdb
