// Package pg bootstraps the PostgreSQL layer: a pgx/v5 connection pool with
// startup retry, goose migrations for the shared registry schema, a health
// check closure, and SQLSTATE classification helpers.
//
// The pool it produces is the single bounded set of physical connections
// the whole system shares. Tenant schema binding is not this package's
// concern; see tenantdb for the borrow/bind/reset discipline layered on
// top.
package pg
