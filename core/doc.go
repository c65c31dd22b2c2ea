// Package core provides the HTTP response plumbing shared by all routers:
// a Response interface, JSON envelope helpers, and HTTPError values that
// carry status codes and stable error keys.
package core
