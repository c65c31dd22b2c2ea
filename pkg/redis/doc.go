// Package redis wraps the go-redis client with environment-driven
// configuration, connection retry, and a readiness probe. The application
// uses it for the shared tenant lookup cache; the package itself is
// cache-agnostic.
package redis
