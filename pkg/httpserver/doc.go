// Package httpserver wraps net/http with graceful shutdown, signal
// handling, environment-driven configuration, and probe handlers.
package httpserver
