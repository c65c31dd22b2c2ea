// Package requestid assigns every inbound request a correlation ID, carried
// in the X-Request-ID header and the request context. A client-supplied ID
// is honored when well-formed; anything else is replaced with a fresh UUID.
//
// LoggerExtractor integrates with the logger package so the ID appears on
// every record emitted while handling the request.
package requestid
