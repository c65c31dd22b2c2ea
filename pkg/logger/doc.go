// Package logger builds configured slog loggers with optional context
// attribute extraction.
//
// Context extractors let request-scoped values surface on every record
// without the call sites knowing about them; the tenant package provides an
// extractor that attaches the current tenant ID, which is how partition
// rebind failures and other tenancy events stay attributable in production
// logs.
package logger
