package tenant

import (
	"regexp"
	"strings"
)

// identifierRegex is the safe-identifier grammar for tenant IDs. The ID is
// interpolated into CREATE SCHEMA / SET search_path statements where
// parameter binding is impossible, so this allow-list is the injection
// defense: lowercase letter first, then lowercase letters, digits and
// underscores, 3-63 chars total (PostgreSQL identifier limit).
var identifierRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{2,62}$`)

// reservedIdentifiers are schema names that must never be claimed by a
// tenant. "public" is the neutral default schema holding the registry.
var reservedIdentifiers = map[string]struct{}{
	"public":             {},
	"information_schema": {},
	"pg_catalog":         {},
	"pg_toast":           {},
}

// ValidateID checks id against the safe-identifier grammar and the reserved
// name list. Returns ErrInvalidIdentifier on any violation. Every code path
// that interpolates a tenant ID into SQL must call this first.
func ValidateID(id string) error {
	if !identifierRegex.MatchString(id) {
		return ErrInvalidIdentifier
	}
	if _, reserved := reservedIdentifiers[id]; reserved {
		return ErrInvalidIdentifier
	}
	if strings.HasPrefix(id, "pg_") {
		return ErrInvalidIdentifier
	}
	return nil
}
