package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when a tenant cannot be found in the registry.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrMissingTenantID is returned when a request carries no tenant identifier.
	ErrMissingTenantID = errors.New("missing tenant identifier")

	// ErrInvalidIdentifier is returned when an identifier violates the
	// safe-identifier grammar and therefore can never name a schema.
	ErrInvalidIdentifier = errors.New("invalid tenant identifier")

	// ErrTenantInactive is returned when the resolved tenant exists but is not active.
	ErrTenantInactive = errors.New("tenant is inactive")

	// ErrTenantAlreadyExists is returned when creating a tenant whose
	// identifier is already registered.
	ErrTenantAlreadyExists = errors.New("tenant already exists")

	// ErrInvalidStatus is returned when a patch carries a lifecycle state
	// outside the known set.
	ErrInvalidStatus = errors.New("invalid tenant status")

	// ErrNoTenantInContext is returned when a tenant is required but absent from context.
	ErrNoTenantInContext = errors.New("no tenant in context")
)
