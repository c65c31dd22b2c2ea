package provision

import "errors"

var (
	// ErrProvisioningFailed is returned when any step of tenant creation
	// fails. The enclosing transaction has been rolled back: no schema, no
	// registry row.
	ErrProvisioningFailed = errors.New("tenant provisioning failed")

	// ErrDeprovisioningFailed is returned when tenant destruction fails.
	// The schema and registry row are left fully intact.
	ErrDeprovisioningFailed = errors.New("tenant deprovisioning failed")

	// ErrSecondFactorRequired is returned when a destructive operation is
	// attempted without a second-factor code.
	ErrSecondFactorRequired = errors.New("second factor confirmation required")

	// ErrInvalidSecondFactor is returned when the submitted second-factor
	// code does not verify.
	ErrInvalidSecondFactor = errors.New("invalid second factor code")

	// ErrAdminNotFound is returned when a tenant partition holds no
	// administrator identity to update.
	ErrAdminNotFound = errors.New("administrator identity not found")

	// ErrWeakPassword is returned when an administrator password does not
	// meet the minimum length.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
)
