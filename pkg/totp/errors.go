package totp

import "errors"

var (
	ErrFailedToGenerateSecret = errors.New("failed to generate TOTP secret key")
	ErrInvalidSecret          = errors.New("invalid TOTP secret")
	ErrInvalidCode            = errors.New("invalid TOTP code format")
)
