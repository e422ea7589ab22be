package totp

import "errors"

var (
	ErrInvalidSecret          = errors.New("invalid TOTP secret")
	ErrFailedToGenerateSecret = errors.New("failed to generate TOTP secret")
	ErrMissingAccountName     = errors.New("missing account name")
	ErrMissingIssuer          = errors.New("missing issuer")
)
