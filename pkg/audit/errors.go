package audit

import "errors"

var (
	ErrEventValidation = errors.New("audit: invalid event")
	ErrStorageFailure  = errors.New("audit: failed to store event")
)
