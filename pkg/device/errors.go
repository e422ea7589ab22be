package device

import "errors"

var (
	ErrNotFound       = errors.New("device: not found")
	ErrInvalidDevice  = errors.New("device: invalid device")
	ErrKeyImmutable   = errors.New("device: key cannot be changed")
	ErrFailedToCreate = errors.New("device: failed to create")
	ErrFailedToUpdate = errors.New("device: failed to update")
	ErrTokenReplayed  = errors.New("device: token already used")
)
