package auth

import "errors"

var (
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrEmailAlreadyExists = errors.New("auth: email already exists")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidUser        = errors.New("auth: invalid user")
	ErrPasswordRequired   = errors.New("auth: password is required")
	ErrFailedToHash       = errors.New("auth: failed to hash password")
)
