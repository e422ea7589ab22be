package session

import "errors"

var (
	ErrInvalidSession   = errors.New("session.invalid")
	ErrSessionExpired   = errors.New("session.expired")
	ErrSessionNotFound  = errors.New("session.not_found")
	ErrNotAuthenticated = errors.New("session.not_authenticated")
	ErrTokenGeneration  = errors.New("session.token_generation_failed")
	ErrStoreFailure     = errors.New("session.store_failure")
)
