package ratelimiter

import "errors"

var (
	ErrInvalidConfig     = errors.New("ratelimiter: invalid configuration")
	ErrStoreUnavailable  = errors.New("ratelimiter: store unavailable")
	ErrInvalidTokenCount = errors.New("ratelimiter: token count must be positive")
)
