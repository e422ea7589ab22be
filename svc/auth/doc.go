// Package auth holds the application's users: storage, password checks and
// the middleware that resolves the session's user for downstream handlers.
//
// Staff and superusers are privileged; the two-factor enforcement and setup
// flow skip them.
package auth
