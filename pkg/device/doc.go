// Package device persists TOTP enrollment credentials, one row per device.
//
// A user may own several devices, but only the confirmed device named
// DefaultName counts as "the default device" for enforcement. Service.Confirm
// keeps that invariant: promoting a device clears the default name from every
// other device of the same user.
//
// Device ids arrive from client-controlled wizard state, so Service.Get always
// re-checks ownership and reports a foreign device as ErrNotFound.
//
// Storage backends implement Store: MemoryStore for tests and development,
// PGStore on top of pgx, and CachedStore which memoizes confirmed-device
// lookups for the enforcement hot path.
package device
