// Package totp implements RFC 4226 HOTP and RFC 6238 TOTP codes over raw binary
// secrets, the way authenticator apps expect them.
//
// A secret is a byte slice (20 random bytes by default) which the device store
// persists as lowercase hex. Params carries the per-device settings: step period,
// epoch offset (T0), digit count and the drift window used during verification.
//
// # Usage
//
//	key, _ := totp.NewKey()
//	p := totp.DefaultParams()
//
//	code, _ := totp.Generate(key, p, time.Now())
//	ok := totp.Verify(key, p, code, time.Now())
//
// Verify never returns an error: malformed secrets, non-numeric candidates and codes
// outside the drift window all report false. Generate fails only when the secret is
// unusable, which indicates a corrupted stored credential.
//
// KeyURI builds the otpauth:// provisioning URI consumed by authenticator apps.
package totp
