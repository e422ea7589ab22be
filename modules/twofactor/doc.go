// Package twofactor enrolls users in TOTP two-factor authentication and
// keeps unenrolled users out of the rest of the application.
//
// SetupService drives the welcome, generator and validation steps of the
// setup wizard on top of pkg/wizard. Its state lives in the user's session,
// so the device created on the generator step is the one checked on the
// validation step. Completing the wizard confirms that device as the user's
// default and marks the session OTP-verified.
//
// VerifyService is the token step of the login: a user with a default device
// enters a token from it after the password, under the same per-user attempt
// limit as the wizard, and the session is marked OTP-verified.
//
// Enforcer redirects authenticated, non-privileged users without a default
// device to the wizard, and those with a default device but an unverified
// session to the token step. Login, logout and the wizard itself are exempt by
// route name; static, media and admin paths by prefix. When a route name
// cannot be resolved it is logged and dropped from the allow-list, so the
// middleware fails closed.
package twofactor
