package twofactor

import "errors"

var (
	ErrNoSession = errors.New("twofactor: request has no session")
	ErrNoUser    = errors.New("twofactor: request has no authenticated user")
)

// User-facing messages.
const (
	msgDeviceMissing = "The device for this setup is missing. Please restart the setup."
	msgInvalidToken  = "Entered token is not valid."
	msgTokenRequired = "This field is required."
	msgStaleForm     = "This form is out of date. Please continue from the current step."
	msgIncomplete    = "Please complete this step first."
	msgThrottled     = "Too many attempts. Please wait a minute and try again."
)
