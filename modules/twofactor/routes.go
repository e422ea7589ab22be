package twofactor

import (
	"github.com/settlex/settlex/pkg/urls"
)

// Route names registered by this package.
const (
	// RouteSetup names the wizard entry point.
	RouteSetup = "two_factor_setup"
	// RouteVerify names the token step of the login.
	RouteVerify = "two_factor_verify"
)

// RegisterURLs records the wizard path. SetupService.Handle serves it at the
// mount root.
func RegisterURLs(reg *urls.Registry, mount string) error {
	return reg.Register(RouteSetup, withSlash(mount))
}

// RegisterVerifyURL records the login token path served by
// VerifyService.Handle.
func RegisterVerifyURL(reg *urls.Registry, mount string) error {
	return reg.Register(RouteVerify, withSlash(mount))
}

func withSlash(mount string) string {
	if mount == "" || mount[len(mount)-1] != '/' {
		return mount + "/"
	}
	return mount
}
