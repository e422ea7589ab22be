package account

import (
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/settlex/settlex/pkg/urls"
)

// Route names registered by RegisterURLs.
const (
	RouteLogin  = "login"
	RouteLogout = "logout"
)

const (
	loginPath  = "/login/"
	logoutPath = "/logout/"
)

type Mountable interface {
	Handle() http.Handler
}

// RouterOptions selects the services mounted by Router.
type RouterOptions struct {
	Password Mountable
}

// Router mounts the configured account services.
//
//	r.Mount("/accounts", account.Router(account.RouterOptions{Password: passwordSvc}))
//	account.RegisterURLs(registry, "/accounts")
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	if opts.Password != nil {
		r.Mount("/", opts.Password.Handle())
	}
	return r
}

// RegisterURLs records the login and logout paths under mount.
func RegisterURLs(reg *urls.Registry, mount string) error {
	if err := reg.Register(RouteLogin, join(mount, loginPath)); err != nil {
		return err
	}
	return reg.Register(RouteLogout, join(mount, logoutPath))
}

func join(mount, p string) string {
	return path.Join("/", mount, p) + "/"
}
