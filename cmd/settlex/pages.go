package main

import (
	"github.com/settlex/settlex/handler"
	"github.com/settlex/settlex/pkg/view"
	"github.com/settlex/settlex/svc/auth"
)

var pages = view.MustParse(map[string]string{
	"home": `{{define "title"}}Settlex{{end}}
{{define "content"}}<section class="home">
<h1>Settlex</h1>
<p>Settlement instructions, documents and messages for conveyancing firms and their clients.</p>
<p><a href="{{.LoginURL}}">Sign in</a></p>
</section>{{end}}`,
	"landing": `{{define "title"}}My settlements{{end}}
{{define "content"}}<section class="settlements">
<h1>My settlements</h1>
<p class="muted">Signed in as {{.Email}}</p>
<p>You have no settlements yet.</p>
<form method="post" action="{{.LogoutURL}}"><button type="submit">Sign out</button></form>
</section>{{end}}`,
	"admin": `{{define "title"}}Administration{{end}}
{{define "content"}}<section class="admin">
<h1>Administration</h1>
<p class="muted">Signed in as {{.Email}}</p>
<p>Staff accounts are exempt from two-factor enrollment.</p>
<form method="post" action="{{.LogoutURL}}"><button type="submit">Sign out</button></form>
</section>{{end}}`,
})

type pageData struct {
	Email     string
	LoginURL  string
	LogoutURL string
}

// home sends signed-in users to their landing page; unenrolled users never
// get here because the enforcer redirects them first.
func (s *server) home(ctx handler.Context, _ struct{}) handler.Response {
	user := auth.GetUserFromContext(ctx.Request().Context())
	switch {
	case user == nil:
		return handler.Templ(view.Page(pages["home"], pageData{LoginURL: s.reverse("login")}))
	case user.Privileged():
		return handler.Redirect(s.cfg.TwoFactor.AdminURL)
	default:
		return handler.Redirect(s.cfg.TwoFactor.LandingURL)
	}
}

func (s *server) landing(ctx handler.Context, _ struct{}) handler.Response {
	user := auth.GetUserFromContext(ctx.Request().Context())
	if user == nil {
		return handler.Fail(handler.ErrUnauthorized)
	}
	return handler.Templ(view.Page(pages["landing"], pageData{Email: user.Email, LogoutURL: s.reverse("logout")}))
}

func (s *server) admin(ctx handler.Context, _ struct{}) handler.Response {
	user := auth.GetUserFromContext(ctx.Request().Context())
	if !user.Privileged() {
		return handler.Fail(handler.ErrForbidden)
	}
	return handler.Templ(view.Page(pages["admin"], pageData{Email: user.Email, LogoutURL: s.reverse("logout")}))
}
