package account

import (
	"github.com/a-h/templ"

	"github.com/settlex/settlex/pkg/view"
)

var pages = view.MustParse(map[string]string{
	"login": `{{define "title"}}Sign in{{end}}
{{define "content"}}<section class="login">
<h1>Sign in</h1>
{{if .Error}}<p class="error" role="alert">{{.Error}}</p>{{end}}
<form method="post" action="">
<input type="hidden" name="next" value="{{.Next}}">
<label>Email <input type="email" name="email" value="{{.Email}}" autocomplete="username" required></label>
<label>Password <input type="password" name="password" autocomplete="current-password" required></label>
<button type="submit">Sign in</button>
</form>
</section>{{end}}`,
})

// DefaultViews returns the built-in account pages.
func DefaultViews() Views {
	return Views{
		LoginPage: func(p LoginPageParams) templ.Component {
			return view.Page(pages["login"], p)
		},
	}
}
