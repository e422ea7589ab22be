package twofactor

import (
	"html/template"
	"maps"

	"github.com/a-h/templ"

	"github.com/settlex/settlex/pkg/view"
	"github.com/settlex/settlex/pkg/wizard"
)

// Views renders the wizard pages.
type Views struct {
	StepPage func(StepPageParams) templ.Component
}

// StepPageParams is the data for one wizard step page.
type StepPageParams struct {
	Step             string
	Number           int
	Total            int
	CurrentStepField string
	Data             map[string]any
	// Errors are messages not tied to a field.
	Errors      []string
	FieldErrors map[string][]string
}

func newStepPageParams(v wizard.View) StepPageParams {
	p := StepPageParams{
		Step:             v.Step.String(),
		Number:           int(v.Step) + 1,
		Total:            len(wizard.Steps()),
		CurrentStepField: wizard.CurrentStepField,
		Data:             v.Data,
		FieldErrors:      map[string][]string{},
	}
	if v.Errors != nil {
		for field, msgs := range v.Errors.Fields {
			if field == "" {
				p.Errors = append(p.Errors, msgs...)
				continue
			}
			p.FieldErrors[field] = msgs
		}
	}
	return p
}

// VerifyViews renders the login token page.
type VerifyViews struct {
	TokenPage func(VerifyPageParams) templ.Component
}

// VerifyPageParams is the data for the login token page.
type VerifyPageParams struct {
	Next       string
	TokenField string
	Digits     int
	Error      string
}

const verifyTokenField = "token"

var pages = view.MustParse(map[string]string{
	"verify": `{{define "title"}}Two-factor authentication{{end}}
{{define "content"}}<section class="two-factor-verify">
<h1>Enter your token</h1>
<p>Enter the code shown by your authenticator app.</p>
{{if .Error}}<p class="error" role="alert">{{.Error}}</p>{{end}}
<form method="post" action="">
<input type="hidden" name="next" value="{{.Next}}">
<label>Token <input type="text" name="{{.TokenField}}" inputmode="numeric" autocomplete="one-time-code" maxlength="{{.Digits}}" autofocus required></label>
<button type="submit">Verify</button>
</form>
</section>{{end}}`,
	"step": `{{define "title"}}Two-factor setup{{end}}
{{define "content"}}<section class="two-factor-setup" id="two-factor-setup">
<h1>Enable two-factor authentication</h1>
<p class="progress">Step {{.Number}} of {{.Total}}</p>
{{range .Errors}}<p class="error" role="alert">{{.}}</p>{{end}}
<form method="post" action="">
<input type="hidden" name="{{.CurrentStepField}}" value="{{.Step}}">
{{if eq .Step "welcome"}}
<p>Your account must be protected with a one-time code from an authenticator app before you can continue.</p>
<button type="submit">Get started</button>
{{else if eq .Step "generator"}}
{{if .Data.Unavailable}}
<p class="error" role="alert">Provisioning is currently unavailable. Please reload the page to try again.</p>
{{else}}
<p>Scan this QR code with your authenticator app.</p>
<img src="{{.Data.QRDataURI}}" alt="QR code" width="256" height="256">
<p>Or enter this key manually: <code>{{.Data.SecretBase32}}</code></p>
{{end}}
<button type="submit">Next</button>
{{else if eq .Step "validation"}}
{{$field := .Data.TokenField}}
<label>Token <input type="text" name="{{$field}}" inputmode="numeric" autocomplete="one-time-code" maxlength="{{.Data.Digits}}" autofocus required></label>
{{range index .FieldErrors $field}}<p class="error" role="alert">{{.}}</p>{{end}}
<button type="submit">Verify</button>
{{end}}
</form>
</section>{{end}}`,
})

// DefaultVerifyViews returns the built-in login token page.
func DefaultVerifyViews() VerifyViews {
	return VerifyViews{
		TokenPage: func(p VerifyPageParams) templ.Component {
			return view.Page(pages["verify"], p)
		},
	}
}

// DefaultViews returns the built-in wizard pages.
func DefaultViews() Views {
	return Views{
		StepPage: func(p StepPageParams) templ.Component {
			// The QR data URI is generated server-side; html/template would
			// otherwise filter data: URLs.
			if uri, ok := p.Data["QRDataURI"].(string); ok {
				p.Data = maps.Clone(p.Data)
				p.Data["QRDataURI"] = template.URL(uri)
			}
			return view.Page(pages["step"], p)
		},
	}
}
