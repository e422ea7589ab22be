package view

import "github.com/a-h/templ"

var errorPages = MustParse(map[string]string{
	"error": `{{define "title"}}Error {{.Status}}{{end}}
{{define "content"}}<section class="error">
<h1>{{.Status}}</h1>
<p>{{.Message}}</p>
{{if .RequestID}}<p class="muted">Reference: {{.RequestID}}</p>{{end}}
</section>{{end}}
{{define "toast"}}<div class="toast toast-error">{{.Message}}</div>{{end}}`,
})

type errorData struct {
	Status    int
	Message   string
	RequestID string
}

// ErrorPage renders a full error page.
func ErrorPage(status int, message, requestID string) templ.Component {
	return Page(errorPages["error"], errorData{Status: status, Message: message, RequestID: requestID})
}

// ErrorToast renders the error as a toast fragment for partial updates.
func ErrorToast(message string) templ.Component {
	return Fragment(errorPages["error"], "toast", errorData{Message: message})
}
