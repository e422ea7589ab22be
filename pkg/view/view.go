// Package view renders html/template pages as templ components.
//
// Every page set shares the base layout; a page defines a "content" block
// and is rendered through "layout".
package view

import (
	"context"
	"errors"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

var ErrRender = errors.New("view: failed to render template")

const layout = `{{define "layout"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{block "title" .}}Settlex{{end}}</title>
<link rel="stylesheet" href="/static/app.css">
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"></script>
</head>
<body>
<div id="toast-container"></div>
<main id="content">{{template "content" .}}</main>
</body>
</html>{{end}}`

// Parse builds a template set from the base layout plus pages. Each page is
// parsed into its own clone so "content" blocks do not collide.
func Parse(pages map[string]string) (map[string]*template.Template, error) {
	base, err := template.New("base").Parse(layout)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*template.Template, len(pages))
	for name, src := range pages {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.New(name).Parse(src); err != nil {
			return nil, err
		}
		out[name] = t
	}
	return out, nil
}

// MustParse is Parse that panics.
func MustParse(pages map[string]string) map[string]*template.Template {
	set, err := Parse(pages)
	if err != nil {
		panic(err)
	}
	return set
}

// Page renders t through the layout.
func Page(t *template.Template, data any) templ.Component {
	return Fragment(t, "layout", data)
}

// Fragment renders a single named template of t without the layout.
func Fragment(t *template.Template, name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if t == nil {
			return ErrRender
		}
		if err := t.ExecuteTemplate(w, name, data); err != nil {
			return errors.Join(ErrRender, err)
		}
		return nil
	})
}
