// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and a bound request value and returns a
// Response. Wrap binds the request with the configured binders, calls the
// handler and renders the result, sending binder and render failures to an
// ErrorHandler. Responses understand DataStar requests: Templ patches elements
// over SSE and Redirect issues a client-side redirect instead of a 3xx.
//
//	r.Post("/login", handler.Wrap(svc.login,
//	    handler.WithBinders[loginRequest](binder.Form()),
//	    handler.WithErrorHandler[loginRequest](errorHandler),
//	))
package handler
