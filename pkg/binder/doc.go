// Package binder fills request structs from form bodies and query strings.
//
// Fields are matched by the `form` or `query` struct tag; untagged fields use
// the lower-cased field name and `-` skips a field. Supported kinds are
// strings, signed and unsigned integers, floats, bools, pointers to those and
// slices of those.
//
//	type loginRequest struct {
//		Email    string `form:"email"`
//		Password string `form:"password"`
//		Next     string `query:"next"`
//	}
//
//	h := handler.Wrap(login, handler.WithBinders[loginRequest](binder.Form(), binder.Query()))
//
// A binder that has nothing to read returns ErrBinderNotApplicable so callers
// can chain several of them.
package binder
