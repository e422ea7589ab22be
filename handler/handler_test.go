package handler_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/settlex/settlex/handler"
	"github.com/settlex/settlex/pkg/binder"
)

type greetRequest struct {
	Name string `form:"name"`
}

func text(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

func formRequest(values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("binds and renders", func(t *testing.T) {
		h := handler.Wrap(func(ctx handler.Context, req greetRequest) handler.Response {
			return handler.Templ(text("hello " + req.Name))
		}, handler.WithBinders[greetRequest](binder.Form()))

		w := httptest.NewRecorder()
		h(w, formRequest(url.Values{"name": {"jane"}}))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hello jane", w.Body.String())
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	})

	t.Run("skips binders that do not apply", func(t *testing.T) {
		h := handler.Wrap(func(ctx handler.Context, req greetRequest) handler.Response {
			return handler.Templ(text("name=" + req.Name))
		}, handler.WithBinders[greetRequest](binder.Form()))

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "name=", w.Body.String())
	})

	t.Run("decorators run outermost first", func(t *testing.T) {
		var order []string
		mark := func(name string) handler.Decorator[greetRequest] {
			return func(next handler.HandlerFunc[greetRequest]) handler.HandlerFunc[greetRequest] {
				return func(ctx handler.Context, req greetRequest) handler.Response {
					order = append(order, name)
					return next(ctx, req)
				}
			}
		}
		h := handler.Wrap(func(ctx handler.Context, req greetRequest) handler.Response {
			return handler.Templ(text("ok"))
		}, handler.WithDecorators(mark("outer"), mark("inner")))

		h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, []string{"outer", "inner"}, order)
	})

	t.Run("nil response", func(t *testing.T) {
		var got error
		h := handler.Wrap(func(ctx handler.Context, req greetRequest) handler.Response {
			return nil
		}, handler.WithErrorHandler[greetRequest](func(_ handler.Context, err error) { got = err }))

		h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.ErrorIs(t, got, handler.ErrNilResponse)
	})

	t.Run("http error status", func(t *testing.T) {
		h := handler.Wrap(func(ctx handler.Context, req greetRequest) handler.Response {
			return errResponse{handler.ErrForbidden}
		})
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

type errResponse struct{ err error }

func (e errResponse) Render(http.ResponseWriter, *http.Request) error { return e.err }

func TestRedirect(t *testing.T) {
	t.Parallel()

	t.Run("regular request", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, handler.Redirect("/next/").Render(w, httptest.NewRequest(http.MethodPost, "/", nil)))
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/next/", w.Header().Get("Location"))
	})

	t.Run("explicit code", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, handler.RedirectWithCode("/x/", http.StatusFound).Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, http.StatusFound, w.Code)
	})

	t.Run("datastar request", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("Accept", "text/event-stream")
		w := httptest.NewRecorder()
		require.NoError(t, handler.Redirect("/next/").Render(w, r))
		assert.Empty(t, w.Header().Get("Location"))
		assert.Contains(t, w.Body.String(), "/next/")
	})
}

func TestIsDataStar(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, handler.IsDataStar(r))

	r = httptest.NewRequest(http.MethodGet, "/?datastar=%7B%7D", nil)
	assert.True(t, handler.IsDataStar(r))
}

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, nil))

	t.Run("plain fallback hides internal errors", func(t *testing.T) {
		eh := handler.NewErrorHandler(log, handler.ErrorHandlerConfig{})
		w := httptest.NewRecorder()
		eh(handler.NewContext(w, httptest.NewRequest(http.MethodGet, "/x", nil)), errors.New("db exploded"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "db exploded")
		assert.Contains(t, logs.String(), "db exploded")
	})

	t.Run("renders error page", func(t *testing.T) {
		eh := handler.NewErrorHandler(log, handler.ErrorHandlerConfig{
			ErrorPage: func(p handler.ErrorPageParams) templ.Component {
				return text(p.Message)
			},
		})
		w := httptest.NewRecorder()
		eh(handler.NewContext(w, httptest.NewRequest(http.MethodGet, "/x", nil)), handler.ErrNotFound)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "not_found", w.Body.String())
	})
}
