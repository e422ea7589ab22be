package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/settlex/settlex/pkg/logger"
	"github.com/settlex/settlex/pkg/session"
)

// LoadUser resolves the session's user and stores it in the request context.
// Unknown or inactive users are treated as anonymous. It must run after the
// session middleware.
func LoadUser(svc *Service, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Discard()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := session.UserIDFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := svc.GetUser(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, ErrUserNotFound) {
					log.ErrorContext(r.Context(), "failed to load session user",
						logger.UserID(userID),
						logger.Error(err),
						logger.Component("auth"),
					)
				}
				next.ServeHTTP(w, r)
				return
			}
			if !user.IsActive {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(SetUserToContext(r.Context(), user)))
		})
	}
}

// RequireUser redirects anonymous requests to loginURL.
func RequireUser(loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetUserFromContext(r.Context()) == nil {
				http.Redirect(w, r, loginURL, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
