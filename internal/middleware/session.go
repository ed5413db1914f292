package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/model"
	"github.com/gatehouse/gatehouse/internal/repository"
)

// SessionCookie is the name of the session cookie.
const SessionCookie = "gatehouse_session"

// UserFinder looks up allowlisted users by normalized email.
// Implemented by *repository.Repository.
type UserFinder interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// SessionConfig holds configuration for the session middleware.
type SessionConfig struct {
	Logger *slog.Logger
	Users  UserFinder
	Secret []byte
}

// Session resolves the caller's identity from the session cookie and
// injects a model.Session into the request context. The cookie only proves
// who the caller is; the role is re-read from the user store on every
// request, so a role change is live on the caller's next request without a
// new OAuth handshake.
//
// A missing or invalid cookie is not an error: downstream guards decide
// whether an anonymous request is acceptable.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			email, err := auth.EmailFromSessionToken(cookie.Value, cfg.Secret)
			if err != nil {
				cfg.Logger.Warn("session cookie rejected",
					slog.String("reason", "invalid_token"),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				next.ServeHTTP(w, r)
				return
			}

			session := &model.Session{
				Email: email,
				Role:  model.RoleUser,
			}

			user, err := cfg.Users.GetUserByEmail(r.Context(), model.NormalizeEmail(email))
			switch {
			case err == nil:
				session.UserID = user.ID
				session.Name = user.Name
				session.Role = user.Role
			case errors.Is(err, repository.ErrUserNotFound):
				// Record removed after sign-in: the session survives until
				// the cookie expires but carries the default role only.
			default:
				cfg.Logger.Error("session role lookup failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
			}

			ctx := auth.ContextWithSession(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
