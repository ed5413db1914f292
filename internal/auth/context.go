// Package auth provides session resolution for the allowlist sign-in flow.
package auth

import (
	"context"

	"github.com/gatehouse/gatehouse/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// sessionContextKey is the context key for storing the resolved Session.
	sessionContextKey contextKey = "session"
)

// ContextWithSession adds a resolved Session to the context.
func ContextWithSession(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFromContext retrieves the Session from the context.
// Returns nil if the caller is not signed in; absence is a valid state,
// not an error.
func SessionFromContext(ctx context.Context) *model.Session {
	session, ok := ctx.Value(sessionContextKey).(*model.Session)
	if !ok {
		return nil
	}
	return session
}

// AdminSessionFromContext retrieves the Session from the context only if it
// carries the admin role. Returns nil otherwise.
func AdminSessionFromContext(ctx context.Context) *model.Session {
	session := SessionFromContext(ctx)
	if session == nil || !session.IsAdmin() {
		return nil
	}
	return session
}
