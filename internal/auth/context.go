// Package auth provides request context helpers for the admin session.
//
// This package is designed to be imported by both middleware and handler
// packages without causing import cycles.
package auth

import (
	"context"
	"net/http"

	"github.com/sourzer/sourzer-web/internal/domain"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// sessionContextKey is the key used to store the admin session in context.
	sessionContextKey contextKey = "admin_session"
)

// GetSession retrieves the admin session from the context.
//
// Returns nil if the request carries no session.
//
// Usage:
//
//	s := auth.GetSession(r.Context())
//	if !s.Valid() {
//	    // Handle unauthenticated request
//	}
func GetSession(ctx context.Context) *domain.AuthSession {
	s, ok := ctx.Value(sessionContextKey).(*domain.AuthSession)
	if !ok {
		return nil
	}
	return s
}

// GetSessionFromRequest is GetSession for a request.
func GetSessionFromRequest(r *http.Request) *domain.AuthSession {
	return GetSession(r.Context())
}

// SetSession stores the session in the context. Called by the auth guard
// once the session cookie has been loaded.
func SetSession(ctx context.Context, s *domain.AuthSession) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}
