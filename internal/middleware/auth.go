// Package middleware contains HTTP middleware for the Sourzer site.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using a middleware stack approach.
package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sourzer/sourzer-web/internal/auth"
	"github.com/sourzer/sourzer-web/internal/handler"
	"github.com/sourzer/sourzer-web/internal/session"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// LoginPath is where unauthenticated admin requests are sent.
	LoginPath = "/admin/login"

	// AdminHomePath is where an already signed-in admin lands.
	AdminHomePath = "/admin/blogs"
)

// =============================================================================
// Auth Guard
// =============================================================================

// AuthGuard gates the admin pages on the AuthSession.
//
// The session is a convenience gate: holding a record with
// IsAuthenticated=true is all it checks.
type AuthGuard struct {
	store  session.Store
	logger *slog.Logger
}

// NewAuthGuard creates a new AuthGuard.
//
// Parameters:
// - store: Where sessions are loaded from (signed cookie in production)
// - logger: Structured logger for auth events
func NewAuthGuard(store session.Store, logger *slog.Logger) *AuthGuard {
	return &AuthGuard{store: store, logger: logger}
}

// WithSession loads the session, if any, into the request context and
// always continues.
//
// The session can be retrieved in handlers using:
//
//	s := auth.GetSession(r.Context())
func (g *AuthGuard) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s := g.store.Load(r); s != nil {
			r = r.WithContext(auth.SetSession(r.Context(), s))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession refuses to run next unless the request holds a valid
// session. HTML requests are redirected to the login page before anything
// is rendered; API requests get 401.
//
// Flow:
//
//	Request -> RequireSession -> Handler
//	           |
//	           +-> Load session (context first, then store)
//	           +-> If absent or IsAuthenticated=false: redirect (or 401)
//	           +-> Otherwise: call next handler
func (g *AuthGuard) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := auth.GetSession(r.Context())
		if s == nil {
			s = g.store.Load(r)
		}

		if !s.Valid() {
			g.logger.Debug("admin session required", "path", sanitizePath(r.URL.Path, r.URL.RawQuery))
			if isAPIRequest(r) {
				handler.UnauthorizedResponse(w, r, g.logger)
				return
			}
			redirect(w, r, loginURL(r))
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.SetSession(r.Context(), s)))
	})
}

// RedirectIfAuthenticated forwards a signed-in admin away from the login
// page.
func (g *AuthGuard) RedirectIfAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.store.Load(r).Valid() {
			redirect(w, r, AdminHomePath)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loginURL builds the login redirect, remembering the page that was asked
// for.
func loginURL(r *http.Request) string {
	returnTo := r.URL.Path
	if r.URL.RawQuery != "" {
		returnTo += "?" + r.URL.RawQuery
	}
	if returnTo == AdminHomePath || r.Method != http.MethodGet {
		return LoginPath
	}
	return LoginPath + "?return_to=" + url.QueryEscape(returnTo)
}

// redirect sends a regular redirect, or an HX-Redirect for htmx requests so
// the whole page navigates instead of swapping a fragment.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// =============================================================================
// Request Helpers
// =============================================================================

// isAPIRequest determines if the request expects a JSON response.
//
// Checks:
// 1. HX-Request header is NOT present (htmx wants HTML)
// 2. Accept header contains application/json
// 3. Content-Type is application/json
// 4. URL path starts with /api/
func isAPIRequest(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return false
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// =============================================================================
// Middleware Stack Helpers
// =============================================================================

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	adminStack := Stack(guard.WithSession, guard.RequireSession)
//	mux.Handle("GET /admin/blogs", adminStack(blogsHandler))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// Ensure middleware functions have correct signature
var (
	_ func(http.Handler) http.Handler = (&AuthGuard{}).WithSession
	_ func(http.Handler) http.Handler = (&AuthGuard{}).RequireSession
	_ func(http.Handler) http.Handler = (&AuthGuard{}).RedirectIfAuthenticated
)
