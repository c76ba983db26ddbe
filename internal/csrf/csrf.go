// Package csrf provides CSRF protection using the double-submit cookie pattern.
//
// A random token is set in a cookie and repeated in every form as a hidden
// field (or in the X-CSRF-Token header for htmx requests). Unsafe requests
// are rejected unless both copies match. A cross-site attacker can make the
// browser send the cookie but cannot read it to fill the field.
package csrf

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// CookieName is the name of the CSRF token cookie.
	CookieName = "csrf_token"

	// FormFieldName is the hidden form field carrying the token.
	FormFieldName = "csrf_token"

	// HeaderName carries the token on htmx requests.
	HeaderName = "X-CSRF-Token"

	// TokenLength is the number of random bytes for the token (256 bits).
	TokenLength = 32

	// CookieMaxAge is the lifetime of the CSRF cookie (12 hours), long
	// enough for an admin to keep a blog draft open.
	CookieMaxAge = 12 * 60 * 60
)

type contextKey struct{}

// =============================================================================
// Token Generation and Validation
// =============================================================================

// GenerateToken generates a cryptographically secure random token,
// base64 URL-encoded (43 characters).
func GenerateToken() (string, error) {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ValidateToken compares the cookie token with the submitted token in
// constant time.
func ValidateToken(cookieToken, submitted string) bool {
	if cookieToken == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(submitted)) == 1
}

// ValidateRequest checks the submitted token (header first, then form
// field) against the cookie.
func ValidateRequest(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	submitted := r.Header.Get(HeaderName)
	if submitted == "" {
		submitted = r.PostFormValue(FormFieldName)
	}
	return ValidateToken(cookie.Value, submitted)
}

// =============================================================================
// Middleware
// =============================================================================

// Protect ensures every request has a token cookie and rejects unsafe
// requests whose token does not match.
type Protect struct {
	isSecure bool
	logger   *slog.Logger
}

// NewProtect creates the CSRF middleware. isSecure sets the cookie's
// Secure flag.
func NewProtect(isSecure bool, logger *slog.Logger) *Protect {
	return &Protect{isSecure: isSecure, logger: logger}
}

// Handler wraps next.
func (p *Protect) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
			token = c.Value
		}

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			if token == "" {
				var err error
				token, err = GenerateToken()
				if err != nil {
					p.logger.Error("csrf token generation failed", "error", err)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				SetCookie(w, token, p.isSecure)
			}
		default:
			if !ValidateRequest(r) {
				p.logger.Warn("csrf validation failed", "path", r.URL.Path, "method", r.Method)
				http.Error(w, "Invalid or missing CSRF token. Please reload the page and try again.", http.StatusForbidden)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, token)))
	})
}

// Token returns the token for the current request, for embedding in forms.
func Token(ctx context.Context) string {
	token, _ := ctx.Value(contextKey{}).(string)
	return token
}

// WithToken stores token in ctx. Used by tests that bypass the middleware.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKey{}, token)
}

// SetCookie sets the CSRF token cookie. SameSite=Lax keeps the cookie on
// top-level navigations back from external links.
func SetCookie(w http.ResponseWriter, token string, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
