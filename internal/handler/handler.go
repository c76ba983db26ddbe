// Package handler contains HTTP handlers for the Sourzer website and its blog
// admin.
//
// This file holds what every handler shares: the renderer interface, the
// page data embedded in every template and a few request helpers.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/sourzer/sourzer-web/internal/auth"
	"github.com/sourzer/sourzer-web/internal/content"
	"github.com/sourzer/sourzer-web/internal/csrf"
	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/sourzer/sourzer-web/internal/templ/components/notify"
)

// TemplateRenderer defines the interface for rendering templates.
// *Renderer satisfies it; tests use a recording fake.
type TemplateRenderer interface {
	RenderHTTP(w http.ResponseWriter, name string, data any)
	RenderHTTPStatus(w http.ResponseWriter, status int, name string, data any)
	RenderPartial(w http.ResponseWriter, name string, data any)
	RenderPartialWithToast(w http.ResponseWriter, req *http.Request, name string, data any, toast notify.Flash)
}

// FormRegistry is a registry of live form instances that the server sweeps
// in the background.
type FormRegistry interface {
	Run(ctx context.Context, interval time.Duration)
	Len() int
}

// =============================================================================
// Template Data Types
// =============================================================================

// BasePage is embedded in every page's template data.
type BasePage struct {
	CurrentPath string              // Current URL path
	CSRFToken   string              // CSRF token for form protection
	Site        *content.Site       // Navigation, footer and select options
	Session     *domain.AuthSession // Signed-in admin, nil on public pages
	Flash       *notify.Flash       // Toast to show on load
	Modal       *notify.Modal       // Success dialog to show on load
}

func newBasePage(r *http.Request, site *content.Site) BasePage {
	return BasePage{
		CurrentPath: r.URL.Path,
		CSRFToken:   csrf.Token(r.Context()),
		Site:        site,
		Session:     auth.GetSession(r.Context()),
	}
}

// =============================================================================
// Helpers
// =============================================================================

// isHTMX reports whether the request came from htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirect sends a browser to target, using HX-Redirect for htmx requests.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// pageParam reads ?page=, defaulting to 1.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// statusFor picks the response code for a finished submission.
func statusFor(validationFailed, serverFailed bool) int {
	switch {
	case validationFailed:
		return http.StatusUnprocessableEntity
	case serverFailed:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}

// inFlightFlash is shown when a second submit arrives for a busy form.
var inFlightFlash = notify.Flash{
	Kind:    notify.Info,
	Message: "Your submission is still being processed.",
}
