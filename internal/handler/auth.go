package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sourzer/sourzer-web/internal/content"
	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/sourzer/sourzer-web/internal/form"
	"github.com/sourzer/sourzer-web/internal/service"
	"github.com/sourzer/sourzer-web/internal/session"
	"github.com/sourzer/sourzer-web/internal/templ/components/notify"
)

// =============================================================================
// Template Data Types
// =============================================================================

// LoginPageData contains data for the admin login page.
type LoginPageData struct {
	BasePage
	Form     FormView
	ReturnTo string // Admin page to go back to after signing in
}

// =============================================================================
// Handler Configuration
// =============================================================================

// LoginLimiter counts failed logins per client. It is satisfied by
// *middleware.FormRateLimiter.
type LoginLimiter interface {
	RecordFailedLogin(ip string)
	ResetLogin(ip string)
}

type loginController = form.Controller[LoginField, *domain.AuthSession]

// AuthHandlerConfig wires an AuthHandler.
type AuthHandlerConfig struct {
	AuthService service.AuthService
	Sessions    session.Store
	Limiter     LoginLimiter                 // optional
	ClientIP    func(r *http.Request) string // key for the limiter
	Site        *content.Site
	Renderer    TemplateRenderer
	Observers   []form.Observer
	FormTTL     time.Duration
	HomePath    string // where a successful login lands
	Logger      *slog.Logger
}

// AuthHandler handles the admin login and logout.
type AuthHandler struct {
	authService service.AuthService
	sessions    session.Store
	limiter     LoginLimiter
	clientIP    func(r *http.Request) string
	site        *content.Site
	renderer    TemplateRenderer
	homePath    string
	logger      *slog.Logger

	forms *form.Instances[*loginController]
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	h := &AuthHandler{
		authService: cfg.AuthService,
		sessions:    cfg.Sessions,
		limiter:     cfg.Limiter,
		clientIP:    cfg.ClientIP,
		site:        cfg.Site,
		renderer:    cfg.Renderer,
		homePath:    cfg.HomePath,
		logger:      cfg.Logger,
	}
	if h.homePath == "" {
		h.homePath = "/admin/blogs"
	}
	if h.clientIP == nil {
		h.clientIP = func(r *http.Request) string { return r.RemoteAddr }
	}
	h.forms = form.NewInstances(formTTL(cfg.FormTTL), func() *loginController {
		return form.NewController(form.Config[LoginField, *domain.AuthSession]{
			Name:      "login",
			Schema:    LoginSchema(),
			Submit:    h.submitLogin,
			OnSuccess: form.NavigateOnSuccess(h.homePath),
			Observers: cfg.Observers,
			Logger:    cfg.Logger,
		})
	})
	return h
}

// Registries returns the login form registry so the server can sweep it.
func (h *AuthHandler) Registries() []FormRegistry {
	return []FormRegistry{h.forms}
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers the login and logout routes.
//
// Routes:
// - GET  /admin/login  -> ShowLogin
// - POST /admin/login  -> Login
// - POST /admin/logout -> Logout
//
// guest wraps the login routes (redirect signed-in admins, rate limit).
func (h *AuthHandler) RegisterRoutes(r chi.Router, guest, limit func(http.Handler) http.Handler) {
	r.With(guest).Get("/admin/login", h.ShowLogin)
	r.With(guest, limit).Post("/admin/login", h.Login)
	r.Post("/admin/logout", h.Logout)
}

// =============================================================================
// GET /admin/login
// =============================================================================

// ShowLogin renders the login form.
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	data := LoginPageData{
		BasePage: newBasePage(r, h.site),
		Form:     emptyView(nil),
		ReturnTo: safeReturnTo(r.URL.Query().Get("return_to")),
	}
	if r.URL.Query().Get("logout") == "1" {
		data.Flash = &notify.Flash{Kind: notify.Info, Message: "You have been signed out."}
	}
	h.renderer.RenderHTTP(w, "auth/login", data)
}

// =============================================================================
// POST /admin/login
// =============================================================================

// Login validates the form, checks the credentials and stores the session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("failed to parse login form", "error", err)
		h.render(w, r, http.StatusBadRequest, emptyView(nil), &notify.Flash{
			Kind:    notify.Failure,
			Message: "Invalid form submission. Please try again.",
		})
		return
	}

	id, c := h.forms.Acquire(r.PostFormValue(FormIDField))
	c.Load(r.PostForm)

	p := toastPresenter[*domain.AuthSession]("Login successful!", "")
	out, err := c.Submit(r.Context(), p)
	switch {
	case errors.Is(err, form.ErrSubmissionInFlight):
		flash := inFlightFlash
		h.render(w, r, http.StatusConflict, viewOf(id, c, LoginSchema()), &flash)
		return
	case errors.Is(err, form.ErrClosed):
		h.render(w, r, http.StatusConflict, emptyView(nil), nil)
		return
	}

	ip := h.clientIP(r)
	if out.Status != form.Success {
		if out.Status == form.Error && h.limiter != nil {
			h.limiter.RecordFailedLogin(ip)
		}
		view := viewOf(id, c, LoginSchema())
		h.render(w, r, statusFor(len(out.FieldErrors) > 0, false), view, p.flash)
		return
	}

	h.forms.Release(id)
	if err := h.sessions.Save(w, out.Payload); err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, "AuthHandler.Login", "Failed to start session"))
		return
	}
	if h.limiter != nil {
		h.limiter.ResetLogin(ip)
	}
	h.logger.Info("admin logged in", "username", out.Payload.Username)

	target := out.Redirect
	if returnTo := safeReturnTo(r.PostFormValue("return_to")); returnTo != "" {
		target = returnTo
	}
	redirect(w, r, withWelcome(target))
}

func (h *AuthHandler) submitLogin(ctx context.Context, v form.Values[LoginField]) domain.SubmissionResult[*domain.AuthSession] {
	s, err := h.authService.Login(ctx, v.Get(LoginUsername), v.Get(LoginPassword))
	if err != nil {
		msg := domain.ErrorMessage(err)
		if domain.ErrorCode(err) != domain.EUNAUTHORIZED {
			msg = "Login failed. Please try again later."
		}
		return domain.Failed[*domain.AuthSession](msg, http.StatusUnauthorized, err)
	}
	return domain.Succeeded(s, http.StatusOK)
}

func (h *AuthHandler) render(w http.ResponseWriter, r *http.Request, status int, view FormView, flash *notify.Flash) {
	data := LoginPageData{
		BasePage: newBasePage(r, h.site),
		Form:     view,
		ReturnTo: safeReturnTo(r.PostFormValue("return_to")),
	}
	if isHTMX(r) {
		if flash != nil {
			h.renderer.RenderPartialWithToast(w, r, "login_form", data, *flash)
			return
		}
		h.renderer.RenderPartial(w, "login_form", data)
		return
	}
	data.Flash = flash
	h.renderer.RenderHTTPStatus(w, status, "auth/login", data)
}

// =============================================================================
// POST /admin/logout
// =============================================================================

// Logout clears the session and returns to the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	redirect(w, r, "/admin/login?logout=1")
}

// =============================================================================
// Helpers
// =============================================================================

// safeReturnTo only accepts local admin paths.
func safeReturnTo(target string) string {
	if !strings.HasPrefix(target, "/admin/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return ""
	}
	if strings.HasPrefix(target, "/admin/login") {
		return ""
	}
	return target
}

func withWelcome(target string) string {
	if strings.Contains(target, "?") {
		return target + "&welcome=1"
	}
	return target + "?welcome=1"
}

func formTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 30 * time.Minute
	}
	return ttl
}
