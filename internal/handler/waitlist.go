package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sourzer/sourzer-web/internal/content"
	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/sourzer/sourzer-web/internal/form"
	"github.com/sourzer/sourzer-web/internal/phone"
	"github.com/sourzer/sourzer-web/internal/templ/components/notify"
)

// =============================================================================
// Template Data Types
// =============================================================================

// WaitlistPageData contains data for the waitlist page and its form partial.
type WaitlistPageData struct {
	BasePage
	Form FormView
}

// =============================================================================
// Handler Configuration
// =============================================================================

// WaitlistJoiner sends a sign-up to the waitlist endpoint.
// *service.WaitlistService satisfies it.
type WaitlistJoiner interface {
	Join(ctx context.Context, sub domain.WaitlistSubmission) domain.SubmissionResult[json.RawMessage]
}

type waitlistController = form.Controller[WaitlistField, json.RawMessage]

// waitlistModal is shown after a successful sign-up.
var waitlistModal = notify.Modal{
	Title:       "You're on the list!",
	Message:     "Thanks for joining the Sourzer waitlist. We'll reach out as soon as your spot opens up.",
	ActionLabel: "Back to home",
	ActionURL:   "/",
}

// WaitlistHandler serves the waitlist sign-up.
type WaitlistHandler struct {
	waitlist WaitlistJoiner
	site     *content.Site
	renderer TemplateRenderer
	logger   *slog.Logger

	forms *form.Instances[*waitlistController]
}

// NewWaitlistHandler creates a new WaitlistHandler.
func NewWaitlistHandler(
	waitlist WaitlistJoiner,
	site *content.Site,
	renderer TemplateRenderer,
	observers []form.Observer,
	ttl time.Duration,
	logger *slog.Logger,
) *WaitlistHandler {
	h := &WaitlistHandler{
		waitlist: waitlist,
		site:     site,
		renderer: renderer,
		logger:   logger,
	}
	h.forms = form.NewInstances(formTTL(ttl), func() *waitlistController {
		return form.NewController(form.Config[WaitlistField, json.RawMessage]{
			Name:      "waitlist",
			Schema:    WaitlistSchema(),
			Submit:    h.submit,
			OnSuccess: form.ResetOnSuccess,
			Observers: observers,
			Logger:    logger,
			Setup: func(s *form.Store[WaitlistField]) {
				s.Derive(WaitlistPhone, phone.DeriveCountry(WaitlistCountry, WaitlistCountryCode))
			},
		})
	})
	return h
}

// Registries returns the waitlist form registry so the server can sweep it.
func (h *WaitlistHandler) Registries() []FormRegistry {
	return []FormRegistry{h.forms}
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers the waitlist routes.
//
// Routes:
// - GET  /waitlist          -> Show
// - POST /waitlist          -> Join
// - POST /waitlist/country  -> Country (htmx, on phone input)
//
// limit guards sign-ups; lookup guards the phone lookup, which creates a
// form instance for every new form_id.
func (h *WaitlistHandler) RegisterRoutes(r chi.Router, limit, lookup func(http.Handler) http.Handler) {
	r.Get("/waitlist", h.Show)
	r.With(limit).Post("/waitlist", h.Join)
	r.With(lookup).Post("/waitlist/country", h.Country)
}

// =============================================================================
// GET /waitlist
// =============================================================================

// Show renders an empty waitlist form.
func (h *WaitlistHandler) Show(w http.ResponseWriter, r *http.Request) {
	h.renderer.RenderHTTP(w, "public/waitlist", WaitlistPageData{
		BasePage: newBasePage(r, h.site),
		Form:     emptyView(nil),
	})
}

// =============================================================================
// POST /waitlist
// =============================================================================

// Join validates the sign-up and sends it. Invalid input never reaches the
// endpoint. On success the form is cleared and the success modal shown; on
// failure the values stay and a toast explains why.
func (h *WaitlistHandler) Join(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("failed to parse waitlist form", "error", err)
		h.render(w, r, http.StatusBadRequest, emptyView(nil), &notify.Flash{
			Kind:    notify.Failure,
			Message: "Invalid form submission. Please try again.",
		}, nil)
		return
	}

	id, c := h.forms.Acquire(r.PostFormValue(FormIDField))
	c.Load(r.PostForm)

	p := modalPresenter[json.RawMessage](waitlistModal)
	out, err := c.Submit(r.Context(), p)
	switch {
	case errors.Is(err, form.ErrSubmissionInFlight):
		flash := inFlightFlash
		h.render(w, r, http.StatusConflict, viewOf(id, c, WaitlistSchema()), &flash, nil)
		return
	case errors.Is(err, form.ErrClosed):
		h.render(w, r, http.StatusConflict, emptyView(nil), nil, nil)
		return
	}

	status := statusFor(len(out.FieldErrors) > 0, out.Status == form.Error)
	h.render(w, r, status, viewOf(id, c, WaitlistSchema()), p.flash, p.modal)
}

func (h *WaitlistHandler) submit(ctx context.Context, v form.Values[WaitlistField]) domain.SubmissionResult[json.RawMessage] {
	return h.waitlist.Join(ctx, waitlistSubmission(v))
}

// =============================================================================
// POST /waitlist/country
// =============================================================================

// Country re-derives the country from the phone number as it is typed and
// returns the country inputs.
func (h *WaitlistHandler) Country(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	id, c := h.forms.Acquire(r.PostFormValue(FormIDField))
	c.Set(WaitlistPhone, r.PostFormValue(string(WaitlistPhone)))

	h.renderer.RenderPartial(w, "waitlist_country", WaitlistPageData{
		BasePage: newBasePage(r, h.site),
		Form:     viewOf(id, c, WaitlistSchema()),
	})
}

func (h *WaitlistHandler) render(w http.ResponseWriter, r *http.Request, status int, view FormView, flash *notify.Flash, modal *notify.Modal) {
	data := WaitlistPageData{
		BasePage: newBasePage(r, h.site),
		Form:     view,
	}
	data.Modal = modal
	if isHTMX(r) {
		if flash != nil {
			h.renderer.RenderPartialWithToast(w, r, "waitlist_form", data, *flash)
			return
		}
		h.renderer.RenderPartial(w, "waitlist_form", data)
		return
	}
	data.Flash = flash
	h.renderer.RenderHTTPStatus(w, status, "public/waitlist", data)
}
