package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sourzer/sourzer-web/internal/content"
	"github.com/sourzer/sourzer-web/internal/domain"
)

// DefaultSubmissionLimit is how many audit rows the log page shows.
const DefaultSubmissionLimit = 50

// SubmissionsPageData contains data for the submission log page.
type SubmissionsPageData struct {
	BasePage
	Records []domain.SubmissionRecord
	Limit   int
}

// SubmissionLog reads recent terminal form transitions.
// *audit.Recorder satisfies it.
type SubmissionLog interface {
	Recent(ctx context.Context, limit int) ([]domain.SubmissionRecord, error)
}

// SubmissionsHandler shows the form submission audit log.
type SubmissionsHandler struct {
	log      SubmissionLog
	site     *content.Site
	renderer TemplateRenderer
	logger   *slog.Logger
}

// NewSubmissionsHandler creates a new SubmissionsHandler.
func NewSubmissionsHandler(log SubmissionLog, site *content.Site, renderer TemplateRenderer, logger *slog.Logger) *SubmissionsHandler {
	return &SubmissionsHandler{log: log, site: site, renderer: renderer, logger: logger}
}

// RegisterRoutes registers GET /admin/submissions behind requireSession.
func (h *SubmissionsHandler) RegisterRoutes(r chi.Router, requireSession func(http.Handler) http.Handler) {
	r.With(requireSession).Get("/admin/submissions", h.Index)
}

// Index lists the most recent submissions, newest first.
func (h *SubmissionsHandler) Index(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 || limit > 500 {
		limit = DefaultSubmissionLimit
	}

	records, err := h.log.Recent(r.Context(), limit)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, "SubmissionsHandler.Index", "Failed to load submissions"))
		return
	}
	h.renderer.RenderHTTP(w, "admin/submissions", SubmissionsPageData{
		BasePage: newBasePage(r, h.site),
		Records:  records,
		Limit:    limit,
	})
}
