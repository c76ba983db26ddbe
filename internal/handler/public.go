package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sourzer/sourzer-web/internal/content"
	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/sourzer/sourzer-web/internal/service"
	"github.com/sourzer/sourzer-web/internal/templ/components/pagination"
)

// =============================================================================
// Template Data Types
// =============================================================================

// HomePageData contains data for the landing page.
type HomePageData struct {
	BasePage
	Frequency  string        // Selected pricing frequency
	Posts      []domain.Blog // Latest posts
	PostsError string        // Shown in place of the posts when loading failed
}

// PricingPageData contains data for the pricing page and the tier partial.
type PricingPageData struct {
	BasePage
	Frequency string
}

// BlogListPageData contains data for the public blog index.
type BlogListPageData struct {
	BasePage
	Page       *domain.BlogPage
	Pagination pagination.Data
}

// BlogPostPageData contains data for a single post.
type BlogPostPageData struct {
	BasePage
	Post *domain.Blog
}

// =============================================================================
// Handler Configuration
// =============================================================================

// PublicHandler serves the marketing pages and the public blog.
type PublicHandler struct {
	blogService service.BlogService
	site        *content.Site
	renderer    TemplateRenderer
	logger      *slog.Logger
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(blogService service.BlogService, site *content.Site, renderer TemplateRenderer, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{
		blogService: blogService,
		site:        site,
		renderer:    renderer,
		logger:      logger,
	}
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers the public pages.
//
// Routes:
// - GET /                  -> Home
// - GET /pricing           -> Pricing
// - GET /blog              -> BlogIndex
// - GET /blog/{slug}       -> BlogPost
// - GET /privacy-policy    -> Privacy
// - GET /terms-of-service  -> Terms
func (h *PublicHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/pricing", h.Pricing)
	r.Get("/blog", h.BlogIndex)
	r.Get("/blog/{slug}", h.BlogPost)
	r.Get("/privacy-policy", h.Privacy)
	r.Get("/terms-of-service", h.Terms)
}

// =============================================================================
// GET /
// =============================================================================

// Home renders the landing page with the latest posts. A failing blog API
// only hides the posts section.
func (h *PublicHandler) Home(w http.ResponseWriter, r *http.Request) {
	data := HomePageData{
		BasePage:  newBasePage(r, h.site),
		Frequency: h.site.Frequency(r.URL.Query().Get("frequency")),
	}
	posts, err := h.blogService.Latest(r.Context(), service.LatestPostsCount)
	if err != nil {
		h.logger.Warn("failed to load latest posts", "error", err)
		data.PostsError = "Failed to fetch blogs"
	}
	data.Posts = posts
	h.renderer.RenderHTTP(w, "public/home", data)
}

// =============================================================================
// GET /pricing
// =============================================================================

// Pricing renders the pricing page. The frequency toggle swaps only the
// tiers.
func (h *PublicHandler) Pricing(w http.ResponseWriter, r *http.Request) {
	data := PricingPageData{
		BasePage:  newBasePage(r, h.site),
		Frequency: h.site.Frequency(r.URL.Query().Get("frequency")),
	}
	if isHTMX(r) {
		h.renderer.RenderPartial(w, "pricing_tiers", data)
		return
	}
	h.renderer.RenderHTTP(w, "public/pricing", data)
}

// =============================================================================
// GET /blog
// =============================================================================

// BlogIndex renders one page of the blog.
func (h *PublicHandler) BlogIndex(w http.ResponseWriter, r *http.Request) {
	page, err := h.blogService.List(r.Context(), pageParam(r), service.PublicPageSize)
	if err != nil {
		h.logger.Error("failed to list blogs", "error", err)
		ErrorResponse(w, r, h.logger, err)
		return
	}

	data := BlogListPageData{
		BasePage:   newBasePage(r, h.site),
		Page:       page,
		Pagination: pagination.FromBlogPage(page),
	}
	if isHTMX(r) {
		h.renderer.RenderPartial(w, "blog_list", data)
		return
	}
	h.renderer.RenderHTTP(w, "public/blog", data)
}

// =============================================================================
// GET /blog/{slug}
// =============================================================================

// BlogPost renders a single post.
func (h *PublicHandler) BlogPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.blogService.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			h.NotFound(w, r)
			return
		}
		h.logger.Error("failed to load blog", "error", err)
		ErrorResponse(w, r, h.logger, err)
		return
	}
	h.renderer.RenderHTTP(w, "public/post", BlogPostPageData{
		BasePage: newBasePage(r, h.site),
		Post:     post,
	})
}

// =============================================================================
// Legal pages
// =============================================================================

// Privacy renders the privacy policy.
func (h *PublicHandler) Privacy(w http.ResponseWriter, r *http.Request) {
	h.renderer.RenderHTTP(w, "public/privacy", newBasePage(r, h.site))
}

// Terms renders the terms of service.
func (h *PublicHandler) Terms(w http.ResponseWriter, r *http.Request) {
	h.renderer.RenderHTTP(w, "public/terms", newBasePage(r, h.site))
}

// NotFound renders the 404 page.
func (h *PublicHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderer.RenderHTTPStatus(w, http.StatusNotFound, "public/not_found", newBasePage(r, h.site))
}
