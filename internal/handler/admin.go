package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sourzer/sourzer-web/internal/content"
	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/sourzer/sourzer-web/internal/form"
	"github.com/sourzer/sourzer-web/internal/service"
	"github.com/sourzer/sourzer-web/internal/templ/components/notify"
	"github.com/sourzer/sourzer-web/internal/templ/components/pagination"
	"golang.org/x/sync/errgroup"
)

// Tabs of the blog admin page.
const (
	TabList       = "list"
	TabCreate     = "create"
	TabEdit       = "edit"
	TabCategories = "categories"
)

// =============================================================================
// Template Data Types
// =============================================================================

// BlogsPageData contains data for every tab of /admin/blogs.
type BlogsPageData struct {
	BasePage
	Tab string

	// List tab
	Page       *domain.BlogPage
	Pagination pagination.Data
	ListError  string

	// Create and edit tabs
	Form       FormView // blog editor
	EditID     int      // post being edited, 0 when creating
	Categories []domain.BlogCategory
	SummaryMax int

	// Category dialog and categories tab
	CategoryForm       FormView
	CategoryDialogOpen bool
	CategoriesChanged  bool       // re-render the category select out of band
	CategoryForms      []FormView // one edit form per category
}

// =============================================================================
// Handler Configuration
// =============================================================================

// CategoryCatalog is the shared category list. *service.CategoryStore
// satisfies it.
type CategoryCatalog interface {
	Categories(ctx context.Context) ([]domain.BlogCategory, error)
	Create(ctx context.Context, params domain.CategoryParams) domain.SubmissionResult[domain.BlogCategory]
	Update(ctx context.Context, id int, params domain.CategoryParams) domain.SubmissionResult[domain.BlogCategory]
}

type (
	blogController     = form.Controller[BlogField, domain.Blog]
	categoryController = form.Controller[CategoryField, domain.BlogCategory]
)

// AdminHandlerConfig wires an AdminHandler.
type AdminHandlerConfig struct {
	BlogService service.BlogService
	Categories  CategoryCatalog
	Uploads     service.UploadService
	Site        *content.Site
	Renderer    TemplateRenderer
	Observers   []form.Observer
	FormTTL     time.Duration
	Logger      *slog.Logger
}

// AdminHandler serves the blog admin: posts, categories and cover uploads.
type AdminHandler struct {
	blogService service.BlogService
	categories  CategoryCatalog
	uploads     service.UploadService
	site        *content.Site
	renderer    TemplateRenderer
	logger      *slog.Logger

	createForms         *form.Instances[*blogController]
	updateForms         *form.Instances[*blogController]
	createCategoryForms *form.Instances[*categoryController]
	updateCategoryForms *form.Instances[*categoryController]
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(cfg AdminHandlerConfig) *AdminHandler {
	h := &AdminHandler{
		blogService: cfg.BlogService,
		categories:  cfg.Categories,
		uploads:     cfg.Uploads,
		site:        cfg.Site,
		renderer:    cfg.Renderer,
		logger:      cfg.Logger,
	}
	ttl := formTTL(cfg.FormTTL)

	h.createForms = form.NewInstances(ttl, func() *blogController {
		return form.NewController(form.Config[BlogField, domain.Blog]{
			Name:      "blog_create",
			Schema:    BlogSchema(),
			Submit:    h.submitCreate,
			OnSuccess: form.ResetOnSuccess,
			Observers: cfg.Observers,
			Logger:    cfg.Logger,
		})
	})
	h.updateForms = form.NewInstances(ttl, func() *blogController {
		return form.NewController(form.Config[BlogField, domain.Blog]{
			Name:      "blog_update",
			Schema:    BlogSchema(),
			Submit:    h.submitUpdate,
			OnSuccess: form.KeepOnSuccess,
			Observers: cfg.Observers,
			Logger:    cfg.Logger,
		})
	})
	h.createCategoryForms = form.NewInstances(ttl, func() *categoryController {
		return form.NewController(form.Config[CategoryField, domain.BlogCategory]{
			Name:      "category_create",
			Schema:    CategorySchema(),
			Submit:    h.submitCreateCategory,
			OnSuccess: form.ResetOnSuccess,
			Observers: cfg.Observers,
			Logger:    cfg.Logger,
		})
	})
	h.updateCategoryForms = form.NewInstances(ttl, func() *categoryController {
		return form.NewController(form.Config[CategoryField, domain.BlogCategory]{
			Name:      "category_update",
			Schema:    CategorySchema(),
			Submit:    h.submitUpdateCategory,
			OnSuccess: form.KeepOnSuccess,
			Observers: cfg.Observers,
			Logger:    cfg.Logger,
		})
	})
	return h
}

// Registries returns every admin form registry so the server can sweep them.
func (h *AdminHandler) Registries() []FormRegistry {
	return []FormRegistry{h.createForms, h.updateForms, h.createCategoryForms, h.updateCategoryForms}
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers the blog admin routes. Every route requires a
// session.
//
// Routes:
// - GET  /admin                  -> redirect to /admin/blogs
// - GET  /admin/blogs            -> Blogs (?tab=list|create|categories, ?edit={id})
// - POST /admin/blogs            -> CreateBlog
// - POST /admin/blogs/author     -> Author (htmx, author select)
// - POST /admin/blogs/{id}       -> UpdateBlog
// - POST /admin/categories       -> CreateCategory
// - POST /admin/categories/{id}  -> UpdateCategory
// - POST /admin/uploads          -> Upload
func (h *AdminHandler) RegisterRoutes(r chi.Router, requireSession func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireSession)
		r.Get("/admin", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/admin/blogs", http.StatusSeeOther)
		})
		r.Get("/admin/blogs", h.Blogs)
		r.Post("/admin/blogs", h.CreateBlog)
		r.Post("/admin/blogs/author", h.Author)
		r.Post("/admin/blogs/{id}", h.UpdateBlog)
		r.Post("/admin/categories", h.CreateCategory)
		r.Post("/admin/categories/{id}", h.UpdateCategory)
		r.Post("/admin/uploads", h.Upload)
	})
}

// =============================================================================
// GET /admin/blogs
// =============================================================================

// Blogs renders the tab selected by the query string.
func (h *AdminHandler) Blogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var flash *notify.Flash
	if q.Get("welcome") == "1" {
		flash = &notify.Flash{Kind: notify.Success, Message: "Login successful!"}
	}

	switch {
	case q.Get("edit") != "":
		h.showEdit(w, r, q.Get("edit"), flash)
	case q.Get("tab") == TabCreate:
		data := h.editorPage(r, TabCreate, emptyView(nil), 0)
		if flash != nil {
			data.Flash = flash
		}
		h.renderer.RenderHTTP(w, "admin/blogs", data)
	case q.Get("tab") == TabCategories:
		data := h.categoriesPage(r)
		if flash != nil {
			data.Flash = flash
		}
		h.renderer.RenderHTTP(w, "admin/blogs", data)
	default:
		h.showList(w, r, flash)
	}
}

func (h *AdminHandler) showList(w http.ResponseWriter, r *http.Request, flash *notify.Flash) {
	data := BlogsPageData{
		BasePage: newBasePage(r, h.site),
		Tab:      TabList,
	}
	data.Flash = flash

	page, err := h.blogService.List(r.Context(), pageParam(r), service.AdminPageSize)
	if err != nil {
		h.logger.Error("failed to list blogs", "error", err)
		data.ListError = "Failed to fetch blogs"
	} else {
		data.Page = page
		data.Pagination = pagination.FromBlogPage(page)
	}

	if isHTMX(r) {
		h.renderer.RenderPartial(w, "admin_blog_list", data)
		return
	}
	h.renderer.RenderHTTP(w, "admin/blogs", data)
}

// showEdit loads the post and the categories concurrently. A failed
// category load still shows the post.
func (h *AdminHandler) showEdit(w http.ResponseWriter, r *http.Request, rawID string, flash *notify.Flash) {
	id, err := strconv.Atoi(rawID)
	if err != nil || id < 1 {
		h.showList(w, r, &notify.Flash{Kind: notify.Failure, Message: "Failed to load blog post"})
		return
	}

	var (
		post          *domain.Blog
		categories    []domain.BlogCategory
		categoriesErr error
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		post, err = h.blogService.Get(ctx, rawID)
		return err
	})
	g.Go(func() error {
		categories, categoriesErr = h.categories.Categories(ctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("failed to load blog for edit", "id", id, "error", err)
		h.showList(w, r, &notify.Flash{Kind: notify.Failure, Message: "Failed to load blog post"})
		return
	}

	values := domain.BlogFormValues(post)
	values[string(BlogID)] = strconv.Itoa(id)
	data := BlogsPageData{
		BasePage:     newBasePage(r, h.site),
		Tab:          TabEdit,
		Form:         emptyView(values),
		EditID:       id,
		Categories:   categories,
		SummaryMax:   SummaryMaxLength,
		CategoryForm: emptyView(nil),
	}
	data.Flash = flash
	if categoriesErr != nil {
		h.logger.Warn("failed to load categories", "error", categoriesErr)
		data.Flash = &notify.Flash{Kind: notify.Failure, Message: "Failed to load blog categories"}
	}
	h.renderer.RenderHTTP(w, "admin/blogs", data)
}

// editorPage builds the create or edit tab around a blog form.
func (h *AdminHandler) editorPage(r *http.Request, tab string, view FormView, editID int) BlogsPageData {
	data := BlogsPageData{
		BasePage:     newBasePage(r, h.site),
		Tab:          tab,
		Form:         view,
		EditID:       editID,
		SummaryMax:   SummaryMaxLength,
		CategoryForm: emptyView(nil),
	}
	categories, err := h.categories.Categories(r.Context())
	if err != nil {
		h.logger.Warn("failed to load categories", "error", err)
		data.Flash = &notify.Flash{Kind: notify.Failure, Message: "Failed to load blog categories"}
	}
	data.Categories = categories
	return data
}

func (h *AdminHandler) categoriesPage(r *http.Request) BlogsPageData {
	data := BlogsPageData{
		BasePage:     newBasePage(r, h.site),
		Tab:          TabCategories,
		CategoryForm: emptyView(nil),
	}
	categories, err := h.categories.Categories(r.Context())
	if err != nil {
		h.logger.Warn("failed to load categories", "error", err)
		data.Flash = &notify.Flash{Kind: notify.Failure, Message: "Failed to load blog categories"}
	}
	data.Categories = categories
	data.CategoryForms = categoryViews(categories)
	return data
}

func categoryViews(categories []domain.BlogCategory) []FormView {
	views := make([]FormView, 0, len(categories))
	for _, c := range categories {
		views = append(views, emptyView(map[string]string{
			string(CategoryID):          strconv.Itoa(c.ID),
			string(CategoryName):        c.Name,
			string(CategoryDescription): c.Description,
		}))
	}
	return views
}

// =============================================================================
// POST /admin/blogs and /admin/blogs/{id}
// =============================================================================

// CreateBlog publishes a new post. On success the editor is cleared.
func (h *AdminHandler) CreateBlog(w http.ResponseWriter, r *http.Request) {
	p := toastPresenter[domain.Blog]("Blog post created successfully!", "Failed to create blog post")
	h.submitBlog(w, r, h.createForms, TabCreate, 0, p)
}

// UpdateBlog saves an existing post. The submitted values stay in the
// editor.
func (h *AdminHandler) UpdateBlog(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		ErrorResponse(w, r, h.logger, domain.NotFound("AdminHandler.UpdateBlog", "blog", chi.URLParam(r, "id")))
		return
	}
	p := toastPresenter[domain.Blog]("Blog post updated successfully!", "Failed to update blog post")
	h.submitBlog(w, r, h.updateForms, TabEdit, id, p)
}

func (h *AdminHandler) submitBlog(
	w http.ResponseWriter,
	r *http.Request,
	forms *form.Instances[*blogController],
	tab string,
	editID int,
	p *presenter[domain.Blog],
) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("failed to parse blog form", "error", err)
		data := h.editorPage(r, tab, emptyView(nil), editID)
		data.Flash = &notify.Flash{Kind: notify.Failure, Message: "Invalid form submission. Please try again."}
		h.renderer.RenderHTTPStatus(w, http.StatusBadRequest, "admin/blogs", data)
		return
	}

	id, c := forms.Acquire(r.PostFormValue(FormIDField))
	c.Load(r.PostForm)
	if editID > 0 {
		c.SetValue(BlogID, strconv.Itoa(editID))
	}

	out, err := c.Submit(r.Context(), p)
	flash := p.flash
	switch {
	case errors.Is(err, form.ErrSubmissionInFlight):
		f := inFlightFlash
		flash = &f
	case errors.Is(err, form.ErrClosed):
		flash = nil
	}

	data := h.editorPage(r, tab, viewOf(id, c, BlogSchema()), editID)
	if flash != nil {
		data.Flash = flash
	}
	if isHTMX(r) {
		if data.Flash != nil {
			h.renderer.RenderPartialWithToast(w, r, "blog_form", data, *data.Flash)
			return
		}
		h.renderer.RenderPartial(w, "blog_form", data)
		return
	}
	h.renderer.RenderHTTPStatus(w, statusFor(len(out.FieldErrors) > 0, out.Status == form.Error), "admin/blogs", data)
}

func (h *AdminHandler) submitCreate(ctx context.Context, v form.Values[BlogField]) domain.SubmissionResult[domain.Blog] {
	return h.blogService.Create(ctx, blogParams(v))
}

func (h *AdminHandler) submitUpdate(ctx context.Context, v form.Values[BlogField]) domain.SubmissionResult[domain.Blog] {
	id, err := strconv.Atoi(v.Get(BlogID))
	if err != nil || id < 1 {
		return domain.Failed[domain.Blog]("Failed to update blog post", http.StatusBadRequest, errors.New("missing blog id"))
	}
	return h.blogService.Update(ctx, id, blogParams(v))
}

// =============================================================================
// POST /admin/blogs/author
// =============================================================================

// Author fills the position, team and profile image of the chosen author
// and returns the author inputs.
func (h *AdminHandler) Author(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	forms := h.createForms
	editID, _ := strconv.Atoi(r.PostFormValue(string(BlogID)))
	if editID > 0 {
		forms = h.updateForms
	}
	id, c := forms.Acquire(r.PostFormValue(FormIDField))
	c.Load(r.PostForm)

	name := r.PostFormValue(string(BlogCreatedBy))
	c.Set(BlogCreatedBy, name)
	if author, ok := h.site.AuthorByName(name); ok {
		c.SetValue(BlogPosition, author.Position)
		c.SetValue(BlogTeam, author.Team)
		c.SetValue(BlogProfileImage, author.Image)
	}

	view := viewOf(id, c, BlogSchema())
	view.Errors = map[string]string{}
	h.renderer.RenderPartial(w, "blog_author_fields", BlogsPageData{
		BasePage: newBasePage(r, h.site),
		Form:     view,
		EditID:   editID,
	})
}

// =============================================================================
// POST /admin/categories and /admin/categories/{id}
// =============================================================================

// CreateCategory adds a category from the dialog. On success the dialog is
// cleared and closed and the category select is refreshed.
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	p := toastPresenter[domain.BlogCategory]("Category created successfully!", "")
	p.failureMessage = "Failed to create category. Please try again."
	h.submitCategory(w, r, h.createCategoryForms, 0, p)
}

// UpdateCategory renames or re-describes a category.
func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		ErrorResponse(w, r, h.logger, domain.NotFound("AdminHandler.UpdateCategory", "category", chi.URLParam(r, "id")))
		return
	}
	p := toastPresenter[domain.BlogCategory]("Category updated successfully!", "")
	p.failureMessage = "Failed to update category. Please try again."
	h.submitCategory(w, r, h.updateCategoryForms, id, p)
}

func (h *AdminHandler) submitCategory(
	w http.ResponseWriter,
	r *http.Request,
	forms *form.Instances[*categoryController],
	categoryID int,
	p *presenter[domain.BlogCategory],
) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("failed to parse category form", "error", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	id, c := forms.Acquire(r.PostFormValue(FormIDField))
	c.Load(r.PostForm)
	if categoryID > 0 {
		c.SetValue(CategoryID, strconv.Itoa(categoryID))
	}

	out, err := c.Submit(r.Context(), p)
	flash := p.flash
	if errors.Is(err, form.ErrSubmissionInFlight) {
		f := inFlightFlash
		flash = &f
	}
	succeeded := err == nil && out.Status == form.Success

	tab := TabCreate
	if categoryID > 0 || r.PostFormValue("tab") == TabCategories {
		tab = TabCategories
	}

	if !isHTMX(r) {
		if succeeded {
			http.Redirect(w, r, "/admin/blogs?tab="+tab, http.StatusSeeOther)
			return
		}
		var data BlogsPageData
		if tab == TabCategories {
			data = h.categoriesPage(r)
		} else {
			data = h.editorPage(r, TabCreate, emptyView(nil), 0)
		}
		data.CategoryForm = viewOf(id, c, CategorySchema())
		data.CategoryDialogOpen = categoryID == 0
		data.Flash = flash
		h.renderer.RenderHTTPStatus(w, statusFor(len(out.FieldErrors) > 0, out.Status == form.Error), "admin/blogs", data)
		return
	}

	data := BlogsPageData{
		BasePage:           newBasePage(r, h.site),
		Tab:                tab,
		CategoryForm:       viewOf(id, c, CategorySchema()),
		CategoryDialogOpen: !succeeded && categoryID == 0,
		CategoriesChanged:  succeeded,
	}
	if succeeded {
		categories, err := h.categories.Categories(r.Context())
		if err != nil {
			h.logger.Warn("failed to reload categories", "error", err)
		}
		data.Categories = categories
		data.CategoryForms = categoryViews(categories)
		data.Form = emptyView(map[string]string{string(BlogCategoryID): r.PostFormValue(string(BlogCategoryID))})
	}

	partial := "category_dialog"
	if categoryID > 0 {
		partial = "category_row"
	}
	if flash != nil {
		h.renderer.RenderPartialWithToast(w, r, partial, data, *flash)
		return
	}
	h.renderer.RenderPartial(w, partial, data)
}

func (h *AdminHandler) submitCreateCategory(ctx context.Context, v form.Values[CategoryField]) domain.SubmissionResult[domain.BlogCategory] {
	return h.categories.Create(ctx, categoryParams(v))
}

func (h *AdminHandler) submitUpdateCategory(ctx context.Context, v form.Values[CategoryField]) domain.SubmissionResult[domain.BlogCategory] {
	id, err := strconv.Atoi(v.Get(CategoryID))
	if err != nil || id < 1 {
		return domain.Failed[domain.BlogCategory]("Failed to update category. Please try again.", http.StatusBadRequest, errors.New("missing category id"))
	}
	return h.categories.Update(ctx, id, categoryParams(v))
}
