package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sourzer/sourzer-web/internal/domain"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// AdminPageSize is the number of posts per page on the admin list.
	AdminPageSize = 15

	// PublicPageSize is the number of posts per page on the public blog.
	PublicPageSize = 10

	// LatestPostsCount is how many posts the home page shows.
	LatestPostsCount = 3
)

// =============================================================================
// Interface Definition
// =============================================================================

// BlogAPI is the part of the remote content API that serves posts.
// *apiclient.Client satisfies it.
type BlogAPI interface {
	ListBlogs(ctx context.Context, page, perPage int) domain.SubmissionResult[domain.BlogPage]
	GetBlog(ctx context.Context, slugOrID string) domain.SubmissionResult[domain.Blog]
	CreateBlog(ctx context.Context, params domain.CreateBlogParams) domain.SubmissionResult[domain.Blog]
	UpdateBlog(ctx context.Context, id int, params domain.UpdateBlogParams) domain.SubmissionResult[domain.Blog]
}

// BlogService reads and writes blog posts.
//
// Reads return domain errors so handlers can map them to pages. Writes return
// the SubmissionResult unchanged so the form controller can present the
// server's message.
type BlogService interface {
	// List returns one page of posts.
	// Returns domain.EUNAVAILABLE if the remote API fails.
	List(ctx context.Context, page, perPage int) (*domain.BlogPage, error)

	// Latest returns up to n of the newest posts.
	Latest(ctx context.Context, n int) ([]domain.Blog, error)

	// Get returns a post by slug or id with its body sanitized.
	// Returns domain.ENOTFOUND if the post does not exist.
	Get(ctx context.Context, slugOrID string) (*domain.Blog, error)

	// Create sanitizes the body and publishes a new post.
	Create(ctx context.Context, params domain.CreateBlogParams) domain.SubmissionResult[domain.Blog]

	// Update sanitizes the body and saves an existing post. The category is
	// not sent.
	Update(ctx context.Context, id int, params domain.CreateBlogParams) domain.SubmissionResult[domain.Blog]
}

// =============================================================================
// Implementation
// =============================================================================

type blogService struct {
	api    BlogAPI
	logger *slog.Logger
}

// NewBlogService creates a new BlogService.
func NewBlogService(api BlogAPI, logger *slog.Logger) BlogService {
	return &blogService{api: api, logger: logger}
}

func (s *blogService) List(ctx context.Context, page, perPage int) (*domain.BlogPage, error) {
	const op = "blog.list"

	res := s.api.ListBlogs(ctx, page, perPage)
	if err := res.AsError(op); err != nil {
		return nil, err
	}
	p := res.Payload
	if p.Page == 0 {
		p.Page = page
	}
	return &p, nil
}

func (s *blogService) Latest(ctx context.Context, n int) ([]domain.Blog, error) {
	p, err := s.List(ctx, 1, n)
	if err != nil {
		return nil, err
	}
	if len(p.Blogs) > n {
		return p.Blogs[:n], nil
	}
	return p.Blogs, nil
}

func (s *blogService) Get(ctx context.Context, slugOrID string) (*domain.Blog, error) {
	const op = "blog.get"

	slugOrID = strings.TrimSpace(slugOrID)
	if slugOrID == "" {
		return nil, domain.NotFound(op, "blog", slugOrID)
	}

	res := s.api.GetBlog(ctx, slugOrID)
	if err := res.AsError(op); err != nil {
		return nil, err
	}
	if res.Payload.ID == 0 && res.Payload.Slug == "" {
		return nil, domain.NotFound(op, "blog", slugOrID)
	}
	b := res.Payload
	b.Body = SanitizeHTML(b.Body)
	return &b, nil
}

func (s *blogService) Create(ctx context.Context, params domain.CreateBlogParams) domain.SubmissionResult[domain.Blog] {
	params.Body = SanitizeHTML(params.Body)
	res := s.api.CreateBlog(ctx, params)
	if res.OK {
		s.logger.Info("blog created", "id", res.Payload.ID, "title", params.Title)
	}
	return res
}

func (s *blogService) Update(ctx context.Context, id int, params domain.CreateBlogParams) domain.SubmissionResult[domain.Blog] {
	params.Body = SanitizeHTML(params.Body)
	res := s.api.UpdateBlog(ctx, id, params.UpdateParams())
	if res.OK {
		s.logger.Info("blog updated", "id", id)
	}
	return res
}

// =============================================================================
// Rich Text Sanitizing
// =============================================================================

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func bodyPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("p", "span", "pre", "code", "ol", "ul", "li")
		p.AllowAttrs("target").Matching(bluemonday.Paragraph).OnElements("a")
		p.RequireNoFollowOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		policy = p
	})
	return policy
}

// SanitizeHTML strips anything from a rich-text body that the public blog
// must not render (scripts, event handlers, javascript: URLs).
func SanitizeHTML(body string) string {
	if body == "" {
		return ""
	}
	return bodyPolicy().Sanitize(body)
}
