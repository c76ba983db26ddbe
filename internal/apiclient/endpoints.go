package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sourzer/sourzer-web/internal/domain"
)

// ListBlogs fetches one page of posts.
func (c *Client) ListBlogs(ctx context.Context, page, perPage int) domain.SubmissionResult[domain.BlogPage] {
	return Do[domain.BlogPage](ctx, c, http.MethodGet, "/blogs?"+pageQuery(page, perPage), nil)
}

// GetBlog fetches a single post by slug or numeric id.
func (c *Client) GetBlog(ctx context.Context, slugOrID string) domain.SubmissionResult[domain.Blog] {
	return Do[domain.Blog](ctx, c, http.MethodGet, "/blogs/"+url.PathEscape(slugOrID), nil)
}

// CreateBlog publishes a new post.
func (c *Client) CreateBlog(ctx context.Context, params domain.CreateBlogParams) domain.SubmissionResult[domain.Blog] {
	return Do[domain.Blog](ctx, c, http.MethodPost, "/blogs", params)
}

// UpdateBlog replaces the editable fields of a post. The category is never
// sent.
func (c *Client) UpdateBlog(ctx context.Context, id int, params domain.UpdateBlogParams) domain.SubmissionResult[domain.Blog] {
	return Do[domain.Blog](ctx, c, http.MethodPut, fmt.Sprintf("/blogs/%d", id), params)
}

// ListCategories fetches one page of categories.
func (c *Client) ListCategories(ctx context.Context, page, perPage int) domain.SubmissionResult[[]domain.BlogCategory] {
	return Do[[]domain.BlogCategory](ctx, c, http.MethodGet, "/blog-categories?"+pageQuery(page, perPage), nil)
}

// CreateCategory adds a category.
func (c *Client) CreateCategory(ctx context.Context, params domain.CategoryParams) domain.SubmissionResult[domain.BlogCategory] {
	return Do[domain.BlogCategory](ctx, c, http.MethodPost, "/blog-categories", params)
}

// UpdateCategory renames or re-describes a category.
func (c *Client) UpdateCategory(ctx context.Context, id int, params domain.CategoryParams) domain.SubmissionResult[domain.BlogCategory] {
	return Do[domain.BlogCategory](ctx, c, http.MethodPut, fmt.Sprintf("/blog-categories/%d", id), params)
}

// JoinWaitlist posts a sign-up to the external waitlist endpoint. Any
// failure carries the fixed message shown on the waitlist page.
func (c *Client) JoinWaitlist(ctx context.Context, payload domain.WaitlistPayload) domain.SubmissionResult[json.RawMessage] {
	if c.waitlistURL == "" {
		return domain.Failed[json.RawMessage](WaitlistFailureMessage, 0, fmt.Errorf("apiclient: waitlist URL not configured"))
	}
	res := Do[json.RawMessage](ctx, c, http.MethodPost, c.waitlistURL, payload)
	if !res.OK {
		res.ErrorMessage = WaitlistFailureMessage
	}
	return res
}

// WaitlistFailureMessage is shown when a waitlist sign-up cannot be stored.
const WaitlistFailureMessage = "Failed to Join for Free. Please try again."

func pageQuery(page, perPage int) string {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 15
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("perPage", strconv.Itoa(perPage))
	return q.Encode()
}
