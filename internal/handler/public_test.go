package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPublicFixture(t *testing.T, blogs *mockBlogService) (chi.Router, *fakeRenderer) {
	t.Helper()
	renderer := &fakeRenderer{}
	h := NewPublicHandler(blogs, testSite(t), renderer, testLogger())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, renderer
}

func TestHome_ShowsLatestPosts(t *testing.T) {
	router, renderer := newPublicFixture(t, &mockBlogService{
		LatestFunc: func(ctx context.Context, n int) ([]domain.Blog, error) {
			assert.Equal(t, 3, n)
			return []domain.Blog{{ID: 1, Title: "One"}, {ID: 2, Title: "Two"}}, nil
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	data := renderer.last(t).data.(HomePageData)
	assert.Len(t, data.Posts, 2)
	assert.Empty(t, data.PostsError)
	assert.Equal(t, "monthly", data.Frequency)
}

func TestHome_BlogFailureOnlyHidesPosts(t *testing.T) {
	router, renderer := newPublicFixture(t, &mockBlogService{
		LatestFunc: func(ctx context.Context, n int) ([]domain.Blog, error) {
			return nil, errors.New("remote down")
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	data := renderer.last(t).data.(HomePageData)
	assert.Empty(t, data.Posts)
	assert.Equal(t, "Failed to fetch blogs", data.PostsError)
}

func TestPricing_HTMXSwapsTiers(t *testing.T) {
	router, renderer := newPublicFixture(t, &mockBlogService{})

	req := htmx(httptest.NewRequest(http.MethodGet, "/pricing?frequency=yearly", nil))
	router.ServeHTTP(httptest.NewRecorder(), req)

	call := renderer.last(t)
	assert.True(t, call.partial)
	assert.Equal(t, "pricing_tiers", call.name)
	assert.Equal(t, "yearly", call.data.(PricingPageData).Frequency)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/pricing?frequency=weekly", nil))
	call = renderer.last(t)
	assert.Equal(t, "public/pricing", call.name)
	assert.Equal(t, "monthly", call.data.(PricingPageData).Frequency)
}

func TestBlogIndex_UsesPublicPageSize(t *testing.T) {
	router, renderer := newPublicFixture(t, &mockBlogService{
		ListFunc: func(ctx context.Context, page, perPage int) (*domain.BlogPage, error) {
			assert.Equal(t, 1, page)
			assert.Equal(t, 10, perPage)
			return &domain.BlogPage{Page: 1, LastPage: 2, Total: 12}, nil
		},
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/blog?page=abc", nil))

	data := renderer.last(t).data.(BlogListPageData)
	assert.Equal(t, 2, data.Pagination.TotalPages)
}

func TestBlogIndex_RemoteFailureIsBadGateway(t *testing.T) {
	router, _ := newPublicFixture(t, &mockBlogService{
		ListFunc: func(ctx context.Context, page, perPage int) (*domain.BlogPage, error) {
			return nil, domain.Unavailable(errors.New("timeout"), "blog.list", "Failed to fetch blogs")
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blog", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestBlogPost(t *testing.T) {
	router, renderer := newPublicFixture(t, &mockBlogService{
		GetFunc: func(ctx context.Context, slugOrID string) (*domain.Blog, error) {
			if slugOrID == "hello-world" {
				return &domain.Blog{ID: 1, Slug: "hello-world", Title: "Hello"}, nil
			}
			return nil, domain.NotFound("blog.get", "blog", slugOrID)
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blog/hello-world", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	data := renderer.last(t).data.(BlogPostPageData)
	require.NotNil(t, data.Post)
	assert.Equal(t, "Hello", data.Post.Title)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blog/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "public/not_found", renderer.last(t).name)
}
