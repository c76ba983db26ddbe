package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sourzer/sourzer-web/internal/content"
	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/sourzer/sourzer-web/internal/templ/components/notify"
)

// =============================================================================
// Recording Renderer
// =============================================================================

type renderCall struct {
	partial bool
	name    string
	status  int
	data    any
	toast   *notify.Flash
}

type fakeRenderer struct {
	mu    sync.Mutex
	calls []renderCall
}

func (f *fakeRenderer) record(w http.ResponseWriter, c renderCall) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	w.WriteHeader(c.status)
}

func (f *fakeRenderer) RenderHTTP(w http.ResponseWriter, name string, data any) {
	f.record(w, renderCall{name: name, status: http.StatusOK, data: data})
}

func (f *fakeRenderer) RenderHTTPStatus(w http.ResponseWriter, status int, name string, data any) {
	f.record(w, renderCall{name: name, status: status, data: data})
}

func (f *fakeRenderer) RenderPartial(w http.ResponseWriter, name string, data any) {
	f.record(w, renderCall{partial: true, name: name, status: http.StatusOK, data: data})
}

func (f *fakeRenderer) RenderPartialWithToast(w http.ResponseWriter, req *http.Request, name string, data any, toast notify.Flash) {
	f.record(w, renderCall{partial: true, name: name, status: http.StatusOK, data: data, toast: &toast})
}

func (f *fakeRenderer) last(t *testing.T) renderCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("nothing was rendered")
	}
	return f.calls[len(f.calls)-1]
}

// =============================================================================
// Mock Services
// =============================================================================

type mockBlogService struct {
	ListFunc   func(ctx context.Context, page, perPage int) (*domain.BlogPage, error)
	LatestFunc func(ctx context.Context, n int) ([]domain.Blog, error)
	GetFunc    func(ctx context.Context, slugOrID string) (*domain.Blog, error)
	CreateFunc func(ctx context.Context, params domain.CreateBlogParams) domain.SubmissionResult[domain.Blog]
	UpdateFunc func(ctx context.Context, id int, params domain.CreateBlogParams) domain.SubmissionResult[domain.Blog]
}

func (m *mockBlogService) List(ctx context.Context, page, perPage int) (*domain.BlogPage, error) {
	return m.ListFunc(ctx, page, perPage)
}

func (m *mockBlogService) Latest(ctx context.Context, n int) ([]domain.Blog, error) {
	return m.LatestFunc(ctx, n)
}

func (m *mockBlogService) Get(ctx context.Context, slugOrID string) (*domain.Blog, error) {
	return m.GetFunc(ctx, slugOrID)
}

func (m *mockBlogService) Create(ctx context.Context, params domain.CreateBlogParams) domain.SubmissionResult[domain.Blog] {
	return m.CreateFunc(ctx, params)
}

func (m *mockBlogService) Update(ctx context.Context, id int, params domain.CreateBlogParams) domain.SubmissionResult[domain.Blog] {
	return m.UpdateFunc(ctx, id, params)
}

type mockCategories struct {
	CategoriesFunc func(ctx context.Context) ([]domain.BlogCategory, error)
	CreateFunc     func(ctx context.Context, params domain.CategoryParams) domain.SubmissionResult[domain.BlogCategory]
	UpdateFunc     func(ctx context.Context, id int, params domain.CategoryParams) domain.SubmissionResult[domain.BlogCategory]
}

func (m *mockCategories) Categories(ctx context.Context) ([]domain.BlogCategory, error) {
	if m.CategoriesFunc == nil {
		return []domain.BlogCategory{{ID: 1, Name: "Sourcing"}, {ID: 2, Name: "Product"}}, nil
	}
	return m.CategoriesFunc(ctx)
}

func (m *mockCategories) Create(ctx context.Context, params domain.CategoryParams) domain.SubmissionResult[domain.BlogCategory] {
	return m.CreateFunc(ctx, params)
}

func (m *mockCategories) Update(ctx context.Context, id int, params domain.CategoryParams) domain.SubmissionResult[domain.BlogCategory] {
	return m.UpdateFunc(ctx, id, params)
}

type mockWaitlist struct {
	calls    atomic.Int32
	JoinFunc func(ctx context.Context, sub domain.WaitlistSubmission) domain.SubmissionResult[json.RawMessage]
}

func (m *mockWaitlist) Join(ctx context.Context, sub domain.WaitlistSubmission) domain.SubmissionResult[json.RawMessage] {
	m.calls.Add(1)
	return m.JoinFunc(ctx, sub)
}

type mockAuthService struct {
	LoginFunc func(ctx context.Context, username, password string) (*domain.AuthSession, error)
}

func (m *mockAuthService) Login(ctx context.Context, username, password string) (*domain.AuthSession, error) {
	return m.LoginFunc(ctx, username, password)
}

type mockUploads struct {
	UploadFunc func(ctx context.Context, file io.Reader, filename string, size int64) (*domain.UploadedImage, error)
}

func (m *mockUploads) Upload(ctx context.Context, file io.Reader, filename string, size int64) (*domain.UploadedImage, error) {
	return m.UploadFunc(ctx, file, filename, size)
}

type fakeLimiter struct {
	mu     sync.Mutex
	failed map[string]int
	resets []string
}

func (f *fakeLimiter) RecordFailedLogin(ip string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed == nil {
		f.failed = map[string]int{}
	}
	f.failed[ip]++
}

func (f *fakeLimiter) ResetLogin(ip string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, ip)
}

// =============================================================================
// Helpers
// =============================================================================

func testSite(t *testing.T) *content.Site {
	t.Helper()
	site, err := content.Load()
	if err != nil {
		t.Fatalf("load site content: %v", err)
	}
	return site
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func htmx(req *http.Request) *http.Request {
	req.Header.Set("HX-Request", "true")
	return req
}
