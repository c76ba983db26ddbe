package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/sourzer/sourzer-web/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// =============================================================================
// Mock Remote API
// =============================================================================

type mockAPI struct {
	ListBlogsFunc      func(ctx context.Context, page, perPage int) domain.SubmissionResult[domain.BlogPage]
	GetBlogFunc        func(ctx context.Context, slugOrID string) domain.SubmissionResult[domain.Blog]
	CreateBlogFunc     func(ctx context.Context, params domain.CreateBlogParams) domain.SubmissionResult[domain.Blog]
	UpdateBlogFunc     func(ctx context.Context, id int, params domain.UpdateBlogParams) domain.SubmissionResult[domain.Blog]
	ListCategoriesFunc func(ctx context.Context, page, perPage int) domain.SubmissionResult[[]domain.BlogCategory]
	CreateCategoryFunc func(ctx context.Context, params domain.CategoryParams) domain.SubmissionResult[domain.BlogCategory]
	UpdateCategoryFunc func(ctx context.Context, id int, params domain.CategoryParams) domain.SubmissionResult[domain.BlogCategory]
	JoinWaitlistFunc   func(ctx context.Context, payload domain.WaitlistPayload) domain.SubmissionResult[json.RawMessage]
}

func (m *mockAPI) ListBlogs(ctx context.Context, page, perPage int) domain.SubmissionResult[domain.BlogPage] {
	return m.ListBlogsFunc(ctx, page, perPage)
}

func (m *mockAPI) GetBlog(ctx context.Context, slugOrID string) domain.SubmissionResult[domain.Blog] {
	return m.GetBlogFunc(ctx, slugOrID)
}

func (m *mockAPI) CreateBlog(ctx context.Context, params domain.CreateBlogParams) domain.SubmissionResult[domain.Blog] {
	return m.CreateBlogFunc(ctx, params)
}

func (m *mockAPI) UpdateBlog(ctx context.Context, id int, params domain.UpdateBlogParams) domain.SubmissionResult[domain.Blog] {
	return m.UpdateBlogFunc(ctx, id, params)
}

func (m *mockAPI) ListCategories(ctx context.Context, page, perPage int) domain.SubmissionResult[[]domain.BlogCategory] {
	return m.ListCategoriesFunc(ctx, page, perPage)
}

func (m *mockAPI) CreateCategory(ctx context.Context, params domain.CategoryParams) domain.SubmissionResult[domain.BlogCategory] {
	return m.CreateCategoryFunc(ctx, params)
}

func (m *mockAPI) UpdateCategory(ctx context.Context, id int, params domain.CategoryParams) domain.SubmissionResult[domain.BlogCategory] {
	return m.UpdateCategoryFunc(ctx, id, params)
}

func (m *mockAPI) JoinWaitlist(ctx context.Context, payload domain.WaitlistPayload) domain.SubmissionResult[json.RawMessage] {
	return m.JoinWaitlistFunc(ctx, payload)
}

// =============================================================================
// Memory Storage
// =============================================================================

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (m *memoryStorage) Put(ctx context.Context, key string, data io.Reader, opts storage.PutOptions) error {
	if m.putErr != nil {
		return m.putErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	return nil
}

func (m *memoryStorage) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, storage.ObjectInfo{}, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), storage.ObjectInfo{Key: key, Size: int64(len(b))}, nil
}

func (m *memoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStorage) URL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

func (m *memoryStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}
