package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/sourzer/sourzer-web/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// CategoryPageSize is how many categories one refresh asks for.
const CategoryPageSize = 100

// CategoryAPI is the part of the remote content API that serves categories.
// *apiclient.Client satisfies it.
type CategoryAPI interface {
	ListCategories(ctx context.Context, page, perPage int) domain.SubmissionResult[[]domain.BlogCategory]
	CreateCategory(ctx context.Context, params domain.CategoryParams) domain.SubmissionResult[domain.BlogCategory]
	UpdateCategory(ctx context.Context, id int, params domain.CategoryParams) domain.SubmissionResult[domain.BlogCategory]
}

// =============================================================================
// Category Store
// =============================================================================

// CategoryStore is the single shared copy of the category list.
//
// Every page that shows categories reads from the store. Creating or updating
// a category refreshes it once and notifies subscribers, so the blog form and
// the category dialog never hold diverging lists. Concurrent refreshes share
// one remote call.
type CategoryStore struct {
	api    CategoryAPI
	logger *slog.Logger
	group  singleflight.Group

	mu     sync.RWMutex
	list   []domain.BlogCategory
	loaded bool
	// gen counts successful writes. A fetch started before a write never
	// replaces the list stored by a fetch started after it.
	gen    int
	stored int
	subs   map[int]func([]domain.BlogCategory)
	nextID int
}

// NewCategoryStore creates an empty store. Nothing is fetched until the
// first Categories or Refresh call.
func NewCategoryStore(api CategoryAPI, logger *slog.Logger) *CategoryStore {
	return &CategoryStore{
		api:    api,
		logger: logger,
		subs:   make(map[int]func([]domain.BlogCategory)),
	}
}

// Categories returns the cached list, loading it on first use.
func (s *CategoryStore) Categories(ctx context.Context) ([]domain.BlogCategory, error) {
	s.mu.RLock()
	if s.loaded {
		list := slices.Clone(s.list)
		s.mu.RUnlock()
		return list, nil
	}
	s.mu.RUnlock()
	return s.Refresh(ctx)
}

const categoriesKey = "categories"

// Refresh fetches the list from the remote API and notifies subscribers.
// On failure the previous list is kept.
func (s *CategoryStore) Refresh(ctx context.Context) ([]domain.BlogCategory, error) {
	const op = "category.refresh"

	v, err, _ := s.group.Do(categoriesKey, func() (any, error) {
		s.mu.RLock()
		gen := s.gen
		s.mu.RUnlock()

		res := s.api.ListCategories(context.WithoutCancel(ctx), 1, CategoryPageSize)
		if err := res.AsError(op); err != nil {
			return nil, err
		}
		list := res.Payload
		if list == nil {
			list = []domain.BlogCategory{}
		}

		s.mu.Lock()
		if gen < s.stored {
			list = slices.Clone(s.list)
			s.mu.Unlock()
			return list, nil
		}
		s.stored = gen
		s.list = list
		s.loaded = true
		subs := make([]func([]domain.BlogCategory), 0, len(s.subs))
		for _, fn := range s.subs {
			subs = append(subs, fn)
		}
		s.mu.Unlock()

		metrics.BlogCategories.Set(float64(len(list)))
		s.logger.Debug("categories refreshed", "count", len(list))

		for _, fn := range subs {
			fn(slices.Clone(list))
		}
		return list, nil
	})
	if err != nil {
		s.logger.Warn("category refresh failed", "error", err)
		return nil, err
	}
	return slices.Clone(v.([]domain.BlogCategory)), nil
}

// Subscribe registers fn to receive the list after every successful refresh.
// The returned function removes the subscription.
func (s *CategoryStore) Subscribe(fn func([]domain.BlogCategory)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Create adds a category and refreshes the list on success.
func (s *CategoryStore) Create(ctx context.Context, params domain.CategoryParams) domain.SubmissionResult[domain.BlogCategory] {
	res := s.api.CreateCategory(ctx, params)
	if res.OK {
		s.logger.Info("category created", "name", params.Name)
		s.refreshAfterWrite(ctx)
	}
	return res
}

// Update edits a category and refreshes the list on success.
func (s *CategoryStore) Update(ctx context.Context, id int, params domain.CategoryParams) domain.SubmissionResult[domain.BlogCategory] {
	res := s.api.UpdateCategory(ctx, id, params)
	if res.OK {
		s.logger.Info("category updated", "id", id)
		s.refreshAfterWrite(ctx)
	}
	return res
}

// refreshAfterWrite reloads the list; a failed reload does not turn the
// successful write into a failure. A refresh already in flight may predate
// the write, so it is forgotten rather than joined.
func (s *CategoryStore) refreshAfterWrite(ctx context.Context) {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()
	s.group.Forget(categoriesKey)

	if _, err := s.Refresh(ctx); err != nil {
		s.mu.Lock()
		s.loaded = false
		s.mu.Unlock()
	}
}
