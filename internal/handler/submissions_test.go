package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/stretchr/testify/assert"
)

type fakeSubmissionLog struct {
	limit   int
	records []domain.SubmissionRecord
	err     error
}

func (f *fakeSubmissionLog) Recent(ctx context.Context, limit int) ([]domain.SubmissionRecord, error) {
	f.limit = limit
	return f.records, f.err
}

func TestSubmissionsIndex(t *testing.T) {
	log := &fakeSubmissionLog{records: []domain.SubmissionRecord{{
		ID:        uuid.New(),
		Form:      "waitlist",
		Status:    "success",
		Duration:  120 * time.Millisecond,
		CreatedAt: time.Now(),
	}}}
	renderer := &fakeRenderer{}
	h := NewSubmissionsHandler(log, testSite(t), renderer, testLogger())

	tests := map[string]int{
		"/admin/submissions":            DefaultSubmissionLimit,
		"/admin/submissions?limit=20":   20,
		"/admin/submissions?limit=0":    DefaultSubmissionLimit,
		"/admin/submissions?limit=9999": DefaultSubmissionLimit,
	}
	for target, want := range tests {
		rec := httptest.NewRecorder()
		h.Index(rec, httptest.NewRequest(http.MethodGet, target, nil))

		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, want, log.limit, target)
		data := renderer.last(t).data.(SubmissionsPageData)
		assert.Len(t, data.Records, 1)
	}
}

func TestSubmissionsIndex_StoreFailure(t *testing.T) {
	h := NewSubmissionsHandler(&fakeSubmissionLog{err: errors.New("db down")}, testSite(t), &fakeRenderer{}, testLogger())

	rec := httptest.NewRecorder()
	h.Index(rec, httptest.NewRequest(http.MethodGet, "/admin/submissions", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
