package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*Submissions, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewSubmissions(db), mock, db
}

// jsonArg matches a pqtype.NullRawMessage argument by its JSON text.
type jsonArg string

func (a jsonArg) Match(v driver.Value) bool {
	switch b := v.(type) {
	case []byte:
		return string(b) == string(a)
	case string:
		return b == string(a)
	}
	return false
}

func TestInsert_WithFieldErrors(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	id := uuid.New()
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	failed, _ := pq.StringArray{"email", "name"}.Value()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+submission_log`).
		WithArgs(id, "waitlist", "invalid",
			jsonArg(`{"email":"Invalid email address","name":"Name must be at least 2 characters"}`),
			failed, "", int64(0), created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Insert(context.Background(), domain.SubmissionRecord{
		ID:     id,
		Form:   "waitlist",
		Status: "invalid",
		FieldErrors: map[string]string{
			"name":  "Name must be at least 2 characters",
			"email": "Invalid email address",
		},
		CreatedAt: created,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_NoFieldErrorsIsNull(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	emptyArray, _ := pq.StringArray{}.Value()
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+submission_log`).
		WithArgs(sqlmock.AnyArg(), "blog_create", "error", nil, emptyArray,
			"Title already exists", int64(250), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Insert(context.Background(), domain.SubmissionRecord{
		Form:        "blog_create",
		Status:      "error",
		ServerError: "Title already exists",
		Duration:    250 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT`).WillReturnError(errors.New("db down"))

	err := repo.Insert(context.Background(), domain.SubmissionRecord{Form: "login", Status: "success"})
	assert.ErrorContains(t, err, "db error: db down")
}

func TestRecent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	id1, id2 := uuid.New(), uuid.New()
	now := time.Now().UTC().Truncate(time.Second)
	rows := sqlmock.NewRows([]string{"id", "form", "status", "field_errors", "server_error", "duration_ms", "created_at"}).
		AddRow(id1.String(), "waitlist", "success", nil, "", int64(120), now).
		AddRow(id2.String(), "login", "invalid", []byte(`{"password":"Password is required"}`), "", int64(0), now.Add(-time.Minute))

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*form.*FROM\s+submission_log\s+ORDER\s+BY\s+created_at\s+DESC\s+LIMIT\s+\$1$`).
		WithArgs(50).
		WillReturnRows(rows)

	got, err := repo.Recent(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, id1, got[0].ID)
	assert.Equal(t, 120*time.Millisecond, got[0].Duration)
	assert.Nil(t, got[0].FieldErrors)
	assert.Equal(t, map[string]string{"password": "Password is required"}, got[1].FieldErrors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrune(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	before := time.Now().Add(-30 * 24 * time.Hour)
	mock.ExpectExec(`^DELETE\s+FROM\s+submission_log\s+WHERE\s+created_at\s*<\s*\$1$`).
		WithArgs(before).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.Prune(context.Background(), before)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
