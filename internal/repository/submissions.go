// Package repository persists the form submission audit log in Postgres.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/sqlc-dev/pqtype"
)

// DBTX is the subset of database/sql the repository needs. Both *sql.DB and
// *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Submissions reads and writes submission_log rows.
type Submissions struct {
	db DBTX
}

// NewSubmissions creates a repository on db.
func NewSubmissions(db DBTX) *Submissions {
	return &Submissions{db: db}
}

const insertSubmission = `INSERT INTO submission_log
    (id, form, status, field_errors, failed_fields, server_error, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// Insert stores one record. A zero ID or CreatedAt is filled in.
func (r *Submissions) Insert(ctx context.Context, rec domain.SubmissionRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var fieldErrors pqtype.NullRawMessage
	if len(rec.FieldErrors) > 0 {
		raw, err := json.Marshal(rec.FieldErrors)
		if err != nil {
			return fmt.Errorf("encode field errors: %w", err)
		}
		fieldErrors = pqtype.NullRawMessage{RawMessage: raw, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, insertSubmission,
		rec.ID,
		rec.Form,
		rec.Status,
		fieldErrors,
		pq.StringArray(rec.FailedFields()),
		rec.ServerError,
		rec.Duration.Milliseconds(),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const recentSubmissions = `SELECT id, form, status, field_errors, server_error, duration_ms, created_at
FROM submission_log
ORDER BY created_at DESC
LIMIT $1`

// Recent returns the newest records first.
func (r *Submissions) Recent(ctx context.Context, limit int) ([]domain.SubmissionRecord, error) {
	rows, err := r.db.QueryContext(ctx, recentSubmissions, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []domain.SubmissionRecord
	for rows.Next() {
		var (
			rec         domain.SubmissionRecord
			fieldErrors pqtype.NullRawMessage
			durationMS  int64
		)
		if err := rows.Scan(&rec.ID, &rec.Form, &rec.Status, &fieldErrors, &rec.ServerError, &durationMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if fieldErrors.Valid {
			if err := json.Unmarshal(fieldErrors.RawMessage, &rec.FieldErrors); err != nil {
				return nil, fmt.Errorf("decode field errors: %w", err)
			}
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

const pruneSubmissions = `DELETE FROM submission_log WHERE created_at < $1`

// Prune deletes records older than before and reports how many were removed.
func (r *Submissions) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, pruneSubmissions, before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
