package audit

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sourzer/sourzer-web/internal/domain"
)

// MemorySink logs every record and keeps the newest ones in a ring buffer.
// It is used when no database is configured.
type MemorySink struct {
	logger *slog.Logger

	mu   sync.Mutex
	ring []domain.SubmissionRecord
	next int
	full bool
}

// NewMemorySink keeps up to capacity records.
func NewMemorySink(capacity int, logger *slog.Logger) *MemorySink {
	if capacity <= 0 {
		capacity = 100
	}
	return &MemorySink{logger: logger, ring: make([]domain.SubmissionRecord, capacity)}
}

func (m *MemorySink) Insert(ctx context.Context, rec domain.SubmissionRecord) error {
	m.logger.Info("form submission",
		"form", rec.Form,
		"status", rec.Status,
		"failed_fields", rec.FailedFields(),
		"server_error", rec.ServerError,
		"duration_ms", rec.Duration.Milliseconds(),
	)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ring[m.next] = rec
	m.next = (m.next + 1) % len(m.ring)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (m *MemorySink) Recent(ctx context.Context, limit int) ([]domain.SubmissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.next
	if m.full {
		n = len(m.ring)
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]domain.SubmissionRecord, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.ring)) % len(m.ring)
		out = append(out, m.ring[idx])
	}
	return out, nil
}
