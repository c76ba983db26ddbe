// Package audit keeps a log of finished form submissions.
//
// A Recorder observes every form controller. Terminal transitions (success,
// server error, rejected by validation) become domain.SubmissionRecords that
// are written to a Sink in the background, so a slow database never delays a
// form response. Postgres is used when configured; otherwise records go to
// the application log and a small in-memory ring.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/sourzer/sourzer-web/internal/form"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Sink stores and lists submission records.
// *repository.Submissions and *MemorySink satisfy it.
type Sink interface {
	Insert(ctx context.Context, rec domain.SubmissionRecord) error
	Recent(ctx context.Context, limit int) ([]domain.SubmissionRecord, error)
}

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// DefaultQueueSize bounds how many records may wait for the sink.
	DefaultQueueSize = 256

	// writeTimeout bounds a single sink write.
	writeTimeout = 5 * time.Second
)

// Status values stored with each record.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusInvalid = "invalid"
)

// =============================================================================
// Recorder
// =============================================================================

// Recorder turns controller transitions into records. It implements
// form.Observer.
type Recorder struct {
	sink   Sink
	queue  chan domain.SubmissionRecord
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	dropped int
}

// NewRecorder creates a Recorder. Call Run to start writing.
func NewRecorder(sink Sink, queueSize int, logger *slog.Logger) *Recorder {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Recorder{
		sink:   sink,
		queue:  make(chan domain.SubmissionRecord, queueSize),
		logger: logger,
		now:    time.Now,
	}
}

// OnTransition implements form.Observer. It never blocks; when the queue is
// full the record is dropped and counted.
func (r *Recorder) OnTransition(t form.Transition) {
	status, ok := terminalStatus(t)
	if !ok {
		return
	}

	rec := domain.SubmissionRecord{
		ID:          uuid.New(),
		Form:        t.Form,
		Status:      status,
		FieldErrors: t.FieldErrors,
		ServerError: t.ServerError,
		Duration:    t.Elapsed,
		CreatedAt:   r.now().UTC(),
	}

	select {
	case r.queue <- rec:
	default:
		r.mu.Lock()
		r.dropped++
		r.mu.Unlock()
		r.logger.Warn("submission log queue full, record dropped", "form", t.Form, "status", status)
	}
}

// Dropped reports how many records were discarded because the queue was full.
func (r *Recorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Recent lists the newest records from the sink.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]domain.SubmissionRecord, error) {
	return r.sink.Recent(ctx, limit)
}

// Run writes queued records until ctx is cancelled, then drains what is
// left.
func (r *Recorder) Run(ctx context.Context) {
	r.logger.Info("submission log started")
	for {
		select {
		case rec := <-r.queue:
			r.write(rec)
		case <-ctx.Done():
			r.drain()
			r.logger.Info("submission log stopped")
			return
		}
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case rec := <-r.queue:
			r.write(rec)
		default:
			return
		}
	}
}

func (r *Recorder) write(rec domain.SubmissionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.sink.Insert(ctx, rec); err != nil {
		r.logger.Error("failed to write submission log", "form", rec.Form, "status", rec.Status, "error", err)
	}
}

// terminalStatus maps a transition onto a stored status. Only the end of a
// submission attempt is recorded.
func terminalStatus(t form.Transition) (string, bool) {
	switch {
	case t.To == form.Success:
		return StatusSuccess, true
	case t.To == form.Error:
		return StatusError, true
	case t.To == form.Idle && t.From == form.Validating:
		return StatusInvalid, true
	}
	return "", false
}

var _ form.Observer = (*Recorder)(nil)
