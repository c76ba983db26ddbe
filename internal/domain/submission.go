package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// SubmissionResult is the normalized outcome of one remote call. Every
// failure mode (transport, non-2xx, undecodable body) is folded into
// OK=false with a user-facing ErrorMessage.
type SubmissionResult[T any] struct {
	OK           bool
	Payload      T
	ErrorMessage string
	StatusCode   int
	Err          error // underlying cause, for logging only
}

// Succeeded builds a successful result.
func Succeeded[T any](payload T, status int) SubmissionResult[T] {
	return SubmissionResult[T]{OK: true, Payload: payload, StatusCode: status}
}

// Failed builds a failed result.
func Failed[T any](message string, status int, err error) SubmissionResult[T] {
	return SubmissionResult[T]{ErrorMessage: message, StatusCode: status, Err: err}
}

// AsError converts a failed result into a domain error. A successful result
// yields nil.
func (r SubmissionResult[T]) AsError(op string) error {
	if r.OK {
		return nil
	}
	if r.StatusCode == 404 {
		return &Error{Code: ENOTFOUND, Op: op, Message: r.ErrorMessage, Err: r.Err}
	}
	return Unavailable(r.Err, op, r.ErrorMessage)
}

// SubmissionRecord is one terminal form interaction kept in the audit log.
type SubmissionRecord struct {
	ID          uuid.UUID
	Form        string
	Status      string
	FieldErrors map[string]string
	ServerError string
	Duration    time.Duration
	CreatedAt   time.Time
}

// FailedFields lists the fields that failed validation, sorted.
func (r SubmissionRecord) FailedFields() []string {
	fields := make([]string, 0, len(r.FieldErrors))
	for name := range r.FieldErrors {
		fields = append(fields, name)
	}
	slices.Sort(fields)
	return fields
}
