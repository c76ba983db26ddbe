package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/sourzer/sourzer-web/internal/domain"
)

// =============================================================================
// Status
// =============================================================================

// Status is the lifecycle state of a form instance.
type Status int

const (
	Idle Status = iota
	Validating
	Submitting
	Success
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

var (
	// ErrSubmissionInFlight is returned when Submit is called while a remote
	// call for the same instance is still running. Nothing is sent.
	ErrSubmissionInFlight = errors.New("form: submission already in progress")

	// ErrClosed is returned once the instance has been closed. Results that
	// arrive after Close are dropped and reported with this error.
	ErrClosed = errors.New("form: instance closed")
)

// =============================================================================
// Collaborators
// =============================================================================

// SubmitFunc performs the remote mutation for a validated snapshot of values.
// It must report every failure through the result rather than panicking.
type SubmitFunc[F ~string, R any] func(ctx context.Context, values Values[F]) domain.SubmissionResult[R]

// Presenter surfaces the terminal outcome of a submission to the user.
type Presenter[R any] interface {
	Success(payload R)
	Failure(message string)
}

// Transition describes one state change.
type Transition struct {
	Form        string
	From, To    Status
	FieldErrors map[string]string
	ServerError string
	Elapsed     time.Duration // time since the submission started
}

// Observer is notified of every transition after the controller's lock is
// released.
type Observer interface {
	OnTransition(t Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(t Transition)

func (f ObserverFunc) OnTransition(t Transition) { f(t) }

// SuccessPolicy decides what happens to the fields after a successful call.
type SuccessPolicy struct {
	reset    bool
	redirect string
}

var (
	// ResetOnSuccess clears the form back to its initial values.
	ResetOnSuccess = SuccessPolicy{reset: true}
	// KeepOnSuccess leaves the submitted values in place.
	KeepOnSuccess = SuccessPolicy{}
)

// NavigateOnSuccess ends the instance and asks the caller to redirect.
func NavigateOnSuccess(target string) SuccessPolicy {
	return SuccessPolicy{redirect: target}
}

// =============================================================================
// Controller
// =============================================================================

// Config wires a Controller.
type Config[F ~string, R any] struct {
	Name      string // form name used in logs and metrics
	Schema    Schema[F]
	Initial   Values[F]
	Submit    SubmitFunc[F, R]
	OnSuccess SuccessPolicy
	Observers []Observer
	Logger    *slog.Logger

	// Setup runs once against the fresh store, typically to register
	// derivations.
	Setup func(s *Store[F])
}

// Outcome is what a caller needs to render after Submit returns.
type Outcome[F ~string, R any] struct {
	Status      Status // terminal state reached by this submission
	Payload     R
	FieldErrors Errors[F]
	ServerError string
	Redirect    string
}

// Controller drives one form instance through
// Idle -> Validating -> Submitting -> Success|Error. At most one remote call
// is in flight per instance.
type Controller[F ~string, R any] struct {
	mu        sync.Mutex
	name      string
	schema    Schema[F]
	store     *Store[F]
	submit    SubmitFunc[F, R]
	policy    SuccessPolicy
	observers []Observer
	logger    *slog.Logger

	status      Status
	serverError string
	closed      bool
	pending     []Transition
}

// NewController creates a controller in the Idle state.
func NewController[F ~string, R any](cfg Config[F, R]) *Controller[F, R] {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Controller[F, R]{
		name:      cfg.Name,
		schema:    cfg.Schema,
		store:     NewStore(cfg.Schema, cfg.Initial),
		submit:    cfg.Submit,
		policy:    cfg.OnSuccess,
		observers: cfg.Observers,
		logger:    logger.With("form", cfg.Name),
	}
	if cfg.Setup != nil {
		cfg.Setup(c.store)
	}
	return c
}

// Name returns the form name.
func (c *Controller[F, R]) Name() string { return c.name }

// Status returns the current state.
func (c *Controller[F, R]) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Edits to values (Set, SetValue and Load) are ignored while a call is in
// flight or after Close, so a failed call leaves the values exactly as they
// were sent.

// Set applies a user edit.
func (c *Controller[F, R]) Set(name F, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen() {
		return
	}
	c.store.Set(name, value)
}

// SetValue applies a programmatic update.
func (c *Controller[F, R]) SetValue(name F, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen() {
		return
	}
	c.store.SetValue(name, value)
}

// Load binds submitted values.
func (c *Controller[F, R]) Load(src url.Values) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen() {
		return
	}
	c.store.Load(src)
}

// frozen reports whether values must not change. Caller holds mu.
func (c *Controller[F, R]) frozen() bool {
	return c.status == Submitting || c.closed
}

// Snapshot returns the current values, field errors and server error.
func (c *Controller[F, R]) Snapshot() (Values[F], Errors[F], string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Values(), c.store.Errors(), c.serverError
}

// Submit validates the current values and, if they pass, performs the remote
// call. The presenter may be nil.
//
// A second Submit while the first is in flight returns ErrSubmissionInFlight
// without sending anything. If Close is called while the call is running,
// the result is discarded and ErrClosed is returned.
func (c *Controller[F, R]) Submit(ctx context.Context, p Presenter[R]) (Outcome[F, R], error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Outcome[F, R]{}, ErrClosed
	}
	if c.status == Submitting {
		c.mu.Unlock()
		return Outcome[F, R]{Status: Submitting}, ErrSubmissionInFlight
	}

	start := time.Now()
	c.transition(Validating, nil, start)
	values := c.store.Values()
	errs := c.schema.Validate(values)
	c.store.SetErrors(errs)
	if len(errs) > 0 {
		c.transition(Idle, errs.Strings(), start)
		c.mu.Unlock()
		c.flush()
		return Outcome[F, R]{Status: Idle, FieldErrors: errs}, nil
	}

	c.serverError = ""
	c.transition(Submitting, nil, start)
	submit := c.submit
	c.mu.Unlock()
	c.flush()

	res := c.call(ctx, submit, values)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug("discarding result for closed form", "ok", res.OK)
		return Outcome[F, R]{}, ErrClosed
	}

	var out Outcome[F, R]
	if res.OK {
		c.transition(Success, nil, start)
		out = Outcome[F, R]{Status: Success, Payload: res.Payload, Redirect: c.policy.redirect}
		if p != nil {
			p.Success(res.Payload)
		}
		switch {
		case c.policy.redirect != "":
			c.closed = true
		case c.policy.reset:
			c.reset()
		}
	} else {
		c.serverError = res.ErrorMessage
		c.transition(Error, nil, start)
		c.logger.Warn("form submission failed",
			"status_code", res.StatusCode,
			"message", res.ErrorMessage,
			"error", res.Err,
		)
		out = Outcome[F, R]{Status: Error, ServerError: res.ErrorMessage}
		if p != nil {
			p.Failure(res.ErrorMessage)
		}
	}
	c.mu.Unlock()
	c.flush()
	return out, nil
}

// Reset returns a finished instance to Idle with its initial values.
func (c *Controller[F, R]) Reset() {
	c.mu.Lock()
	if c.status == Submitting || c.closed {
		c.mu.Unlock()
		return
	}
	c.reset()
	c.mu.Unlock()
	c.flush()
}

// Close ends the instance. Any in-flight result is dropped when it arrives.
func (c *Controller[F, R]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Closed reports whether Close has been called or a navigate policy fired.
func (c *Controller[F, R]) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Busy reports whether a remote call is in flight.
func (c *Controller[F, R]) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status == Submitting && !c.closed
}

func (c *Controller[F, R]) reset() {
	c.store.Reset()
	c.serverError = ""
	if c.status != Idle {
		c.transition(Idle, nil, time.Time{})
	}
}

func (c *Controller[F, R]) call(ctx context.Context, submit SubmitFunc[F, R], values Values[F]) (res domain.SubmissionResult[R]) {
	if submit == nil {
		return domain.Failed[R]("Form is not configured", 0, errors.New("form: nil submit func"))
	}
	defer func() {
		if r := recover(); r != nil {
			res = domain.Failed[R]("Something went wrong. Please try again.", 0, fmt.Errorf("form: submit panicked: %v", r))
		}
	}()
	return submit(ctx, values)
}

// transition must be called with c.mu held.
func (c *Controller[F, R]) transition(to Status, fieldErrors map[string]string, start time.Time) {
	t := Transition{
		Form:        c.name,
		From:        c.status,
		To:          to,
		FieldErrors: fieldErrors,
		ServerError: c.serverError,
	}
	if !start.IsZero() {
		t.Elapsed = time.Since(start)
	}
	c.status = to
	c.logger.Debug("form transition", "from", t.From.String(), "to", t.To.String())
	if len(c.observers) > 0 {
		c.pending = append(c.pending, t)
	}
}

func (c *Controller[F, R]) flush() {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, t := range pending {
		for _, o := range c.observers {
			o.OnTransition(t)
		}
	}
}
