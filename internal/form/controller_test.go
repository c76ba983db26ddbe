package form

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// Test helpers
// =============================================================================

type recordingPresenter struct {
	mu        sync.Mutex
	successes []string
	failures  []string
}

func (p *recordingPresenter) Success(payload string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.successes = append(p.successes, payload)
}

func (p *recordingPresenter) Failure(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures = append(p.failures, message)
}

func okSubmit(calls *atomic.Int32) SubmitFunc[testField, string] {
	return func(ctx context.Context, values Values[testField]) domain.SubmissionResult[string] {
		calls.Add(1)
		return domain.Succeeded("saved "+values.Get(fieldName), 201)
	}
}

func validInput() url.Values {
	return url.Values{"name": {"Ada"}, "email": {"ada@example.com"}}
}

func newTestController(submit SubmitFunc[testField, string], policy SuccessPolicy, observers ...Observer) *Controller[testField, string] {
	return NewController(Config[testField, string]{
		Name:      "test",
		Schema:    testSchema(),
		Submit:    submit,
		OnSuccess: policy,
		Observers: observers,
	})
}

// =============================================================================
// Submit
// =============================================================================

func TestController_ValidationFailureSkipsRemoteCall(t *testing.T) {
	var calls atomic.Int32
	c := newTestController(okSubmit(&calls), ResetOnSuccess)
	c.Load(url.Values{"name": {"A"}, "email": {"nope"}})

	p := &recordingPresenter{}
	out, err := c.Submit(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, Idle, out.Status)
	assert.Equal(t, Errors[testField]{
		fieldName:  "Username must be at least 2 characters.",
		fieldEmail: "Please enter a valid email address.",
	}, out.FieldErrors)
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, Idle, c.Status())
	assert.Empty(t, p.successes)
	assert.Empty(t, p.failures)

	values, errs, _ := c.Snapshot()
	assert.Equal(t, "A", values.Get(fieldName))
	assert.Len(t, errs, 2)
}

func TestController_SuccessResets(t *testing.T) {
	var calls atomic.Int32
	c := newTestController(okSubmit(&calls), ResetOnSuccess)
	c.Load(validInput())

	p := &recordingPresenter{}
	out, err := c.Submit(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, Success, out.Status)
	assert.Equal(t, "saved Ada", out.Payload)
	assert.Equal(t, []string{"saved Ada"}, p.successes)
	assert.Equal(t, int32(1), calls.Load())

	assert.Equal(t, Idle, c.Status())
	values, errs, serverErr := c.Snapshot()
	assert.Equal(t, "", values.Get(fieldName))
	assert.Equal(t, "", values.Get(fieldEmail))
	assert.Empty(t, errs)
	assert.Empty(t, serverErr)
}

func TestController_SuccessKeepsValues(t *testing.T) {
	var calls atomic.Int32
	c := newTestController(okSubmit(&calls), KeepOnSuccess)
	c.Load(validInput())

	out, err := c.Submit(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Success, out.Status)
	assert.Equal(t, Success, c.Status())

	values, _, _ := c.Snapshot()
	assert.Equal(t, "Ada", values.Get(fieldName))

	// A kept form can be submitted again.
	_, err = c.Submit(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	c.Reset()
	assert.Equal(t, Idle, c.Status())
}

func TestController_NavigateClosesInstance(t *testing.T) {
	var calls atomic.Int32
	c := newTestController(okSubmit(&calls), NavigateOnSuccess("/admin/blogs"))
	c.Load(validInput())

	out, err := c.Submit(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "/admin/blogs", out.Redirect)
	assert.True(t, c.Closed())

	_, err = c.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, int32(1), calls.Load())
}

func TestController_FailureKeepsValues(t *testing.T) {
	c := newTestController(func(ctx context.Context, values Values[testField]) domain.SubmissionResult[string] {
		return domain.Failed[string]("Failed to Join for Free. Please try again.", 500, errors.New("boom"))
	}, ResetOnSuccess)
	c.Load(validInput())

	p := &recordingPresenter{}
	out, err := c.Submit(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, Error, out.Status)
	assert.Equal(t, "Failed to Join for Free. Please try again.", out.ServerError)
	assert.Equal(t, []string{"Failed to Join for Free. Please try again."}, p.failures)
	assert.Empty(t, p.successes)

	values, _, serverErr := c.Snapshot()
	assert.Equal(t, "Ada", values.Get(fieldName))
	assert.Equal(t, "ada@example.com", values.Get(fieldEmail))
	assert.Equal(t, "Failed to Join for Free. Please try again.", serverErr)
	assert.Equal(t, Error, c.Status())
}

func TestController_ResubmitAfterError(t *testing.T) {
	var calls atomic.Int32
	c := newTestController(func(ctx context.Context, values Values[testField]) domain.SubmissionResult[string] {
		if calls.Add(1) == 1 {
			return domain.Failed[string]("try again", 502, nil)
		}
		return domain.Succeeded("ok", 200)
	}, KeepOnSuccess)
	c.Load(validInput())

	out, err := c.Submit(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Error, out.Status)

	out, err = c.Submit(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Success, out.Status)

	_, _, serverErr := c.Snapshot()
	assert.Empty(t, serverErr)
}

func TestController_PanickingSubmitBecomesFailure(t *testing.T) {
	c := newTestController(func(ctx context.Context, values Values[testField]) domain.SubmissionResult[string] {
		panic("unexpected")
	}, ResetOnSuccess)
	c.Load(validInput())

	out, err := c.Submit(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Error, out.Status)
	assert.NotEmpty(t, out.ServerError)
}

// =============================================================================
// Concurrency
// =============================================================================

// blockingSubmit holds every call until release is closed.
func blockingSubmit(calls *atomic.Int32, entered chan<- struct{}, release <-chan struct{}) SubmitFunc[testField, string] {
	return func(ctx context.Context, values Values[testField]) domain.SubmissionResult[string] {
		calls.Add(1)
		entered <- struct{}{}
		<-release
		return domain.Succeeded("done", 200)
	}
}

func TestController_SecondSubmitWhileInFlight(t *testing.T) {
	var calls atomic.Int32
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	c := newTestController(blockingSubmit(&calls, entered, release), ResetOnSuccess)
	c.Load(validInput())

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), nil)
		done <- err
	}()
	<-entered
	assert.Equal(t, Submitting, c.Status())

	out, err := c.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.Equal(t, Submitting, out.Status)
	assert.Equal(t, int32(1), calls.Load())

	// Edits during flight are ignored.
	c.Load(url.Values{"name": {"Changed"}})

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, Idle, c.Status())
}

func TestController_EditsDuringFlightKeepSentValues(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	c := newTestController(func(ctx context.Context, values Values[testField]) domain.SubmissionResult[string] {
		entered <- struct{}{}
		<-release
		return domain.Failed[string]("try again", 502, nil)
	}, ResetOnSuccess)
	c.Load(validInput())

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), nil)
		done <- err
	}()
	<-entered

	c.Set(fieldName, "Changed while sending")
	c.SetValue(fieldEmail, "other@example.com")

	close(release)
	require.NoError(t, <-done)

	values, _, _ := c.Snapshot()
	assert.Equal(t, Error, c.Status())
	assert.Equal(t, "Ada", values.Get(fieldName))
	assert.Equal(t, "ada@example.com", values.Get(fieldEmail))

	c.Set(fieldName, "Grace")
	values, _, _ = c.Snapshot()
	assert.Equal(t, "Grace", values.Get(fieldName), "edits apply again once the call settles")
}

func TestController_ResultAfterCloseIsDiscarded(t *testing.T) {
	var calls atomic.Int32
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	c := newTestController(blockingSubmit(&calls, entered, release), KeepOnSuccess)
	c.Load(validInput())

	p := &recordingPresenter{}
	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), p)
		done <- err
	}()
	<-entered
	c.Close()
	close(release)

	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Empty(t, p.successes)
	assert.Empty(t, p.failures)
	assert.Equal(t, Submitting, c.Status(), "no state update after close")
}

// =============================================================================
// Observers
// =============================================================================

func TestController_ObserverSeesTransitions(t *testing.T) {
	var mu sync.Mutex
	var seen []Status
	obs := ObserverFunc(func(tr Transition) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, "test", tr.Form)
		seen = append(seen, tr.To)
	})

	var calls atomic.Int32
	c := newTestController(okSubmit(&calls), ResetOnSuccess, obs)

	_, err := c.Submit(context.Background(), nil)
	require.NoError(t, err)
	c.Load(validInput())
	_, err = c.Submit(context.Background(), nil)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{
		Validating, Idle, // rejected by validation
		Validating, Submitting, Success, Idle, // sent, then reset
	}, seen)
}

func TestController_SetupRegistersDerivations(t *testing.T) {
	c := NewController(Config[testField, string]{
		Name:   "test",
		Schema: testSchema(),
		Setup: func(s *Store[testField]) {
			s.Derive(fieldPhone, func(source string, set func(testField, string)) {
				set(fieldName, "from "+source)
			})
		},
	})
	c.Set(fieldPhone, "0800")

	values, _, _ := c.Snapshot()
	assert.Equal(t, "from 0800", values.Get(fieldName))
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "submitting", Submitting.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "status(42)", Status(42).String())
}
