package form

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInstance struct {
	mu     sync.Mutex
	closed bool
	busy   bool
}

func (f *fakeInstance) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

func (f *fakeInstance) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeInstance) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func newTestInstances(ttl time.Duration) (*Instances[*fakeInstance], *time.Time) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewInstances(ttl, func() *fakeInstance { return &fakeInstance{} })
	r.now = func() time.Time { return now }
	return r, &now
}

func TestInstances_AcquireReturnsSameInstance(t *testing.T) {
	r, _ := newTestInstances(time.Minute)

	id, first := r.Acquire("")
	_, err := uuid.Parse(id)
	require.NoError(t, err, "empty id is replaced with a uuid")

	sameID, second := r.Acquire(id)
	assert.Equal(t, id, sameID)
	assert.Same(t, first, second)
	assert.Equal(t, 1, r.Len())
}

func TestInstances_RejectsClientChosenKeys(t *testing.T) {
	r, _ := newTestInstances(time.Minute)

	id, _ := r.Acquire("../../etc")
	assert.NotEqual(t, "../../etc", id)
}

func TestInstances_ExpiredEntryIsReplaced(t *testing.T) {
	r, now := newTestInstances(time.Minute)

	id, first := r.Acquire(uuid.NewString())
	*now = now.Add(2 * time.Minute)

	_, second := r.Acquire(id)
	assert.NotSame(t, first, second)
	assert.True(t, first.Closed(), "evicted instance is closed")
}

func TestInstances_ClosedEntryIsReplaced(t *testing.T) {
	r, _ := newTestInstances(time.Minute)

	id, first := r.Acquire(uuid.NewString())
	first.Close()

	_, second := r.Acquire(id)
	assert.NotSame(t, first, second)
	assert.False(t, second.Closed())
}

func TestInstances_SweepAndRelease(t *testing.T) {
	r, now := newTestInstances(time.Minute)

	_, a := r.Acquire(uuid.NewString())
	*now = now.Add(50 * time.Second)
	idB, b := r.Acquire(uuid.NewString())
	*now = now.Add(20 * time.Second)

	assert.Equal(t, 1, r.Sweep())
	assert.True(t, a.Closed())
	assert.False(t, b.Closed())

	r.Release(idB)
	assert.True(t, b.Closed())
	assert.Equal(t, 0, r.Len())
}

func TestInstances_EvictsOldestWhenFull(t *testing.T) {
	r, now := newTestInstances(time.Hour)
	r.max = 2

	_, oldest := r.Acquire(uuid.NewString())
	*now = now.Add(time.Second)
	r.Acquire(uuid.NewString())
	*now = now.Add(time.Second)
	r.Acquire(uuid.NewString())

	assert.Equal(t, 2, r.Len())
	assert.True(t, oldest.Closed())
}

func TestInstances_EvictionSkipsBusyInstances(t *testing.T) {
	r, now := newTestInstances(time.Hour)
	r.max = 2

	_, sending := r.Acquire(uuid.NewString())
	sending.busy = true
	*now = now.Add(time.Second)
	_, idle := r.Acquire(uuid.NewString())
	*now = now.Add(time.Second)
	r.Acquire(uuid.NewString())

	assert.False(t, sending.Closed(), "an instance with a call in flight is kept")
	assert.True(t, idle.Closed())
	assert.Equal(t, 2, r.Len())

	*now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, r.Sweep(), "expired busy instances survive the sweep")
	assert.False(t, sending.Closed())
}

func TestInstances_RunStopsWithContext(t *testing.T) {
	r, _ := newTestInstances(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	<-done
}

func TestInstances_WithControllers(t *testing.T) {
	r := NewInstances(time.Minute, func() *Controller[testField, string] {
		return newTestController(nil, ResetOnSuccess)
	})
	id, c := r.Acquire("")
	c.Set(fieldName, "Ada")

	_, again := r.Acquire(id)
	values, _, _ := again.Snapshot()
	assert.Equal(t, "Ada", values.Get(fieldName))
}
