package form

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Instance is anything the registry can hold and end. Busy instances are
// never evicted for capacity or age.
type Instance interface {
	Close()
	Closed() bool
	Busy() bool
}

const defaultMaxInstances = 10000

type instanceEntry[C Instance] struct {
	value    C
	lastUsed time.Time
}

// Instances keeps one live instance per rendered form, keyed by the hidden
// form_id field, so repeated POSTs of the same page reach the same
// controller. Idle entries expire after ttl and are closed on eviction.
type Instances[C Instance] struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	newFn   func() C
	entries map[string]*instanceEntry[C]
	now     func() time.Time
}

// NewInstances creates a registry that builds missing entries with newFn.
func NewInstances[C Instance](ttl time.Duration, newFn func() C) *Instances[C] {
	return &Instances[C]{
		ttl:     ttl,
		max:     defaultMaxInstances,
		newFn:   newFn,
		entries: make(map[string]*instanceEntry[C]),
		now:     time.Now,
	}
}

// NewID returns a fresh form id for a newly rendered form.
func NewID() string {
	return uuid.NewString()
}

// Acquire returns the instance for id, creating it if needed. Ids that are
// not UUIDs are replaced by a fresh one so clients cannot pick keys. A closed
// instance is swapped for a new one. The returned id is the one to render
// back into the form.
func (r *Instances[C]) Acquire(id string) (string, C) {
	if _, err := uuid.Parse(id); err != nil {
		id = NewID()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.entries[id]; ok {
		if !e.value.Closed() && now.Sub(e.lastUsed) <= r.ttl {
			e.lastUsed = now
			return id, e.value
		}
		e.value.Close()
		delete(r.entries, id)
	}

	if len(r.entries) >= r.max {
		r.sweepLocked(now)
		if len(r.entries) >= r.max {
			r.evictOldestLocked()
		}
	}

	v := r.newFn()
	r.entries[id] = &instanceEntry[C]{value: v, lastUsed: now}
	return id, v
}

// Release closes and forgets the instance for id.
func (r *Instances[C]) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		e.value.Close()
		delete(r.entries, id)
	}
}

// Len returns the number of live entries.
func (r *Instances[C]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep evicts expired or closed entries and returns how many were removed.
func (r *Instances[C]) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked(r.now())
}

// Run sweeps every interval until ctx is done.
func (r *Instances[C]) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *Instances[C]) sweepLocked(now time.Time) int {
	removed := 0
	for id, e := range r.entries {
		if e.value.Closed() || (now.Sub(e.lastUsed) > r.ttl && !e.value.Busy()) {
			e.value.Close()
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

func (r *Instances[C]) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, e := range r.entries {
		if e.value.Busy() {
			continue
		}
		if oldestID == "" || e.lastUsed.Before(oldest) {
			oldestID, oldest = id, e.lastUsed
		}
	}
	if oldestID != "" {
		r.entries[oldestID].value.Close()
		delete(r.entries, oldestID)
	}
}
