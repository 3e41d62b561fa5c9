package storefront

import (
	"context"
	"sync"
	"time"
)

// Factory builds the Store for a device.
type Factory func(ctx context.Context, deviceID string) *Store

type entry struct {
	store    *Store
	lastSeen time.Time
}

// Registry keeps one live Store per device. Stores idle past the sweep window are dropped;
// the cart itself stays in the device's mirror and is restored on the next Get.
type Registry struct {
	mu      sync.Mutex
	stores  map[string]*entry
	factory Factory
	nowFunc func() time.Time
}

// NewRegistry returns a Registry creating stores with factory.
func NewRegistry(factory Factory) *Registry {
	return &Registry{
		stores:  map[string]*entry{},
		factory: factory,
		nowFunc: time.Now,
	}
}

// Get returns the device's Store, creating and restoring it on first use.
// The factory runs without the registry lock held.
func (r *Registry) Get(ctx context.Context, deviceID string) *Store {
	if s, ok := r.touch(deviceID); ok {
		s.EnsureRestored(ctx)
		return s
	}

	s := r.factory(ctx, deviceID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.stores[deviceID]; ok {
		e.lastSeen = r.nowFunc()
		return e.store
	}
	r.stores[deviceID] = &entry{store: s, lastSeen: r.nowFunc()}
	return s
}

// Peek returns the device's live Store, or a Store restored from the mirror that is not
// kept. Read-only callers use it so unknown devices do not open sessions.
func (r *Registry) Peek(ctx context.Context, deviceID string) *Store {
	if s, ok := r.touch(deviceID); ok {
		s.EnsureRestored(ctx)
		return s
	}
	return r.factory(ctx, deviceID)
}

func (r *Registry) touch(deviceID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.stores[deviceID]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.nowFunc()
	return e.store, true
}

// Len is the number of live device sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Sweep drops stores unused for longer than idle and returns how many were dropped.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.nowFunc().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for id, e := range r.stores {
		if e.lastSeen.Before(cutoff) {
			delete(r.stores, id)
			dropped++
		}
	}
	return dropped
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, idle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep(idle)
		}
	}
}
