package localstore

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Registry hands each device its own Store and forgets stores that have been
// idle longer than the TTL.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*entry
	ttl    time.Duration
	now    func() time.Time
	log    zerolog.Logger
}

type entry struct {
	store    *Store
	lastSeen time.Time
}

func NewRegistry(ttl time.Duration, log zerolog.Logger) *Registry {
	return &Registry{
		stores: make(map[string]*entry),
		ttl:    ttl,
		now:    time.Now,
		log:    log,
	}
}

// For returns the store of deviceID, creating it on first use.
func (r *Registry) For(deviceID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	e, ok := r.stores[deviceID]
	if !ok || r.expired(e, now) {
		e = &entry{store: New()}
		r.stores[deviceID] = e
	}
	e.lastSeen = now
	return e.store
}

// Peek returns the live store of deviceID without creating one. Read paths
// use it so requests from unknown devices leave nothing behind.
func (r *Registry) Peek(deviceID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	e, ok := r.stores[deviceID]
	if !ok {
		return nil, false
	}
	if r.expired(e, now) {
		delete(r.stores, deviceID)
		return nil, false
	}
	e.lastSeen = now
	return e.store, true
}

// Len reports the number of tracked devices.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Sweep drops idle stores and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	removed := 0
	for id, e := range r.stores {
		if r.expired(e, now) {
			delete(r.stores, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.log.Debug().Int("removed", n).Msg("evicted idle local stores")
			}
		}
	}
}

func (r *Registry) expired(e *entry, now time.Time) bool {
	return r.ttl > 0 && now.Sub(e.lastSeen) > r.ttl
}
