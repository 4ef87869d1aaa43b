package memory

import (
	"context"
	"sync"
	"time"

	"intelliprep-notes-be/internal/apperror"
	"intelliprep-notes-be/internal/auth"
	"intelliprep-notes-be/internal/notestore"

	"github.com/patrickmn/go-cache"
)

// StoreFactory builds a fresh, empty store for userId.
type StoreFactory func(userId string) *notestore.Store

// StoreRegistry owns one Note Session Store per signed-in user. Stores idle for
// longer than the TTL are reset and dropped; the next access starts from a load.
type StoreRegistry struct {
	cache   *cache.Cache
	factory StoreFactory
	mu      sync.Mutex
}

func NewStoreRegistry(idleTTL time.Duration, factory StoreFactory) *StoreRegistry {
	if idleTTL <= 0 {
		idleTTL = time.Hour
	}
	c := cache.New(idleTTL, 10*time.Minute)
	c.OnEvicted(func(_ string, v interface{}) {
		if s, ok := v.(*notestore.Store); ok {
			s.Reset()
		}
	})
	return &StoreRegistry{cache: c, factory: factory}
}

// Get returns the user's store and refreshes its idle timer.
func (r *StoreRegistry) Get(userId string) (*notestore.Store, bool) {
	x, found := r.cache.Get(userId)
	if !found {
		return nil, false
	}
	s := x.(*notestore.Store)
	r.cache.Set(userId, s, cache.DefaultExpiration)
	return s, true
}

// GetOrCreate reports created=true when the store is new and still needs a load.
func (r *StoreRegistry) GetOrCreate(userId string) (*notestore.Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.Get(userId); ok {
		return s, false
	}
	s := r.factory(userId)
	r.cache.Set(userId, s, cache.DefaultExpiration)
	return s, true
}

// Acquire returns the user's store, loading it from the backend on first use.
// A store whose first load fails, or ran without a session, is dropped so the
// next call loads again.
func (r *StoreRegistry) Acquire(ctx context.Context, userId string) (*notestore.Store, error) {
	s, created := r.GetOrCreate(userId)
	if !created {
		return s, nil
	}
	if err := s.Load(ctx); err != nil {
		r.Evict(userId)
		return nil, err
	}
	if !s.HasSession() {
		r.Evict(userId)
		return nil, apperror.Auth("load")
	}
	return s, nil
}

// Evict resets and forgets the user's store.
func (r *StoreRegistry) Evict(userId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Delete(userId)
}

func (r *StoreRegistry) Count() int {
	return r.cache.ItemCount()
}

// OnAuthEvent drops the store of a user who signed out.
func (r *StoreRegistry) OnAuthEvent(evt auth.Event) {
	if evt.Kind == auth.SignedOut {
		r.Evict(evt.UserId)
	}
}
