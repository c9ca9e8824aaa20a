package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"style-classifier-be/pkg/store"
)

// Teardown is invoked exactly once per removed session, on every removal
// path: explicit remove, replacement by a newer session, and TTL expiry.
// Implementations must be idempotent-safe (they receive each session once,
// but the resources they release may already be gone).
type Teardown func(session *store.ClassificationSession)

// SessionRepository holds at most one pending classification session per
// user. It owns its own synchronization; callers never lock around it, and
// Get hands out snapshots so no caller ever shares mutable state with the
// store.
type SessionRepository struct {
	mu       sync.Mutex
	cache    *cache.Cache
	teardown Teardown
}

func NewSessionRepository(ttl, cleanupInterval time.Duration, teardown Teardown) *SessionRepository {
	c := cache.New(ttl, cleanupInterval)
	r := &SessionRepository{cache: c, teardown: teardown}
	// The eviction hook is the single owner of resource release. Delete on
	// an expired entry fires it too, so lazy expiry and the janitor share
	// one code path.
	c.OnEvicted(func(_ string, v interface{}) {
		if s, ok := v.(*store.ClassificationSession); ok && r.teardown != nil {
			r.teardown(s)
		}
	})
	return r
}

// Put stores the session for its user, superseding (and tearing down) any
// prior session for that user.
func (r *SessionRepository) Put(session *store.ClassificationSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := session.UserID.String()
	// Set would overwrite silently without firing the eviction hook, so the
	// old session is deleted first to release its staged resources.
	r.cache.Delete(key)
	r.cache.Set(key, session, cache.DefaultExpiration)
}

// Get returns a snapshot of the pending session for the user, or false when
// there is none or it has expired. The first access after expiry also
// triggers teardown of the lingering entry.
func (r *SessionRepository) Get(userID uuid.UUID) (*store.ClassificationSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := userID.String()
	if x, found := r.cache.Get(key); found {
		snapshot := *x.(*store.ClassificationSession)
		return &snapshot, true
	}
	// Expired entries are invisible to Get but may still hold resources
	// until the janitor runs; reclaim them now. Delete on a missing key is
	// a no-op, so teardown cannot fire twice.
	r.cache.Delete(key)
	return nil, false
}

// MarkReselecting flips the user's pending session into the reselection
// state. Returns false when there is no live session to flip. The write
// happens under the store's lock, never on a pointer shared with callers.
func (r *SessionRepository) MarkReselecting(userID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if x, found := r.cache.Get(userID.String()); found {
		x.(*store.ClassificationSession).State = store.StateReselecting
		return true
	}
	return false
}

// Remove drops the user's session, if any, and tears it down. Idempotent.
func (r *SessionRepository) Remove(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Delete(userID.String())
}

// Len reports the number of stored sessions, expired entries included.
func (r *SessionRepository) Len() int {
	return r.cache.ItemCount()
}
