package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RequestGate is the per-user admission gate: at most one classification
// request may be in flight per user. Membership check and insert happen
// under one lock, so two racing requests for the same user can never both
// pass.
type RequestGate struct {
	mu     sync.Mutex
	active map[uuid.UUID]time.Time
}

func NewRequestGate() *RequestGate {
	return &RequestGate{
		active: make(map[uuid.UUID]time.Time),
	}
}

// TryEnter marks the user active and returns true, unless the user is
// already active, in which case it returns false and the caller must not
// perform any work.
func (g *RequestGate) TryEnter(userID uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, held := g.active[userID]; held {
		return false
	}
	g.active[userID] = time.Now()
	return true
}

// Leave releases the gate. Releasing a user that is not active is a no-op.
func (g *RequestGate) Leave(userID uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, userID)
}

// Holds reports whether the user currently occupies the gate.
func (g *RequestGate) Holds(userID uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, held := g.active[userID]
	return held
}
