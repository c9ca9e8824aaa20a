package memory

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTryEnterBlocksSecondRequest(t *testing.T) {
	gate := NewRequestGate()
	user := uuid.New()

	assert.True(t, gate.TryEnter(user))
	assert.False(t, gate.TryEnter(user))
	assert.True(t, gate.Holds(user))

	gate.Leave(user)
	assert.True(t, gate.TryEnter(user))
}

func TestLeaveIsIdempotent(t *testing.T) {
	gate := NewRequestGate()
	user := uuid.New()

	gate.Leave(user) // never entered
	assert.True(t, gate.TryEnter(user))
	gate.Leave(user)
	gate.Leave(user)
	assert.False(t, gate.Holds(user))
}

func TestUsersDoNotContend(t *testing.T) {
	gate := NewRequestGate()
	a, b := uuid.New(), uuid.New()

	assert.True(t, gate.TryEnter(a))
	assert.True(t, gate.TryEnter(b))
	gate.Leave(a)
	assert.False(t, gate.Holds(a))
	assert.True(t, gate.Holds(b))
}

func TestConcurrentTryEnterAdmitsExactlyOne(t *testing.T) {
	gate := NewRequestGate()
	user := uuid.New()

	const workers = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if gate.TryEnter(user) {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, admitted)
}
