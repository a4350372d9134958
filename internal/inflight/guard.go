// Package inflight makes sure a client never has two mutations pending on the
// same record. It is a client-side courtesy: conflicting edits coming from
// other clients are still settled by the ledger service.
package inflight

import (
	"context"
	"sync"

	customError "github.com/segyhp/session-payment-engine/pkg/errors"
)

// Guard hands out one slot per key. Acquire fails with ErrMutationInFlight
// while the slot is held; release must be called once the mutation is done.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// MemoryGuard is a Guard for a single process.
type MemoryGuard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{busy: make(map[string]struct{})}
}

func (g *MemoryGuard) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.busy[key]; held {
		return nil, customError.WrapMutationInFlight(key)
	}
	g.busy[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.busy, key)
			g.mu.Unlock()
		})
	}, nil
}

// SessionKey and TransactionKey build guard keys.
func SessionKey(id string) string     { return "session:" + id }
func TransactionKey(id string) string { return "transaction:" + id }
