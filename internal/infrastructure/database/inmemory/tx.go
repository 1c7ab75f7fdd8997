package inmemory

import (
	"context"
	"sync"
)

// Snapshotter is implemented by in-memory repositories that can take part in a
// transaction. Snapshot copies the current state and returns a func restoring it.
type Snapshotter interface {
	Snapshot() (restore func())
}

type txKey struct{}

// Transactor gives in-memory repositories all-or-nothing units of work.
// Transactions are serialized by a single mutex; on failure every participant
// is restored to the state it had when the transaction began. Writes made to a
// participant outside WithinTx while a transaction is open are lost on rollback.
type Transactor struct {
	mu           sync.Mutex
	participants []Snapshotter
}

func NewTransactor(participants ...Snapshotter) *Transactor {
	return &Transactor{participants: participants}
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	restores := make([]func(), 0, len(t.participants))
	for _, p := range t.participants {
		restores = append(restores, p.Snapshot())
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, struct{}{})); err != nil {
		return err
	}
	committed = true
	return nil
}
