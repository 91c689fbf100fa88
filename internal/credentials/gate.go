package credentials

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Gate is the server-side rendition of the interactive key picker: a
// prompt suspends the caller until a key is stored (the credentials
// endpoint calls Notify) or the caller's context ends.
type Gate struct {
	store  *Store
	logger zerolog.Logger

	mu      sync.Mutex
	waiters []chan struct{}
}

func NewGate(store *Store, logger zerolog.Logger) *Gate {
	return &Gate{store: store, logger: logger}
}

func (g *Gate) HasValidCredential(ctx context.Context) (bool, error) {
	key, err := g.store.GeminiAPIKey(ctx)
	if err != nil {
		return false, err
	}
	return key != "", nil
}

// PromptForCredential blocks until a key arrives. A key stored between the
// check and the wait resolves immediately.
func (g *Gate) PromptForCredential(ctx context.Context) error {
	waiter := make(chan struct{})
	g.mu.Lock()
	g.waiters = append(g.waiters, waiter)
	g.mu.Unlock()

	if ok, err := g.HasValidCredential(ctx); err != nil {
		return err
	} else if ok {
		return nil
	}

	g.logger.Warn().Msg("credentials: key selection required, waiting for a key")
	select {
	case <-waiter:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Notify releases every pending prompt. Called after a key is stored.
func (g *Gate) Notify() {
	g.mu.Lock()
	waiters := g.waiters
	g.waiters = nil
	g.mu.Unlock()

	for _, w := range waiters {
		close(w)
	}
}
