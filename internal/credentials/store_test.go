package credentials

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "tokens.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key, err := store.GeminiAPIKey(ctx)
	if err != nil {
		t.Fatalf("GeminiAPIKey: %v", err)
	}
	if key != "" {
		t.Fatalf("fresh store must have no key, got %q", key)
	}

	if err := store.SetGeminiAPIKey(ctx, "  AIza-test-key  "); err != nil {
		t.Fatalf("SetGeminiAPIKey: %v", err)
	}
	key, err = store.GeminiAPIKey(ctx)
	if err != nil {
		t.Fatalf("GeminiAPIKey: %v", err)
	}
	if key != "AIza-test-key" {
		t.Fatalf("key mismatch: %q", key)
	}

	if err := store.SetGeminiAPIKey(ctx, ""); err == nil {
		t.Fatal("empty key must be rejected")
	}
}

func TestGateReleasesWaitersOnNotify(t *testing.T) {
	store := newTestStore(t)
	gate := NewGate(store, zerolog.Nop())
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- gate.PromptForCredential(ctx) }()

	// Give the prompt a moment to register its waiter, then resolve it.
	time.Sleep(10 * time.Millisecond)
	if err := store.SetGeminiAPIKey(ctx, "AIza-new"); err != nil {
		t.Fatalf("SetGeminiAPIKey: %v", err)
	}
	gate.Notify()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("prompt returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("prompt did not resolve after notify")
	}
}

func TestGatePromptHonorsContext(t *testing.T) {
	store := newTestStore(t)
	gate := NewGate(store, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := gate.PromptForCredential(ctx); err == nil {
		t.Fatal("dismissed prompt must return the context error")
	}
}

func TestGateResolvesImmediatelyWhenKeyPresent(t *testing.T) {
	store := newTestStore(t)
	gate := NewGate(store, zerolog.Nop())
	ctx := context.Background()

	if err := store.SetGeminiAPIKey(ctx, "AIza-present"); err != nil {
		t.Fatalf("SetGeminiAPIKey: %v", err)
	}
	if err := gate.PromptForCredential(ctx); err != nil {
		t.Fatalf("prompt with present key must resolve immediately: %v", err)
	}
}
