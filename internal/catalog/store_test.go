package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"vton/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewStore(db, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestStoreSeedsOnFirstOpen(t *testing.T) {
	store := newTestStore(t)

	garments, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(garments) == 0 {
		t.Fatal("fresh store must be seeded")
	}
	for _, g := range garments {
		if g.ID == "" || g.Name == "" || g.Image == "" || g.Description == "" {
			t.Fatalf("incomplete seed record: %+v", g)
		}
	}
}

func TestStoreGetByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	all, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}

	got, err := store.GetByID(ctx, all[0].ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != all[0].Name || got.Category != all[0].Category {
		t.Fatalf("GetByID mismatch: got %+v want %+v", got, all[0])
	}

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestStoreClearAndReload(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	garments, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll after clear: %v", err)
	}
	if len(garments) != 0 {
		t.Fatalf("clear must empty the catalog, got %d rows", len(garments))
	}

	if err := store.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	garments, err = store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll after reload: %v", err)
	}
	if len(garments) == 0 {
		t.Fatal("reload must reseed the catalog")
	}
}
