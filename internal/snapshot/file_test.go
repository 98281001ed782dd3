package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stocksight/backend/internal/domain"
)

func TestFilePersisterRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	persister := NewFile(path)

	if _, err := persister.Load(ctx); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot before first save, got %v", err)
	}

	state := State{
		Products: []domain.Product{
			{ID: "prod-1", Name: "Coke", Category: "Beverages", Quantity: 10},
		},
		Activities: []domain.Activity{
			{ID: "act-1", Type: domain.ActivityTypeStock, Message: "added new product: Coke", CreatedAt: time.Now().UTC()},
		},
		Revision: 3,
	}
	if err := persister.Save(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := persister.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.SchemaVersion != SchemaVersion {
		t.Fatalf("expected schema version stamped on save, got %d", loaded.SchemaVersion)
	}
	if loaded.Revision != 3 {
		t.Fatalf("expected revision 3, got %d", loaded.Revision)
	}
	if len(loaded.Products) != 1 || loaded.Products[0].Name != "Coke" {
		t.Fatalf("unexpected products %v", loaded.Products)
	}
	if loaded.SavedAt.IsZero() {
		t.Fatalf("expected SavedAt stamped on save")
	}
}

func TestFilePersisterRejectsNewerSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(`{"schema_version": 99}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := NewFile(path).Load(ctx); err == nil {
		t.Fatalf("expected a newer schema version to be rejected")
	}
}

func TestFilePersisterDefaultsPath(t *testing.T) {
	persister := NewFile("")
	if persister.Path() != StorageKey+".json" {
		t.Fatalf("expected default path %q, got %q", StorageKey+".json", persister.Path())
	}
}

func TestNoopAlwaysEmpty(t *testing.T) {
	ctx := context.Background()
	if err := (Noop{}).Save(ctx, State{Revision: 9}); err != nil {
		t.Fatalf("noop save: %v", err)
	}
	if _, err := (Noop{}).Load(ctx); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot from noop, got %v", err)
	}
}
