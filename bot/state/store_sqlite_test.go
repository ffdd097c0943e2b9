package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(SQLiteConfig{Path: filepath.Join(t.TempDir(), "leadbot.db")})
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return store
}

func TestSQLiteStoreRoundtrip(t *testing.T) {
	t.Parallel()

	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if _, err := store.Load(ctx, "user-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Load() error = %v, want ErrSessionNotFound", err)
	}

	sess := NewSession("user-1", time.Now())
	sess.SetOffer(120, time.Now())
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Step != StepAwaitingHandoff {
		t.Fatalf("Step = %s, want %s", got.Step, StepAwaitingHandoff)
	}
	if got.PendingOffer == nil || *got.PendingOffer != 120 {
		t.Fatalf("PendingOffer = %v, want 120", got.PendingOffer)
	}
}

func TestSQLiteStoreUpsertAndDelete(t *testing.T) {
	t.Parallel()

	store := newTestSQLiteStore(t)
	ctx := context.Background()

	sess := NewSession("user-1", time.Now())
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	sess.Advance(StepAwaitingCredential, time.Now())
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save() update error = %v", err)
	}

	got, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Step != StepAwaitingCredential {
		t.Fatalf("Step = %s, want %s", got.Step, StepAwaitingCredential)
	}
	if got.PendingOffer != nil {
		t.Fatalf("PendingOffer = %v, want nil", got.PendingOffer)
	}

	if err := store.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(ctx, "user-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Load() after delete error = %v, want ErrSessionNotFound", err)
	}
}
