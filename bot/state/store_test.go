package state

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreRoundtrip(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
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

	// The store hands out copies; mutating a loaded session must not leak
	// back into the stored one.
	*got.PendingOffer = 7
	got.Step = StepStart
	again, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *again.PendingOffer != 120 || again.Step != StepAwaitingHandoff {
		t.Fatal("stored session was mutated through a loaded copy")
	}

	if err := store.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(ctx, "user-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Load() after delete error = %v, want ErrSessionNotFound", err)
	}
}

func TestMemoryStoreRejectsInvalidSession(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()

	if err := store.Save(context.Background(), nil); !errors.Is(err, ErrNilSession) {
		t.Fatalf("Save(nil) error = %v, want ErrNilSession", err)
	}

	sess := NewSession("user-1", time.Now())
	sess.Step = Step("limbo")
	if err := store.Save(context.Background(), sess); !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("Save() error = %v, want ErrInvalidStep", err)
	}
}
