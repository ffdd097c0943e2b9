package state

import (
	"errors"
	"testing"
	"time"
)

func TestSessionValidate(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	sess := NewSession("user-1", now)
	if err := sess.Validate(); err != nil {
		t.Fatalf("fresh session Validate() error = %v", err)
	}

	sess.Step = Step("limbo")
	if err := sess.Validate(); !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("Validate() error = %v, want ErrInvalidStep", err)
	}

	sess = NewSession("user-1", now)
	offer := int64(120)
	sess.PendingOffer = &offer
	if err := sess.Validate(); !errors.Is(err, ErrStrayOffer) {
		t.Fatalf("Validate() error = %v, want ErrStrayOffer", err)
	}

	sess.Step = StepAwaitingHandoff
	if err := sess.Validate(); err != nil {
		t.Fatalf("Validate() at handoff error = %v", err)
	}

	sess.UserID = ""
	if err := sess.Validate(); !errors.Is(err, ErrEmptySessionID) {
		t.Fatalf("Validate() error = %v, want ErrEmptySessionID", err)
	}
}

func TestSessionSetOfferMovesToHandoff(t *testing.T) {
	t.Parallel()

	sess := NewSession("user-1", time.Now())
	sess.SetOffer(120, time.Now())

	if sess.Step != StepAwaitingHandoff {
		t.Fatalf("Step = %s, want %s", sess.Step, StepAwaitingHandoff)
	}
	if sess.PendingOffer == nil || *sess.PendingOffer != 120 {
		t.Fatalf("PendingOffer = %v, want 120", sess.PendingOffer)
	}
}

func TestSessionResetClearsOffer(t *testing.T) {
	t.Parallel()

	sess := NewSession("user-1", time.Now())
	sess.SetOffer(120, time.Now())
	sess.Reset(time.Now())

	if sess.Step != StepStart {
		t.Fatalf("Step = %s, want %s", sess.Step, StepStart)
	}
	if sess.PendingOffer != nil {
		t.Fatalf("PendingOffer = %v, want nil", sess.PendingOffer)
	}
}

func TestAdvanceToStartClearsOffer(t *testing.T) {
	t.Parallel()

	sess := NewSession("user-1", time.Now())
	sess.SetOffer(99, time.Now())
	sess.Advance(StepStart, time.Now())

	if sess.PendingOffer != nil {
		t.Fatalf("PendingOffer = %v, want nil after returning to start", sess.PendingOffer)
	}
}
