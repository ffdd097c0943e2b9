package state

import (
	"errors"
	"fmt"
	"time"
)

// Step is the position of a user in the qualification conversation. The flow
// is linear with a single branch at the handoff confirmation.
type Step string

const (
	StepStart              Step = "start"
	StepAwaitingInterest   Step = "awaiting_interest"
	StepAwaitingCredential Step = "awaiting_credential"
	StepAwaitingHandoff    Step = "awaiting_handoff"
)

// Valid reports whether s is one of the declared steps.
func (s Step) Valid() bool {
	switch s {
	case StepStart, StepAwaitingInterest, StepAwaitingCredential, StepAwaitingHandoff:
		return true
	}
	return false
}

var (
	ErrInvalidStep    = errors.New("invalid conversation step")
	ErrStrayOffer     = errors.New("pending offer set before handoff stage")
	ErrEmptySessionID = errors.New("session user id is empty")
)

// Session is the per-user conversation state. It is created lazily on the
// first inbound message and mutated only by the flow engine.
type Session struct {
	UserID string `json:"user_id"`
	Step   Step   `json:"step"`

	// PendingOffer is set once a quote has been delivered and the user is
	// being asked to accept it; it is cleared whenever the session returns
	// to StepStart.
	PendingOffer *int64 `json:"pending_offer,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession returns a fresh session at StepStart.
func NewSession(userID string, now time.Time) *Session {
	return &Session{
		UserID:    userID,
		Step:      StepStart,
		UpdatedAt: now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// Advance moves the session to the given step, clearing the pending offer
// whenever the session returns to StepStart.
func (s *Session) Advance(step Step, now time.Time) {
	s.Step = step
	if step == StepStart {
		s.PendingOffer = nil
	}
	s.Touch(now)
}

// SetOffer stores the quoted offer and moves to the handoff confirmation.
func (s *Session) SetOffer(offer int64, now time.Time) {
	s.PendingOffer = &offer
	s.Step = StepAwaitingHandoff
	s.Touch(now)
}

// Reset returns the session to its initial state.
func (s *Session) Reset(now time.Time) {
	s.Step = StepStart
	s.PendingOffer = nil
	s.Touch(now)
}

// Validate checks the session invariants: a known step, a non-empty user id,
// and a pending offer only at the handoff stage.
func (s *Session) Validate() error {
	if s.UserID == "" {
		return ErrEmptySessionID
	}
	if !s.Step.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStep, s.Step)
	}
	if s.PendingOffer != nil {
		if s.Step != StepAwaitingHandoff {
			return fmt.Errorf("%w: step=%s", ErrStrayOffer, s.Step)
		}
		if *s.PendingOffer < 0 {
			return fmt.Errorf("pending offer must be non-negative, got %d", *s.PendingOffer)
		}
	}
	return nil
}
