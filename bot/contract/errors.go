package contract

import "errors"

var (
	ErrInvalidUser    = errors.New("user id is empty")
	ErrEmptyRoster    = errors.New("agent roster is empty")
	ErrNoPendingOffer = errors.New("session has no pending offer")
)
