package state

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNilSession      = errors.New("session is nil")
)

// Store is the persistence contract used by the flow engine. Implementations
// do not serialize access per user; the flow engine holds a per-user lock
// around each load/transition/save cycle.
type Store interface {
	Load(ctx context.Context, userID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID string) error
}

// MemoryStore keeps sessions in a process-local map. State is volatile; a
// restart drops every conversation back to the start.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (m *MemoryStore) Load(_ context.Context, userID string) (*Session, error) {
	if userID == "" {
		return nil, ErrEmptySessionID
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := s
	if s.PendingOffer != nil {
		offer := *s.PendingOffer
		copied.PendingOffer = &offer
	}
	return &copied, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	if s == nil {
		return ErrNilSession
	}
	if s.UserID == "" {
		return ErrEmptySessionID
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}
	if err := s.Validate(); err != nil {
		return err
	}
	copied := *s
	if s.PendingOffer != nil {
		offer := *s.PendingOffer
		copied.PendingOffer = &offer
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.UserID] = copied
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	if userID == "" {
		return ErrEmptySessionID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}
