package session

import (
	"context"
	"sync"
)

// Registration holds the partially collected fields of an in-progress
// registration dialogue. It lives outside the database and is discarded
// when the dialogue completes or is cancelled.
type Registration struct {
	State    string `json:"state"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Store keeps per-chat registration sessions. Implemented in memory and on
// Redis; the bot picks one at startup.
type Store interface {
	Get(ctx context.Context, chatID int64) (*Registration, error)
	Set(ctx context.Context, chatID int64, r *Registration) error
	Delete(ctx context.Context, chatID int64) error
}

// MemoryStore is the default single-process store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Registration
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]Registration)}
}

func (s *MemoryStore) Get(_ context.Context, chatID int64) (*Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.sessions[chatID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *MemoryStore) Set(_ context.Context, chatID int64, r *Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[chatID] = *r
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
	return nil
}
