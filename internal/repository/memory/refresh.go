package memory

import (
	"context"
	"sync"

	"github.com/lalith-99/galynx/internal/models"
)

type RefreshSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.RefreshSession
}

func NewRefreshSessionStore() *RefreshSessionStore {
	return &RefreshSessionStore{sessions: make(map[string]models.RefreshSession)}
}

func (s *RefreshSessionStore) Put(ctx context.Context, session models.RefreshSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.TokenHash] = session
	return nil
}

func (s *RefreshSessionStore) Get(ctx context.Context, tokenHash string) (*models.RefreshSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[tokenHash]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (s *RefreshSessionStore) Update(ctx context.Context, session models.RefreshSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.TokenHash] = session
	return nil
}
