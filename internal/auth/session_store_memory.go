package auth

import (
	"context"
	"sync"
	"time"

	"github.com/openreel/gateway/internal/models"
)

// NewInMemorySessionStore returns a SessionStore backed by in-memory maps.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions: make(map[string]models.WalletSession),
		byToken:  make(map[string]string),
	}
}

// InMemorySessionStore implements SessionStore for tests and local
// development.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.WalletSession
	byToken  map[string]string
}

// Save persists the provided session record.
func (s *InMemorySessionStore) Save(_ context.Context, session models.WalletSession) error {
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.byToken[session.RefreshToken] = session.ID
	s.mu.Unlock()
	return nil
}

// Find retrieves a session by refresh token.
func (s *InMemorySessionStore) Find(_ context.Context, refreshToken string) (models.WalletSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byToken[refreshToken]
	if !ok {
		return models.WalletSession{}, ErrSessionNotFound
	}
	session, ok := s.sessions[id]
	if !ok {
		return models.WalletSession{}, ErrSessionNotFound
	}
	return session, nil
}

// FindByID retrieves a session by its identifier.
func (s *InMemorySessionStore) FindByID(_ context.Context, id string) (models.WalletSession, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return models.WalletSession{}, ErrSessionNotFound
	}
	return session, nil
}

// Delete removes the session associated with the refresh token.
func (s *InMemorySessionStore) Delete(_ context.Context, refreshToken string) error {
	s.mu.Lock()
	if id, ok := s.byToken[refreshToken]; ok {
		delete(s.sessions, id)
	}
	delete(s.byToken, refreshToken)
	s.mu.Unlock()
	return nil
}

// DeleteByID removes a session by its identifier.
func (s *InMemorySessionStore) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	if session, ok := s.sessions[id]; ok {
		delete(s.byToken, session.RefreshToken)
	}
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Has reports whether a refresh token exists. Useful for tests.
func (s *InMemorySessionStore) Has(refreshToken string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byToken[refreshToken]
	return ok
}

// NewInMemoryRevocationStore returns a RevocationStore backed by an
// in-memory map.
func NewInMemoryRevocationStore() *InMemoryRevocationStore {
	return &InMemoryRevocationStore{revoked: make(map[string]time.Time)}
}

// InMemoryRevocationStore implements RevocationStore without external
// state. Flags expire with their TTL exactly like the Redis-backed store.
type InMemoryRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

// Revoke flags the session for ttl.
func (s *InMemoryRevocationStore) Revoke(_ context.Context, sessionID string, ttl time.Duration) error {
	s.mu.Lock()
	s.revoked[sessionID] = time.Now().UTC().Add(ttl)
	s.mu.Unlock()
	return nil
}

// IsRevoked reports whether the session carries an unexpired flag.
func (s *InMemoryRevocationStore) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.revoked[sessionID]
	if !ok {
		return false, nil
	}
	if now.After(until) {
		delete(s.revoked, sessionID)
		return false, nil
	}
	return true, nil
}
