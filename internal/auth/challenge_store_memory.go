package auth

import (
	"context"
	"sync"
	"time"
)

// NewInMemoryChallengeStore returns a ChallengeStore backed by an
// in-memory map, for tests and single-process development.
func NewInMemoryChallengeStore() *InMemoryChallengeStore {
	return &InMemoryChallengeStore{challenges: make(map[string]Challenge)}
}

// InMemoryChallengeStore implements ChallengeStore without external state.
type InMemoryChallengeStore struct {
	mu         sync.Mutex
	challenges map[string]Challenge
}

// Put stores the challenge, dropping any expired entries on the way.
func (s *InMemoryChallengeStore) Put(_ context.Context, challenge Challenge) error {
	now := time.Now().UTC()

	s.mu.Lock()
	for nonce, existing := range s.challenges {
		if now.After(existing.ExpiresAt) {
			delete(s.challenges, nonce)
		}
	}
	s.challenges[challenge.Nonce] = challenge
	s.mu.Unlock()
	return nil
}

// Take removes and returns the challenge for nonce.
func (s *InMemoryChallengeStore) Take(_ context.Context, nonce string) (Challenge, error) {
	s.mu.Lock()
	challenge, ok := s.challenges[nonce]
	if ok {
		delete(s.challenges, nonce)
	}
	s.mu.Unlock()

	if !ok {
		return Challenge{}, ErrChallengeNotFound
	}
	return challenge, nil
}
