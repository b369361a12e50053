package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

var (
	_ ports.ChallengeStore = (*MemoryStore)(nil)
	_ ports.ChallengeStore = (*RedisStore)(nil)
)

// MemoryStore is an in-memory implementation of the ChallengeStore interface
type MemoryStore struct {
	challenges map[string]core.Challenge
	clock      ports.Clock
	mu         sync.Mutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(clock ports.Clock) *MemoryStore {
	return &MemoryStore{
		challenges: make(map[string]core.Challenge),
		clock:      clock,
	}
}

// Put stores a challenge, replacing the previous one for the address
func (s *MemoryStore) Put(ctx context.Context, challenge *core.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.challenges[challenge.Address] = *challenge
	return nil
}

// Get returns a copy of the stored challenge
func (s *MemoryStore) Get(ctx context.Context, address string) (*core.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.challenges[address]
	if !ok {
		return nil, core.ErrChallengeNotFound
	}
	return &challenge, nil
}

// Delete removes the challenge for an address
func (s *MemoryStore) Delete(ctx context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.challenges, address)
	return nil
}

// Consume deletes the challenge if it still has the given ID
func (s *MemoryStore) Consume(ctx context.Context, address, challengeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.challenges[address]
	if !ok || challenge.ID != challengeID {
		return false, nil
	}

	delete(s.challenges, address)
	return true, nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored challenges
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.challenges)
}

// Sweep removes every expired challenge and returns how many were removed
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	removed := 0
	for address, challenge := range s.challenges {
		if challenge.Expired(now) {
			delete(s.challenges, address)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps expired challenges every interval until ctx is done.
// Expiry is always checked at use time, so this only bounds memory.
func (s *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
