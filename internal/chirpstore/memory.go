package chirpstore

import (
	"context"
	"sync"
)

// MemoryStore is the process-local cache backend.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[Key]Profile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[Key]Profile)}
}

// Init resets the store. A fresh MemoryStore is usable without it.
func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles = make(map[Key]Profile)
	return nil
}

func (s *MemoryStore) Has(_ context.Context, key Key) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.profiles[key]
	return ok, nil
}

func (s *MemoryStore) Get(_ context.Context, key Key) (Profile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[key]
	if !ok {
		return Profile{}, false, nil
	}
	return Profile{
		Period: append([]float64(nil), p.Period...),
		W1:     append([]float64(nil), p.W1...),
		W2:     append([]float64(nil), p.W2...),
	}, true, nil
}

func (s *MemoryStore) Save(_ context.Context, key Key, profile Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[key] = Profile{
		Period: append([]float64(nil), profile.Period...),
		W1:     append([]float64(nil), profile.W1...),
		W2:     append([]float64(nil), profile.W2...),
	}
	return nil
}
