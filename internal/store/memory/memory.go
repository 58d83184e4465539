package memory

import (
	"context"
	"sync"

	"github.com/undeadops/kvlinks/internal/store"
)

// Store keeps mappings in process memory. Keys are listed in insertion order.
type Store struct {
	mu   sync.RWMutex
	m    map[string]string
	keys []string
}

var (
	_ store.Store    = (*Store)(nil)
	_ store.Inserter = (*Store)(nil)
)

func New() *Store {
	return &Store{m: make(map[string]string)}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.m[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.m[key] = value
	return nil
}

func (s *Store) PutIfAbsent(ctx context.Context, key string, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[key]; ok {
		return false, nil
	}
	s.keys = append(s.keys, key)
	s.m[key] = value
	return true, nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, len(s.keys))
	copy(keys, s.keys)
	return keys, nil
}
