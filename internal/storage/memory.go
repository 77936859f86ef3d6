package storage

import "sync"

// MemoryStore is an in-memory Store, used in tests.
type MemoryStore struct {
	mu  sync.Mutex
	ids []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ids: []string{}}
}

func (s *MemoryStore) Load() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out, nil
}

func (s *MemoryStore) Save(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make([]string, len(ids))
	copy(s.ids, ids)
	return nil
}
