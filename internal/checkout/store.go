package checkout

import (
	"context"
	"sync"
)

// Store correlates an order reference with the continuation token the
// provider issued for it. Take is single-use: a consumed entry is removed.
type Store interface {
	Put(ctx context.Context, orderRef, token string) error
	Take(ctx context.Context, orderRef string) (token string, ok bool, err error)
}

// MemoryStore keeps entries in process memory for the lifetime of the server.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (s *MemoryStore) Put(_ context.Context, orderRef, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[string]string)
	}
	s.entries[orderRef] = token
	return nil
}

func (s *MemoryStore) Take(_ context.Context, orderRef string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.entries[orderRef]
	if ok {
		delete(s.entries, orderRef)
	}
	return token, ok, nil
}

// Len reports the number of pending entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
