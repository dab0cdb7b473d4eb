package session

import (
	"context"
	"maps"
	"sync"

	"github.com/mmeshcher/bank-client/internal/model"
)

// MemoryStore хранит сессию в памяти процесса.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore создаёт пустое хранилище в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (s *MemoryStore) Set(ctx context.Context, token string, user model.User) error {
	values, err := encode(token, user)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = values
	return nil
}

func (s *MemoryStore) Get(ctx context.Context) (*model.Session, bool) {
	s.mu.RLock()
	values := maps.Clone(s.values)
	s.mu.RUnlock()

	sess, ok, err := decode(values)
	if err != nil {
		return nil, false
	}
	return sess, ok
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = map[string]string{}
	return nil
}

