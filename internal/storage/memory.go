package storage

import (
	"context"
	"fmt"
	"sync"

	"reserveguard/pkg/platform/sentinel"
)

// InMemoryStore keeps documents in a map. It backs tests and single-process
// runs that do not need durability.
type InMemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
	// failSave makes every Save fail; tests use it to exercise fatal save paths.
	failSave error
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{docs: make(map[string][]byte)}
}

func (s *InMemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.docs[key]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", key, sentinel.ErrNotFound)
	}
	return append([]byte(nil), body...), nil
}

func (s *InMemoryStore) Save(_ context.Context, docs ...Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave != nil {
		return s.failSave
	}
	for _, doc := range docs {
		s.docs[doc.Key] = append([]byte(nil), doc.Body...)
	}
	return nil
}

// FailSaves makes subsequent saves return err; nil restores normal behaviour.
func (s *InMemoryStore) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSave = err
}

// Keys returns the stored document keys.
func (s *InMemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.docs))
	for k := range s.docs {
		keys = append(keys, k)
	}
	return keys
}
