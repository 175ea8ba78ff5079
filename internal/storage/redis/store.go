package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"reserveguard/internal/storage"
	"reserveguard/pkg/platform/sentinel"
)

const defaultKeyPrefix = "reserveguard:doc:"

// Store persists state documents as Redis string values.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix namespaces document keys, e.g. per environment.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New constructs a Redis-backed document store.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	body, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("document %s: %w", key, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", key, err)
	}
	return body, nil
}

// Save writes all documents in one MULTI/EXEC block so readers never observe
// a mix of old and new documents.
func (s *Store) Save(ctx context.Context, docs ...storage.Document) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, doc := range docs {
			pipe.Set(ctx, s.key(doc.Key), doc.Body, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save documents: %w", err)
	}
	return nil
}
