package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"reserveguard/internal/storage"
	"reserveguard/pkg/platform/sentinel"
	txctx "reserveguard/pkg/platform/tx"
)

// Schema creates the documents table. Bodies are stored as raw bytes so the
// store stays format-agnostic.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	key        TEXT PRIMARY KEY,
	body       BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Store persists state documents in PostgreSQL.
// This store is pure I/O; all compliance rules live in the services.
type Store struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed document store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the documents table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate documents: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE key = $1`, key).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %s: %w", key, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("load document %s: %w", key, err)
	}
	return body, nil
}

// Save upserts every document inside one transaction. A transaction already
// carried by ctx is joined and left for its owner to commit.
func (s *Store) Save(ctx context.Context, docs ...storage.Document) error {
	return txctx.Run(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return upsertAll(ctx, tx, docs)
	})
}

func upsertAll(ctx context.Context, tx *sql.Tx, docs []storage.Document) error {
	const query = `
		INSERT INTO documents (key, body, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			body = EXCLUDED.body,
			updated_at = EXCLUDED.updated_at
	`
	for _, doc := range docs {
		if _, err := tx.ExecContext(ctx, query, doc.Key, doc.Body); err != nil {
			return fmt.Errorf("save document %s: %w", doc.Key, err)
		}
	}
	return nil
}
