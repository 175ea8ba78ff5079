// Package file persists state documents as JSON files in a directory:
// participants.json, action_logs.json and appeals.json.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"reserveguard/internal/storage"
	"reserveguard/pkg/platform/sentinel"
)

// Store writes each document to <dir>/<key>.json.
//
// Save stages every document in a temp file first and only renames once all
// writes succeeded, so a failed save never leaves a half-written file behind.
// Renames are atomic per file, not across files.
type Store struct {
	dir string
}

func New(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{dir: dir}
}

// Path returns the file backing key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	body, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("document %s: %w", key, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("read document %s: %w", key, err)
	}
	return body, nil
}

func (s *Store) Save(ctx context.Context, docs ...storage.Document) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	staged := make([]string, 0, len(docs))
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			cleanup()
			return err
		}
		tmp, err := s.stage(doc)
		if err != nil {
			cleanup()
			return err
		}
		staged = append(staged, tmp)
	}

	for i, doc := range docs {
		if err := os.Rename(staged[i], s.Path(doc.Key)); err != nil {
			cleanup()
			return fmt.Errorf("commit document %s: %w", doc.Key, err)
		}
	}
	return nil
}

func (s *Store) stage(doc storage.Document) (string, error) {
	f, err := os.CreateTemp(s.dir, "."+doc.Key+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("stage document %s: %w", doc.Key, err)
	}
	name := f.Name()
	if _, err := f.Write(doc.Body); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("write document %s: %w", doc.Key, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("sync document %s: %w", doc.Key, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("close document %s: %w", doc.Key, err)
	}
	return name, nil
}
