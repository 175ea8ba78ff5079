package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	dErrors "reserveguard/pkg/domain-errors"
	"reserveguard/pkg/platform/sentinel"
)

// Document keys for the state the compliance core persists wholesale.
const (
	KeyParticipants = "participants"
	KeyActionLogs   = "action_logs"
	KeyAppeals      = "appeals"
)

// Document is one named blob handed to the persistence collaborator.
type Document struct {
	Key  string
	Body []byte
}

// DocumentStore is the key-value load/save contract the core depends on. The
// on-disk or on-wire format is the backend's concern; callers see bytes.
//
// Load returns sentinel.ErrNotFound (optionally wrapped) for an absent key.
// Save writes every document or, where the backend allows it, none of them.
type DocumentStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, docs ...Document) error
}

// LoadJSON decodes the document under key into v. An absent document leaves v
// untouched and reports found=false; that is not an error.
func LoadJSON(ctx context.Context, store DocumentStore, key string, v any) (found bool, err error) {
	body, err := store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodePersistence, fmt.Sprintf("load %s", key))
	}
	if len(body) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return true, dErrors.Wrap(err, dErrors.CodePersistence, fmt.Sprintf("decode %s", key))
	}
	return true, nil
}

// JSONDocument encodes v as an indented JSON document under key.
func JSONDocument(key string, v any) (Document, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Document{}, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("encode %s", key))
	}
	return Document{Key: key, Body: body}, nil
}

// SaveAll writes docs and tags any failure as a persistence error. A failed
// save is fatal for the operation: memory and storage would otherwise diverge.
func SaveAll(ctx context.Context, store DocumentStore, docs ...Document) error {
	if err := store.Save(ctx, docs...); err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "save state")
	}
	return nil
}
