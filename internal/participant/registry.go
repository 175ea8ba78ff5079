package participant

import (
	"context"
	"slices"
	"strings"

	"reserveguard/internal/storage"
	dErrors "reserveguard/pkg/domain-errors"
)

// Registry is the keyed collection of participant records. It is an explicit
// value owned by the caller for the duration of one operation; it is not safe
// for concurrent use.
type Registry struct {
	records map[string]Participant
}

func NewRegistry() *Registry {
	return &Registry{records: make(map[string]Participant)}
}

// GetOrCreate returns the record for id, inserting a fresh one when absent.
func (r *Registry) GetOrCreate(id string) Participant {
	if p, ok := r.records[id]; ok {
		return p
	}
	p := New(id)
	r.records[id] = p
	return p
}

// Get returns the record for id or a not-found error.
func (r *Registry) Get(id string) (Participant, error) {
	p, ok := r.records[id]
	if !ok {
		return Participant{}, dErrors.Newf(dErrors.CodeNotFound, "participant %q not found", id)
	}
	return p, nil
}

// Exists reports whether id has a record.
func (r *Registry) Exists(id string) bool {
	_, ok := r.records[id]
	return ok
}

// Upsert stores p, replacing any record with the same id.
func (r *Registry) Upsert(p Participant) {
	r.records[p.ID] = p
}

// Delete removes id. Deleting an unknown id is a not-found error.
func (r *Registry) Delete(id string) error {
	if _, ok := r.records[id]; !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "participant %q not found", id)
	}
	delete(r.records, id)
	return nil
}

// List returns every record sorted by id.
func (r *Registry) List() []Participant {
	out := make([]Participant, 0, len(r.records))
	for _, p := range r.records {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Participant) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (r *Registry) Len() int {
	return len(r.records)
}

// FromList builds a registry from a decoded document. Later duplicates win.
func FromList(list []Participant) *Registry {
	r := NewRegistry()
	for _, p := range list {
		r.Upsert(p)
	}
	return r
}

// Load reads the participants document. A missing document is an empty
// registry.
func Load(ctx context.Context, store storage.DocumentStore) (*Registry, error) {
	var list []Participant
	if _, err := storage.LoadJSON(ctx, store, storage.KeyParticipants, &list); err != nil {
		return nil, err
	}
	return FromList(list), nil
}

// Document encodes the registry for a batch save.
func (r *Registry) Document() (storage.Document, error) {
	return storage.JSONDocument(storage.KeyParticipants, r.List())
}

// Save writes the registry on its own.
func (r *Registry) Save(ctx context.Context, store storage.DocumentStore) error {
	doc, err := r.Document()
	if err != nil {
		return err
	}
	return storage.SaveAll(ctx, store, doc)
}
