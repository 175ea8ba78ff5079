package appeal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"reserveguard/internal/storage"
	dErrors "reserveguard/pkg/domain-errors"
)

// Queue holds appeals in insertion order. Appeals are never removed.
type Queue struct {
	appeals []Appeal
	newID   func() string
}

func NewQueue() *Queue {
	return &Queue{newID: uuid.NewString}
}

func FromList(appeals []Appeal) *Queue {
	q := NewQueue()
	q.appeals = append(q.appeals, appeals...)
	return q
}

// Enqueue appends an unreviewed appeal and returns it with its index.
func (q *Queue) Enqueue(participantID, reason string, now time.Time) Indexed {
	a := Appeal{
		ID:            q.newID(),
		ParticipantID: participantID,
		Reason:        reason,
		Timestamp:     now.Unix(),
	}
	q.appeals = append(q.appeals, a)
	return Indexed{Index: len(q.appeals) - 1, Appeal: a}
}

// Get returns the appeal at index.
func (q *Queue) Get(index int) (Appeal, error) {
	if index < 0 || index >= len(q.appeals) {
		return Appeal{}, dErrors.Newf(dErrors.CodeNotFound, "appeal index %d out of range (%d appeals)", index, len(q.appeals))
	}
	return q.appeals[index], nil
}

func (q *Queue) set(index int, a Appeal) {
	q.appeals[index] = a
}

// List returns every appeal with its index, in insertion order.
func (q *Queue) List() []Indexed {
	out := make([]Indexed, 0, len(q.appeals))
	for i, a := range q.appeals {
		out = append(out, Indexed{Index: i, Appeal: a})
	}
	return out
}

// Pending returns the unreviewed appeals with their indices.
func (q *Queue) Pending() []Indexed {
	var out []Indexed
	for i, a := range q.appeals {
		if a.IsPending() {
			out = append(out, Indexed{Index: i, Appeal: a})
		}
	}
	return out
}

func (q *Queue) Len() int {
	return len(q.appeals)
}

// Load reads the appeals document. A missing document is an empty queue.
func Load(ctx context.Context, store storage.DocumentStore) (*Queue, error) {
	var appeals []Appeal
	if _, err := storage.LoadJSON(ctx, store, storage.KeyAppeals, &appeals); err != nil {
		return nil, err
	}
	return FromList(appeals), nil
}

// Document encodes the queue for a batch save.
func (q *Queue) Document() (storage.Document, error) {
	appeals := q.appeals
	if appeals == nil {
		appeals = []Appeal{}
	}
	return storage.JSONDocument(storage.KeyAppeals, appeals)
}
