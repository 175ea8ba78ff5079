package actionlog

import (
	"context"

	"github.com/google/uuid"

	"reserveguard/internal/storage"
)

// Log is the append-only sequence of entries. Order is append order.
type Log struct {
	entries []Entry
	// loaded is the number of entries read from storage; everything after it
	// was appended during the current operation.
	loaded int
	newID  func() string
}

func NewLog() *Log {
	return &Log{newID: uuid.NewString}
}

// FromEntries builds a log from previously persisted entries.
func FromEntries(entries []Entry) *Log {
	l := NewLog()
	l.entries = append(l.entries, entries...)
	l.loaded = len(entries)
	return l
}

// Append adds entries in order, assigning ids to any that lack one, and
// returns them as stored.
func (l *Log) Append(entries ...Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			e.ID = l.newID()
		}
		l.entries = append(l.entries, e)
		out = append(out, e)
	}
	return out
}

// Entries returns a copy of every entry.
func (l *Log) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// ForParticipant returns the entries of one participant, in order.
func (l *Log) ForParticipant(participantID string) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if e.ParticipantID == participantID {
			out = append(out, e)
		}
	}
	return out
}

// Pending returns the entries appended since the log was loaded.
func (l *Log) Pending() []Entry {
	return append([]Entry(nil), l.entries[l.loaded:]...)
}

func (l *Log) Len() int {
	return len(l.entries)
}

// Load reads the action-log document. A missing document is an empty log.
func Load(ctx context.Context, store storage.DocumentStore) (*Log, error) {
	var entries []Entry
	if _, err := storage.LoadJSON(ctx, store, storage.KeyActionLogs, &entries); err != nil {
		return nil, err
	}
	return FromEntries(entries), nil
}

// Document encodes the whole log for a batch save.
func (l *Log) Document() (storage.Document, error) {
	entries := l.entries
	if entries == nil {
		entries = []Entry{}
	}
	return storage.JSONDocument(storage.KeyActionLogs, entries)
}
