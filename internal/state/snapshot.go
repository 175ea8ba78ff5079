package state

import (
	"context"

	"golang.org/x/sync/errgroup"

	"reserveguard/internal/actionlog"
	"reserveguard/internal/appeal"
	"reserveguard/internal/participant"
	"reserveguard/internal/storage"
)

// Snapshot is the whole compliance state for one operation: loaded wholesale
// at the start, mutated in memory, saved wholesale at the end.
type Snapshot struct {
	Participants *participant.Registry
	Log          *actionlog.Log
	Appeals      *appeal.Queue
}

// Empty returns a snapshot with no records.
func Empty() *Snapshot {
	return &Snapshot{
		Participants: participant.NewRegistry(),
		Log:          actionlog.NewLog(),
		Appeals:      appeal.NewQueue(),
	}
}

// Load fetches the three documents concurrently. Missing documents load empty.
func Load(ctx context.Context, store storage.DocumentStore) (*Snapshot, error) {
	snap := &Snapshot{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		registry, err := participant.Load(gctx, store)
		snap.Participants = registry
		return err
	})
	g.Go(func() error {
		log, err := actionlog.Load(gctx, store)
		snap.Log = log
		return err
	})
	g.Go(func() error {
		queue, err := appeal.Load(gctx, store)
		snap.Appeals = queue
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// Save writes all three documents in one batch.
func (s *Snapshot) Save(ctx context.Context, store storage.DocumentStore) error {
	participants, err := s.Participants.Document()
	if err != nil {
		return err
	}
	logs, err := s.Log.Document()
	if err != nil {
		return err
	}
	appeals, err := s.Appeals.Document()
	if err != nil {
		return err
	}
	return storage.SaveAll(ctx, store, participants, logs, appeals)
}
