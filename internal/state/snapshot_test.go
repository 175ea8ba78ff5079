package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reserveguard/internal/actionlog"
	"reserveguard/internal/participant"
	"reserveguard/internal/storage"
	dErrors "reserveguard/pkg/domain-errors"
)

func TestLoadEmptyStore(t *testing.T) {
	snap, err := Load(context.Background(), storage.NewInMemoryStore())
	require.NoError(t, err)
	assert.Zero(t, snap.Participants.Len())
	assert.Zero(t, snap.Log.Len())
	assert.Zero(t, snap.Appeals.Len())
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := storage.NewInMemoryStore()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	snap := Empty()
	snap.Participants.Upsert(participant.New("bankA"))
	snap.Log.Append(actionlog.NewEntry("bankA", actionlog.ActionVerified, now))
	snap.Appeals.Enqueue("bankA", "reason", now)

	require.NoError(t, snap.Save(ctx, store))
	assert.ElementsMatch(t, []string{storage.KeyParticipants, storage.KeyActionLogs, storage.KeyAppeals}, store.Keys())

	loaded, err := Load(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, snap.Participants.List(), loaded.Participants.List())
	assert.Equal(t, snap.Log.Entries(), loaded.Log.Entries())
	assert.Equal(t, snap.Appeals.List(), loaded.Appeals.List())
}

func TestLoadFailsOnCorruptDocument(t *testing.T) {
	ctx := context.Background()
	store := storage.NewInMemoryStore()
	require.NoError(t, store.Save(ctx, storage.Document{Key: storage.KeyAppeals, Body: []byte("nope")}))

	_, err := Load(ctx, store)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePersistence))
}

func TestSaveFailureIsPersistenceError(t *testing.T) {
	store := storage.NewInMemoryStore()
	store.FailSaves(errors.New("read-only file system"))

	err := Empty().Save(context.Background(), store)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePersistence))
	assert.Empty(t, store.Keys())
}
