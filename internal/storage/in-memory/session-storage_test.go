package in_memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strudelvibe/vibe-bot/internal/model"
)

func TestSessionStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := NewSessionStorage()

	sessions, err := storage.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	saved := []model.Session{
		{
			ID:   uuid.New(),
			Name: "Acid Lines",
			Messages: []model.Message{
				{Role: model.MessageRoleUser, Content: "an acid line"},
				{Role: model.MessageRoleAssistant, Content: `note("c2").s("sawtooth")`, Model: "Gemini Flash"},
			},
			CreatedAt: time.Now().UTC(),
		},
		{ID: uuid.New(), Name: model.DefaultSessionName, CreatedAt: time.Now().UTC()},
	}
	require.NoError(t, storage.SaveSessions(ctx, saved))

	loaded, err := storage.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)

	// the stored copy is detached from the caller's slice
	saved[0].Name = "mutated"
	loaded, err = storage.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Acid Lines", loaded[0].Name)
}

func TestSessionStorageActiveID(t *testing.T) {
	ctx := context.Background()
	storage := NewSessionStorage()

	_, err := storage.ActiveSessionID(ctx)
	require.ErrorIs(t, err, model.ErrNoActiveSession)

	id := uuid.New()
	require.NoError(t, storage.SetActiveSessionID(ctx, id))
	got, err := storage.ActiveSessionID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	require.NoError(t, storage.ClearActiveSessionID(ctx))
	_, err = storage.ActiveSessionID(ctx)
	require.ErrorIs(t, err, model.ErrNoActiveSession)
}
