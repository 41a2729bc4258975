package game

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/pkg/actor"
	"github.com/jwebster45206/narrative-engine/pkg/dialogue"
	"github.com/jwebster45206/narrative-engine/pkg/storage"
	"github.com/jwebster45206/narrative-engine/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *storage.MockStorage) {
	t.Helper()
	store := storage.NewMockStorage()
	store.AddPCSpec(&actor.PCSpec{ID: "drifter", Name: "Drifter", Inventory: map[string]int{"rope": 1}})

	var trees dialogue.Collection
	require.NoError(t, json.Unmarshal([]byte(testTrees), &trees))
	for _, tree := range trees {
		store.AddDialogue(tree)
	}

	assets, err := LoadAssets(context.Background(), store)
	require.NoError(t, err)

	m, err := NewManager(ManagerConfig{
		Store:        store,
		Assets:       assets,
		Start:        Start{Biome: "PLAINS", Weather: "CLEAR"},
		DefaultPC:    "drifter",
		TickInterval: time.Hour,
		Seed:         7,
		Logger:       discard,
	})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m, store
}

func TestManager_CreateAndGet(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	l, err := m.Create(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, m.Running())

	saved, err := store.LoadGameState(ctx, l.ID())
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "drifter", saved.PCID)

	same, err := m.Get(ctx, l.ID())
	require.NoError(t, err)
	assert.Same(t, l, same)

	snap, err := same.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Drifter", snap.Player.Name)
	assert.Equal(t, map[string]int{"rope": 1}, snap.Player.Inventory)
}

func TestManager_CreateUnknownPC(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Create(context.Background(), "nobody")
	assert.Error(t, err)
	assert.Zero(t, m.Running())
}

func TestManager_ResumesFromStorage(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	gs, err := NewState(&actor.PCSpec{ID: "drifter", Name: "Drifter"}, Start{Position: world.Point{X: 5, Y: 5}})
	require.NoError(t, err)
	require.NoError(t, store.SaveGameState(ctx, gs.ID, gs))

	l, err := m.Get(ctx, gs.ID)
	require.NoError(t, err)
	snap, err := l.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, world.Point{X: 5, Y: 5}, snap.Player.Position)
}

func TestManager_GetMissing(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestManager_Delete(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	l, err := m.Create(ctx, "drifter")
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, l.ID()))

	assert.Zero(t, m.Running())
	_, err = l.Snapshot(ctx)
	assert.ErrorIs(t, err, ErrLoopStopped)
	saved, err := store.LoadGameState(ctx, l.ID())
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestManager_AttachIsCalledPerGame(t *testing.T) {
	m, _ := newTestManager(t)
	var attached []uuid.UUID
	journal := &recordingJournal{}
	m.cfg.Attach = func(id uuid.UUID, cfg *Config) {
		attached = append(attached, id)
		cfg.Journals = append(cfg.Journals, journal)
	}

	l, err := m.Create(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{l.ID()}, attached)

	_, err = l.StartDialogue(context.Background(), "missing", "")
	assert.ErrorIs(t, err, ErrUnknownDialogue)
	assert.Equal(t, []string{"Dialogue not found: missing"}, journal.texts)
}
