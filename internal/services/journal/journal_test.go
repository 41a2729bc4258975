package journal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/pkg/world"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestJournal(t *testing.T) (*Journal, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	j := New(client, uuid.New(), discard)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return at }
	return j, mr
}

func TestJournal_AppendAndRecent(t *testing.T) {
	j, mr := newTestJournal(t)
	ctx := context.Background()

	j.AddJournalEntry("Quest started: Signal Fire", world.EntryQuest)
	j.AddJournalEntry("Received apartment_key", world.EntryInfo)
	j.AddJournalEntry("strength check: 17 vs DC 10 - success", world.EntrySkillCheck)

	list, err := mr.List(Key(j.gameID))
	require.NoError(t, err)
	assert.Len(t, list, 3)

	all, err := j.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Quest started: Signal Fire", all[0].Text)
	assert.Equal(t, world.EntryQuest, all[0].Kind)
	assert.NotEqual(t, uuid.Nil, all[0].ID)
	assert.NotEqual(t, all[0].ID, all[1].ID)

	last, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "Received apartment_key", last[0].Text)
	assert.Equal(t, world.EntrySkillCheck, last[1].Kind)
}

func TestJournal_TrimsToMaxEntries(t *testing.T) {
	j, _ := newTestJournal(t)
	ctx := context.Background()

	for i := range MaxEntries + 10 {
		require.NoError(t, j.Append(ctx, fmt.Sprintf("entry %d", i), world.EntryInfo))
	}

	all, err := j.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, MaxEntries)
	assert.Equal(t, "entry 10", all[0].Text)
}

func TestJournal_SkipsMalformed(t *testing.T) {
	j, mr := newTestJournal(t)
	_, err := mr.Push(Key(j.gameID), "not json")
	require.NoError(t, err)
	j.AddJournalEntry("ok", world.EntryInfo)

	all, err := j.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "ok", all[0].Text)
}

func TestJournal_Clear(t *testing.T) {
	j, mr := newTestJournal(t)
	j.AddJournalEntry("gone soon", world.EntryInfo)
	require.NoError(t, j.Clear(context.Background()))
	assert.False(t, mr.Exists(Key(j.gameID)))
}

func TestJournal_WriteFailureIsLogged(t *testing.T) {
	j, mr := newTestJournal(t)
	mr.SetError("READONLY")

	assert.NotPanics(t, func() { j.AddJournalEntry("lost", world.EntryInfo) })
	mr.SetError("")
	all, err := j.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}
