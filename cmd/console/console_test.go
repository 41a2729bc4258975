package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/internal/game"
	"github.com/jwebster45206/narrative-engine/pkg/narrative"
	"github.com/jwebster45206/narrative-engine/pkg/skillcheck"
	"github.com/jwebster45206/narrative-engine/pkg/state"
	"github.com/jwebster45206/narrative-engine/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialogueSnapshot(id uuid.UUID, node, text string, options ...string) *game.Snapshot {
	return &game.Snapshot{
		GameID: id,
		Session: narrative.SessionState{
			ActiveDialogueID: "ranger",
			CurrentNodeID:    node,
			Phase:            narrative.PhaseActive,
		},
		NPCName: "Ranger",
		NPCText: text,
		Options: options,
		Player:  game.Player{Name: "Drifter", Screen: "dialogue"},
	}
}

func TestAPIClient_Requests(t *testing.T) {
	id := uuid.New()
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		got = append(got, r.Method+" "+r.URL.RequestURI())

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/v1/games/" + id.String() + "/move":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": "target is not adjacent to the player",
				"game":  game.Snapshot{GameID: id},
			})
		case "/v1/games/" + id.String() + "/journal":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"entries": []map[string]any{{"text": "Quest updated", "kind": "quest", "at": time.Now()}},
			})
		default:
			if r.URL.Path == "/v1/games/"+id.String()+"/dialogue/select" && body["index"] != float64(1) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(game.Snapshot{GameID: id})
		}
	}))
	defer srv.Close()

	api := NewAPIClient(srv.Client(), srv.URL)
	ctx := context.Background()

	assert.True(t, api.testConnection(ctx))

	snap, err := api.CreateGame(ctx, "drifter")
	require.NoError(t, err)
	assert.Equal(t, id, snap.GameID)

	_, err = api.SelectOption(ctx, id, 1)
	require.NoError(t, err)

	_, err = api.Talk(ctx, id, "ranger")
	require.NoError(t, err)

	_, err = api.Move(ctx, id, world.Point{X: 5, Y: 5})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "target is not adjacent to the player", apiErr.Message)
	require.NotNil(t, apiErr.Game)
	assert.Equal(t, id, apiErr.Game.GameID)

	entries, err := api.Journal(ctx, id, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, world.EntryQuest, entries[0].Kind)

	assert.Equal(t, []string{
		"GET /health",
		"POST /v1/games",
		"POST /v1/games/" + id.String() + "/dialogue/select",
		"POST /v1/games/" + id.String() + "/npcs/ranger/talk",
		"POST /v1/games/" + id.String() + "/move",
		"GET /v1/games/" + id.String() + "/journal?n=5",
	}, got)
}

func TestAbsorb_BuildsTranscript(t *testing.T) {
	id := uuid.New()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	explore := &game.Snapshot{
		GameID:  id,
		Journal: []state.JournalEntry{{Text: "old news", At: start}},
	}
	m := NewConsoleUI(nil, explore)
	assert.Empty(t, m.transcript, "entries present at start are not replayed")

	m.absorb(dialogueSnapshot(id, "start", "Evening.", "Arm wrestle", "Bye"), "")
	m.absorb(dialogueSnapshot(id, "start", "Evening.", "Arm wrestle", "Bye"), "")

	rolling := dialogueSnapshot(id, "start", "Evening.")
	rolling.Session.SkillCheck = &skillcheck.Result{Skill: "strength", Success: true, Roll: 15, Total: 17, DC: 10}
	m.absorb(rolling, "Arm wrestle")

	won := dialogueSnapshot(id, "won", "You win.", "Thanks")
	won.Session.SkillCheck = rolling.Session.SkillCheck
	m.absorb(won, "")

	ended := &game.Snapshot{
		GameID:  id,
		Journal: []state.JournalEntry{{Text: "old news", At: start}, {Text: "Quest updated: Signal Fire", At: start.Add(time.Minute)}},
	}
	m.absorb(ended, "Thanks")

	require.Len(t, m.transcript, 7)
	assert.Equal(t, "Ranger: Evening.", m.transcript[0])
	assert.Equal(t, "You: Arm wrestle", m.transcript[1])
	assert.True(t, strings.HasPrefix(m.transcript[2], "[Skill check] "))
	assert.Equal(t, "Ranger: You win.", m.transcript[3])
	assert.Equal(t, "You: Thanks", m.transcript[4])
	assert.Equal(t, "(The conversation ends.)", m.transcript[5])
	assert.Equal(t, "* Quest updated: Signal Fire", m.transcript[6])
}

func TestRenderOptions(t *testing.T) {
	id := uuid.New()
	assert.Empty(t, renderOptions(&game.Snapshot{GameID: id}, 40))

	out := renderOptions(dialogueSnapshot(id, "start", "Hi.", "Arm wrestle", "Bye"), 40)
	assert.Contains(t, out, "1. Arm wrestle")
	assert.Contains(t, out, "2. Bye")

	rolling := dialogueSnapshot(id, "start", "Hi.")
	rolling.Session.SkillCheck = &skillcheck.Result{Skill: "strength"}
	assert.Contains(t, renderOptions(rolling, 40), "Rolling...")
}

func TestHandleKey(t *testing.T) {
	id := uuid.New()

	m := NewConsoleUI(NewAPIClient(http.DefaultClient, "http://127.0.0.1:0"), dialogueSnapshot(id, "start", "Hi.", "Bye"))
	cmd, handled := m.handleKey("1")
	assert.True(t, handled)
	assert.NotNil(t, cmd)
	assert.True(t, m.busy)

	m = NewConsoleUI(nil, dialogueSnapshot(id, "start", "Hi.", "Bye"))
	cmd, handled = m.handleKey("2")
	assert.True(t, handled, "out of range option is swallowed")
	assert.Nil(t, cmd)

	cmd, handled = m.handleKey("up")
	assert.False(t, handled, "movement is off during dialogue")
	assert.Nil(t, cmd)

	m = NewConsoleUI(nil, &game.Snapshot{GameID: id})
	cmd, handled = m.handleKey("d")
	assert.True(t, handled)
	assert.NotNil(t, cmd)

	m = NewConsoleUI(nil, &game.Snapshot{GameID: id})
	cmd, handled = m.handleKey("t")
	assert.True(t, handled)
	assert.Nil(t, cmd, "nobody nearby")

	_, handled = m.handleKey("pgdown")
	assert.False(t, handled)
}

func TestWriteMetadata(t *testing.T) {
	snap := &game.Snapshot{
		GameID: uuid.New(),
		Player: game.Player{
			Name:      "Drifter",
			Level:     2,
			HP:        9,
			MaxHP:     12,
			AC:        12,
			XP:        350,
			Position:  world.Point{X: 1, Y: 2},
			Biome:     "RUINS",
			Inventory: map[string]int{"rope": 2, "echo_music_box": 1},
			Quests:    map[string]int{"signal_fire": 1},
		},
		Nearby: []game.NPCView{{ID: "ranger", Name: "Ranger"}},
	}

	out := writeMetadata(snap)
	assert.Contains(t, out, "HP 9/12")
	assert.Contains(t, out, "Biome: RUINS")
	assert.Contains(t, out, "• Ranger")
	assert.Contains(t, out, "• signal_fire (stage 1)")
	assert.Less(t, strings.Index(out, "echo_music_box"), strings.Index(out, "rope"))
}
