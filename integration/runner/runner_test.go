package runner

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/internal/game"
	"github.com/jwebster45206/narrative-engine/internal/handlers"
	"github.com/jwebster45206/narrative-engine/internal/storage"
	"github.com/jwebster45206/narrative-engine/pkg/narrative"
	"github.com/jwebster45206/narrative-engine/pkg/state"
	"github.com/jwebster45206/narrative-engine/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// newAPI serves the shipped data through the real handlers.
func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	store := storage.NewMemoryStorage(storage.NewFiles("../../data", discard))
	assets, err := game.LoadAssets(context.Background(), store)
	require.NoError(t, err)

	manager, err := game.NewManager(game.ManagerConfig{
		Store:        store,
		Assets:       assets,
		Start:        game.Start{Biome: "PLAINS", Weather: "CLEAR"},
		DefaultPC:    "drifter",
		TickInterval: 10 * time.Millisecond,
		Seed:         7,
		Logger:       discard,
	})
	require.NoError(t, err)

	mux := http.NewServeMux()
	handlers.NewGameHandler(manager, nil, discard).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		manager.Close()
	})
	return srv
}

func TestRunSuite_ShippedCases(t *testing.T) {
	srv := newAPI(t)

	jobs, err := LoadTestSuiteWithExpansion(filepath.Join("..", "cases", "all.yaml"), filepath.Join("..", "cases"))
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	r := NewRunner(srv.URL + "/")
	r.Logger = t.Logf
	for _, job := range jobs {
		t.Run(job.Name, func(t *testing.T) {
			result, err := r.RunSuite(context.Background(), job.Suite)
			require.NoError(t, err)
			assert.Len(t, result.Results, len(job.Suite.Steps))
			for _, step := range result.Results {
				assert.True(t, step.Success, "%s: %v", step.StepName, step.Error)
			}
		})
	}
}

func TestRunSuite_ExitModeStopsAtFirstFailure(t *testing.T) {
	srv := newAPI(t)
	wrong := "nobody"
	suite := TestSuite{
		Name: "broken",
		Steps: []TestStep{
			{Name: "talk", Action: ActionTalk, NPC: "ranger", Expectations: Expectations{Dialogue: &wrong}},
			{Name: "end", Action: ActionEnd},
		},
	}

	r := NewRunner(srv.URL)
	r.ErrorHandlingMode = ErrorHandlingExit
	result, err := r.RunSuite(context.Background(), suite)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `expected dialogue "nobody", got "ranger"`)
	assert.Len(t, result.Results, 1)
	assert.NotEqual(t, uuid.Nil, result.GameID)
}

func TestRunSuite_WaitTimesOut(t *testing.T) {
	srv := newAPI(t)
	xp := 1000
	suite := TestSuite{
		Name:  "wait",
		Steps: []TestStep{{Name: "never", Action: ActionWait, Within: 150 * time.Millisecond, Expectations: Expectations{XP: &xp}}},
	}

	result, err := NewRunner(srv.URL).RunSuite(context.Background(), suite)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout waiting for game state")
	assert.False(t, result.Results[0].Success)
}

func TestRequest_Validation(t *testing.T) {
	r := NewRunner("http://example.test")

	_, _, _, err := r.request(uuid.Nil, TestStep{Name: "m", Action: ActionMove})
	assert.ErrorContains(t, err, "has no target")
	_, _, _, err = r.request(uuid.Nil, TestStep{Action: "dance"})
	assert.ErrorContains(t, err, `unknown action "dance"`)

	method, target, _, err := r.request(uuid.Nil, TestStep{Action: ActionTalk, NPC: "well keeper"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "http://example.test/v1/games/00000000-0000-0000-0000-000000000000/npcs/well%20keeper/talk", target)
}

func TestCheckExpectations(t *testing.T) {
	snap := &game.Snapshot{
		Session: narrative.SessionState{ActiveDialogueID: "mara", CurrentNodeID: "start", Phase: narrative.PhaseActive},
		NPCText: "You have the look of someone who finds things.",
		Options: []string{"I found this music box.", "Goodbye."},
		Player: game.Player{
			Screen:    state.ScreenDialogue,
			Position:  world.Point{X: -1},
			XP:        5,
			Inventory: map[string]int{"rope": 2},
			Quests:    map[string]int{"signal_fire": 1},
			Completed: []string{"the_water_debt"},
		},
		Journal: []state.JournalEntry{{Text: "Quest completed: The Water Debt"}},
	}
	ptr := func(s string) *string { return &s }
	num := func(n int) *int { return &n }

	tests := []struct {
		name    string
		exp     Expectations
		status  int
		wantErr string
	}{
		{"everything matches", Expectations{
			Dialogue:        ptr("mara"),
			Node:            ptr("start"),
			Phase:           ptr("active"),
			NPCTextContains: "finds things",
			Options:         []string{"I found this music box.", "Goodbye."},
			Screen:          ptr("dialogue"),
			Position:        &world.Point{X: -1},
			XP:              num(5),
			Inventory:       map[string]int{"rope": 2, "echo_music_box": 0},
			Quests:          map[string]int{"signal_fire": 1},
			Completed:       []string{"the_water_debt"},
			JournalContains: []string{"Water Debt"},
		}, 200, ""},
		{"status mismatch", Expectations{}, 409, "expected status 200, got 409"},
		{"expected rejection", Expectations{Status: num(409)}, 409, ""},
		{"wrong node", Expectations{Node: ptr("kind")}, 200, `expected node "kind"`},
		{"wrong phase", Expectations{Phase: ptr("idle")}, 200, "expected phase idle"},
		{"option count", Expectations{OptionCount: num(3)}, 200, "expected 3 options"},
		{"missing item", Expectations{Inventory: map[string]int{"rope": 1}}, 200, "expected 1 of rope, got 2"},
		{"inactive quest", Expectations{Quests: map[string]int{"the_water_debt": 1}}, 200, "to be active"},
		{"quest stage", Expectations{Quests: map[string]int{"signal_fire": 2}}, 200, "at stage 2, got 1"},
		{"not completed", Expectations{Completed: []string{"signal_fire"}}, 200, "to be completed"},
		{"journal", Expectations{JournalContains: []string{"Map updated"}}, 200, "journal entry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckExpectations(tt.exp, tt.status, snap)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	assert.NoError(t, CheckExpectations(Expectations{Status: num(404)}, 404, nil))
	assert.ErrorContains(t, CheckExpectations(Expectations{Status: num(404), XP: num(1)}, 404, nil), "no game state")
}

func TestLoadTestSuite_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadTestSuite(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read test file")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("steps: [\n"), 0o644))
	_, err = LoadTestSuite(bad)
	assert.ErrorContains(t, err, "failed to parse YAML")

	seq := filepath.Join(dir, "seq.yaml")
	require.NoError(t, os.WriteFile(seq, []byte("name: seq\ncases: [gone.yaml]\n"), 0o644))
	_, err = LoadTestSuiteWithExpansion(seq, dir)
	assert.ErrorContains(t, err, "referenced by sequence 'seq'")
}
