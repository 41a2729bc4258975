package state

import (
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/pkg/actor"
	"github.com/jwebster45206/narrative-engine/pkg/world"
)

// Screens the player can be on.
const (
	ScreenExplore  = "explore"
	ScreenDialogue = "dialogue"
)

// JournalLimit caps the entries kept on the game state; older entries are
// dropped first.
const JournalLimit = 200

// JournalEntry is one player-facing notification.
type JournalEntry struct {
	Text string          `json:"text"`
	Kind world.EntryType `json:"kind"`
	At   time.Time       `json:"at"`
}

// GameState is the current state of a game session. It is the in-process
// implementation of the inventory, quest ledger, world and journal
// collaborators. It is not safe for concurrent use.
type GameState struct {
	ID        uuid.UUID `json:"id"` // Unique ID per session
	PCID      string    `json:"pc_id,omitempty"`
	PC        *actor.PC `json:"pc,omitempty"` // Character sheet, owned by the game
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Position world.Point `json:"position"`
	Biome    string      `json:"biome,omitempty"`
	Weather  string      `json:"weather,omitempty"`
	Screen   string      `json:"screen"`

	Flags     map[string]bool `json:"flags,omitempty"`
	Items     map[string]int  `json:"inventory,omitempty"`
	Quests    map[string]int  `json:"active_quests,omitempty"` // quest id -> current stage
	Completed []string        `json:"completed_quests,omitempty"`
	Failed    []string        `json:"failed_quests,omitempty"`
	POIs      []world.POI     `json:"pois,omitempty"`
	Journal   []JournalEntry  `json:"journal,omitempty"`
}

func NewGameState(pcID string) *GameState {
	now := time.Now().UTC()
	return &GameState{
		ID:        uuid.New(),
		PCID:      pcID,
		CreatedAt: now,
		UpdatedAt: now,
		Screen:    ScreenExplore,
		Flags:     make(map[string]bool),
		Items:     make(map[string]int),
		Quests:    make(map[string]int),
		Journal:   make([]JournalEntry, 0),
	}
}

func (gs *GameState) touch() {
	gs.UpdatedAt = time.Now().UTC()
}

// Normalize fills maps that are nil after decoding a sparse document.
func (gs *GameState) Normalize() {
	if gs.Flags == nil {
		gs.Flags = make(map[string]bool)
	}
	if gs.Items == nil {
		gs.Items = make(map[string]int)
	}
	if gs.Quests == nil {
		gs.Quests = make(map[string]int)
	}
	if gs.Screen == "" {
		gs.Screen = ScreenExplore
	}
}
