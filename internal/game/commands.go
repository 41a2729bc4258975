package game

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/pkg/encounter"
	"github.com/jwebster45206/narrative-engine/pkg/narrative"
	"github.com/jwebster45206/narrative-engine/pkg/quest"
	"github.com/jwebster45206/narrative-engine/pkg/state"
	"github.com/jwebster45206/narrative-engine/pkg/world"
)

// Snapshot is what a client needs to render the game.
type Snapshot struct {
	GameID     uuid.UUID              `json:"game_id"`
	Session    narrative.SessionState `json:"session"`
	NPCName    string                 `json:"npc_name,omitempty"`
	NPCText    string                 `json:"npc_text,omitempty"`
	Options    []string               `json:"options,omitempty"` // visible options, in selection order
	Player     Player                 `json:"player"`
	Nearby     []NPCView              `json:"nearby_npcs,omitempty"`
	Journal    []state.JournalEntry   `json:"journal,omitempty"`
	Encounters encounter.Stats        `json:"encounters"`
}

// Player is the player's side of a snapshot.
type Player struct {
	Name      string         `json:"name"`
	Position  world.Point    `json:"position"`
	Biome     string         `json:"biome,omitempty"`
	Weather   string         `json:"weather,omitempty"`
	Screen    string         `json:"screen"`
	HP        int            `json:"hp"`
	MaxHP     int            `json:"max_hp"`
	AC        int            `json:"ac"`
	XP        int            `json:"xp"`
	Level     int            `json:"level"`
	Inventory map[string]int `json:"inventory,omitempty"`
	Quests    map[string]int `json:"active_quests,omitempty"`
	Completed []string       `json:"completed_quests,omitempty"`
}

type NPCView struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Position world.Point `json:"position"`
}

// Move is a request to step onto a neighbouring tile.
type Move struct {
	To      world.Point `json:"to"`
	Biome   string      `json:"biome,omitempty"`
	Weather string      `json:"weather,omitempty"`
}

func (l *Loop) snapshot() Snapshot {
	gs := l.state
	pc := gs.PC

	snap := Snapshot{
		GameID:     gs.ID,
		Session:    l.ctl.State(),
		Journal:    gs.RecentJournal(SnapshotJournal),
		Encounters: l.enc.Stats(),
		Player: Player{
			Name:      pc.Spec.Name,
			Position:  gs.PlayerPosition(),
			Biome:     gs.CurrentBiome(),
			Weather:   gs.CurrentWeather(),
			Screen:    gs.CurrentScreen(),
			HP:        pc.Actor.HP(),
			MaxHP:     pc.Actor.MaxHP(),
			AC:        pc.Actor.AC(),
			XP:        pc.XP(),
			Level:     pc.Level(),
			Inventory: maps.Clone(gs.Items),
			Quests:    gs.ActiveQuests(),
			Completed: gs.CompletedQuests(),
		},
	}
	if tree, ok := l.ctl.CurrentTree(); ok {
		snap.NPCName = tree.NPCName
	}
	if node, ok := l.ctl.CurrentNode(); ok {
		snap.NPCText = node.NPCText
		for _, opt := range l.ctl.VisibleOptions() {
			snap.Options = append(snap.Options, opt.Text)
		}
	}
	for _, npc := range l.npcs.Nearby(gs.PlayerPosition()) {
		snap.Nearby = append(snap.Nearby, NPCView{ID: npc.ID, Name: npc.Name, Position: npc.Position})
	}
	return snap
}

// Snapshot returns the current game view.
func (l *Loop) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := l.do(ctx, func() { snap = l.snapshot() })
	return snap, err
}

// StartDialogue opens a dialogue tree. returnState may be empty.
func (l *Loop) StartDialogue(ctx context.Context, id, returnState string) (Snapshot, error) {
	var (
		snap Snapshot
		cerr error
	)
	err := l.do(ctx, func() {
		var opts []narrative.StartOption
		if returnState != "" {
			opts = append(opts, narrative.WithReturnState(returnState))
		}
		if !l.ctl.StartDialogue(id, opts...) {
			cerr = fmt.Errorf("%w: %s", ErrUnknownDialogue, id)
		}
		l.save()
		snap = l.snapshot()
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, cerr
}

// SelectOption chooses a visible option by its position.
func (l *Loop) SelectOption(ctx context.Context, index int) (Snapshot, error) {
	var (
		snap Snapshot
		cerr error
	)
	err := l.do(ctx, func() {
		if !l.ctl.SelectOption(index) {
			cerr = fmt.Errorf("%w: index %d in phase %s", ErrOptionRejected, index, l.ctl.Phase())
		} else {
			l.save()
		}
		snap = l.snapshot()
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, cerr
}

// EndDialogue closes the running session. It is a no-op while idle.
func (l *Loop) EndDialogue(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := l.do(ctx, func() {
		if l.ctl.Active() {
			l.ctl.EndDialogue()
			l.save()
		}
		snap = l.snapshot()
	})
	return snap, err
}

// Move steps the player onto an orthogonally adjacent tile, then runs
// location triggers and the random event roll for the new tile.
func (l *Loop) Move(ctx context.Context, m Move) (Snapshot, error) {
	var (
		snap Snapshot
		cerr error
	)
	err := l.do(ctx, func() {
		defer func() { snap = l.snapshot() }()

		if l.ctl.Active() {
			cerr = ErrDialogueActive
			return
		}
		from := l.state.PlayerPosition()
		if !from.Adjacent(m.To) {
			cerr = fmt.Errorf("%w: %s to %s", ErrNotAdjacent, from, m.To)
			return
		}

		l.state.MoveTo(m.To, m.Biome, m.Weather)
		biome, weather := l.state.CurrentBiome(), l.state.CurrentWeather()
		l.log.Debug("Player moved", "from", from.String(), "to", m.To.String(), "biome", biome, "weather", weather)
		if l.moves != nil {
			l.moves.PlayerMoved(m.To, biome, weather)
		}

		for _, id := range l.tracker.Check(quest.TriggerReachLocation, quest.Context{PlayerPosition: m.To}) {
			l.state.AddJournalEntry("Quest updated: "+l.tracker.Title(id), world.EntryQuest)
		}
		l.enc.OnPlayerTick(biome, encounter.WeatherModifier(weather))
		l.save()
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, cerr
}

// Talk opens the dialogue of an NPC on or next to the player's tile.
func (l *Loop) Talk(ctx context.Context, npcID string) (Snapshot, error) {
	var (
		snap Snapshot
		cerr error
	)
	err := l.do(ctx, func() {
		defer func() { snap = l.snapshot() }()

		npc, ok := l.npcs.Get(npcID)
		if !ok {
			cerr = fmt.Errorf("%w: %s", ErrUnknownNPC, npcID)
			return
		}
		if l.ctl.Active() {
			cerr = ErrDialogueActive
			return
		}
		if !npc.CanTalk(l.state.PlayerPosition()) {
			cerr = fmt.Errorf("%w: %s is at %s", ErrNotAdjacent, npc.Name, npc.Position)
			return
		}
		if !l.ctl.StartDialogue(npc.DialogueID) {
			cerr = fmt.Errorf("%w: %s", ErrUnknownDialogue, npc.DialogueID)
			return
		}
		l.save()
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, cerr
}

// Advance moves the timer clock forward by d and returns how many timers
// ran. The ticker does the same with wall-clock time.
func (l *Loop) Advance(ctx context.Context, d time.Duration) (int, error) {
	var ran int
	err := l.do(ctx, func() {
		ran = l.tasks.Advance(d)
		if ran > 0 {
			l.save()
		}
	})
	return ran, err
}

// Journal returns up to n recent journal entries held by the game state.
func (l *Loop) Journal(ctx context.Context, n int) ([]state.JournalEntry, error) {
	var entries []state.JournalEntry
	err := l.do(ctx, func() { entries = l.state.RecentJournal(n) })
	return entries, err
}
