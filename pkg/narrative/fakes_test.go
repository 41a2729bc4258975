package narrative

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/jwebster45206/narrative-engine/pkg/dialogue"
	"github.com/jwebster45206/narrative-engine/pkg/quest"
	"github.com/jwebster45206/narrative-engine/pkg/scheduler"
	"github.com/jwebster45206/narrative-engine/pkg/skillcheck"
	"github.com/jwebster45206/narrative-engine/pkg/world"
)

// fakeGame implements every collaborator and records each mutating call.
type fakeGame struct {
	items     map[string]int
	active    map[string]int
	completed []string
	align     map[string]int
	attrs     map[string]int
	xp        int
	recipes   []string
	armor     map[string]int
	flags     map[string]bool
	pois      []world.POI
	pos       world.Point
	screen    string
	journal   []string
	kinds     []world.EntryType
	sounds    []string
	mutations []string
}

func newFakeGame() *fakeGame {
	return &fakeGame{
		items:  map[string]int{},
		active: map[string]int{},
		align:  map[string]int{},
		attrs:  map[string]int{"strength": 14, "dexterity": 10, "intelligence": 12, "charisma": 8},
		armor:  map[string]int{},
		flags:  map[string]bool{},
		screen: "explore",
	}
}

func (f *fakeGame) record(format string, args ...any) {
	f.mutations = append(f.mutations, fmt.Sprintf(format, args...))
}

func (f *fakeGame) AddItem(id string, qty int) {
	f.record("addItem %s %d", id, qty)
	f.items[id] += qty
}

func (f *fakeGame) RemoveItem(id string, qty int) bool {
	f.record("removeItem %s %d", id, qty)
	if qty <= 0 || f.items[id] < qty {
		return false
	}
	f.items[id] -= qty
	if f.items[id] == 0 {
		delete(f.items, id)
	}
	return true
}

func (f *fakeGame) HasItem(id string, qty int) bool { return f.items[id] >= qty }
func (f *fakeGame) Count(id string) int             { return f.items[id] }

func (f *fakeGame) StartQuest(id string) {
	f.record("startQuest %s", id)
	if _, ok := f.active[id]; !ok && !slices.Contains(f.completed, id) {
		f.active[id] = 1
	}
}

func (f *fakeGame) AdvanceQuest(id string) {
	f.record("advanceQuest %s", id)
	if _, ok := f.active[id]; ok {
		f.active[id]++
	}
}

func (f *fakeGame) CompleteQuest(id string) {
	f.record("completeQuest %s", id)
	delete(f.active, id)
	f.completed = append(f.completed, id)
}

func (f *fakeGame) FailQuest(id string) {
	f.record("failQuest %s", id)
	delete(f.active, id)
}

func (f *fakeGame) ActiveQuests() map[string]int { return maps.Clone(f.active) }
func (f *fakeGame) CompletedQuests() []string    { return slices.Clone(f.completed) }

func (f *fakeGame) ChangeAlignment(axis string, amount int) {
	f.record("changeAlignment %s %d", axis, amount)
	f.align[axis] += amount
}

func (f *fakeGame) Alignment(axis string) int { return f.align[axis] }

func (f *fakeGame) AddXP(amount int) {
	f.record("addXp %d", amount)
	f.xp += amount
}

func (f *fakeGame) LearnRecipe(id string) {
	f.record("learnRecipe %s", id)
	f.recipes = append(f.recipes, id)
}

func (f *fakeGame) UpgradeEquippedArmor(slot string, bonus int, resistance string) {
	f.record("upgradeArmor %s %d %s", slot, bonus, resistance)
	f.armor[slot] += bonus
}

func (f *fakeGame) Attributes() map[string]int { return maps.Clone(f.attrs) }

func (f *fakeGame) PlayerPosition() world.Point { return f.pos }
func (f *fakeGame) CurrentBiome() string        { return "PLAINS" }

func (f *fakeGame) SetFlag(name string) {
	f.record("setFlag %s", name)
	f.flags[name] = true
}

func (f *fakeGame) HasFlag(name string) bool { return f.flags[name] }

func (f *fakeGame) RevealPOI(poi world.POI) {
	f.record("revealPOI %s", poi.Name)
	f.pois = append(f.pois, poi)
}

func (f *fakeGame) CurrentScreen() string { return f.screen }
func (f *fakeGame) SetScreen(name string) { f.screen = name }

func (f *fakeGame) AddJournalEntry(text string, kind world.EntryType) {
	f.journal = append(f.journal, text)
	f.kinds = append(f.kinds, kind)
}

func (f *fakeGame) PlaySound(name string) { f.sounds = append(f.sounds, name) }

func (f *fakeGame) collaborators() *world.Collaborators {
	return &world.Collaborators{
		Inventory: f,
		Quests:    f,
		Character: f,
		World:     f,
		Journal:   f,
		Audio:     f,
	}
}

func (f *fakeGame) journalOfKind(kind world.EntryType) []string {
	var out []string
	for i, k := range f.kinds {
		if k == kind {
			out = append(out, f.journal[i])
		}
	}
	return out
}

// recordingObserver keeps every session notification in order.
type recordingObserver struct {
	events []string
}

func (o *recordingObserver) DialogueStarted(treeID, nodeID string) {
	o.events = append(o.events, "started "+treeID+" "+nodeID)
}

func (o *recordingObserver) NodeChanged(treeID, nodeID string) {
	o.events = append(o.events, "node "+treeID+" "+nodeID)
}

func (o *recordingObserver) SkillCheckResolved(treeID string, r skillcheck.Result) {
	o.events = append(o.events, fmt.Sprintf("check %s %v", treeID, r.Success))
}

func (o *recordingObserver) DialogueEnded(treeID, returnState string) {
	o.events = append(o.events, "ended "+treeID+" "+returnState)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

const testTrees = `{
	"ranger": {
		"id": "ranger",
		"npcName": "Ranger Sol",
		"startNodeId": "start",
		"nodes": {
			"start": {
				"id": "start",
				"npcText": "Raiders at the bridge.",
				"options": [
					{"text": "Fight them.", "consequence": {"type": "skillCheck", "value": {"skill": "combat", "dc": 10, "successNode": "won", "failureNode": "lost"}}},
					{"text": "Tell me more.", "consequence": {"type": "jumpToNode", "value": "briefing"}},
					{"text": "For the debt.", "showCondition": {"questCompleted": "the_water_debt"}, "consequence": {"type": "addXp", "value": 10}},
					{"text": "Bye.", "consequence": {"type": "endDialogue"}},
					{"text": "???", "consequence": {"type": "teleport", "value": {"x": 1}}},
					{"text": "Broken.", "consequence": {"type": "jumpToNode", "value": "missing_node"}}
				]
			},
			"briefing": {
				"id": "briefing",
				"npcText": "Light the signal fire on the hill.",
				"options": [
					{"text": "I'll do it.", "consequence": {"type": "startQuest", "value": "signal_fire"}},
					{"text": "Back.", "consequence": {"type": "jumpToNode", "value": "start"}}
				]
			},
			"won": {"id": "won", "npcText": "Nice work.", "options": [{"text": "Bye.", "consequence": {"type": "endDialogue"}}]},
			"lost": {"id": "lost", "npcText": "Get patched up.", "options": [{"text": "Bye.", "consequence": {"type": "endDialogue"}}]}
		}
	},
	"mara": {
		"id": "mara",
		"npcName": "Mara",
		"startNodeId": "greeting",
		"nodes": {
			"greeting": {
				"id": "greeting",
				"npcText": "Got something for me?",
				"options": [
					{"text": "Your music box.", "consequence": {"type": "takeItem", "value": {"itemId": "echo_music_box", "qty": 1}}},
					{"text": "Spare key.", "consequence": {"type": "takeItem", "value": {"itemId": "apartment_key", "qty": 1}}}
				]
			},
			"echo_music_box_reward": {"id": "echo_music_box_reward", "npcText": "You found it.", "options": []}
		}
	}
}`

func loadTestTrees() dialogue.Collection {
	var trees dialogue.Collection
	if err := json.Unmarshal([]byte(testTrees), &trees); err != nil {
		panic(err)
	}
	return trees
}

var testQuests = quest.Collection{
	"signal_fire": {
		ID:    "signal_fire",
		Title: "The Signal Fire",
		Stages: []quest.Stage{
			{Stage: 1, Trigger: quest.Trigger{Type: quest.TriggerTalkToNPC, NodeID: "won"}},
		},
	},
	"greet": {
		ID:    "greet",
		Title: "Say Hello",
		Stages: []quest.Stage{
			{Stage: 1, Trigger: quest.Trigger{Type: quest.TriggerTalkToNPC, NodeID: "greeting"}},
		},
	},
}

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	game  *fakeGame
	ctl   *Controller
	sched *scheduler.Scheduler
	obs   *recordingObserver
}

func newHarness(roller skillcheck.Roller) *harness {
	game := newFakeGame()
	c := game.collaborators()
	sched := scheduler.New(epoch, discard)
	tracker := quest.NewTracker(testQuests, c.Quests, discard)
	exec := NewExecutor(c, skillcheck.NewResolver(roller), tracker, discard)
	ctl, err := NewController(loadTestTrees(), c, exec, sched, discard)
	if err != nil {
		panic(err)
	}
	obs := &recordingObserver{}
	ctl.SetObserver(obs)
	return &harness{game: game, ctl: ctl, sched: sched, obs: obs}
}
