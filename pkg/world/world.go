// Package world declares the collaborator subsystems the narrative engine
// mutates. Each subsystem owns its own state; the engine only ever goes
// through these interfaces and never keeps private copies.
package world

import "fmt"

// Point is a grid coordinate on the tile map.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Adjacent reports whether q is one of the four orthogonal neighbours of p.
func (p Point) Adjacent(q Point) bool {
	dx, dy := p.X-q.X, p.Y-q.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx+dy == 1
}

// POI is a point of interest revealed on the player's map.
type POI struct {
	Position Point  `json:"position"`
	Name     string `json:"name"`
}

// EntryType classifies journal entries.
type EntryType string

const (
	EntryInfo       EntryType = "info"
	EntryError      EntryType = "error"
	EntryQuest      EntryType = "quest"
	EntrySkillCheck EntryType = "skill_check"
	EntryEvent      EntryType = "event"
	EntryDiscovery  EntryType = "discovery"
)

// Inventory is the player's item store.
type Inventory interface {
	AddItem(itemID string, qty int)
	// RemoveItem removes qty of itemID. It returns false, and changes nothing,
	// when fewer than qty are held.
	RemoveItem(itemID string, qty int) bool
	HasItem(itemID string, qty int) bool
	Count(itemID string) int
}

// QuestLedger tracks active and completed quests.
type QuestLedger interface {
	StartQuest(questID string)
	AdvanceQuest(questID string)
	CompleteQuest(questID string)
	FailQuest(questID string)
	// ActiveQuests maps quest id to its current stage number.
	ActiveQuests() map[string]int
	CompletedQuests() []string
}

// Character is the player's character sheet.
type Character interface {
	ChangeAlignment(axis string, amount int)
	Alignment(axis string) int
	AddXP(amount int)
	LearnRecipe(recipeID string)
	UpgradeEquippedArmor(slot string, bonus int, statusResistance string)
	Attributes() map[string]int
}

// World exposes map position, one-shot flags and screen navigation.
type World interface {
	PlayerPosition() Point
	CurrentBiome() string
	SetFlag(name string)
	HasFlag(name string) bool
	RevealPOI(poi POI)
	CurrentScreen() string
	SetScreen(name string)
}

// Journal receives player-facing notifications.
type Journal interface {
	AddJournalEntry(text string, kind EntryType)
}

// Audio plays sound cues. Fire and forget.
type Audio interface {
	PlaySound(name string)
}

// Collaborators bundles every subsystem the engine talks to. It is built
// once per game and passed by reference to the controller, the executor and
// the random event scheduler.
type Collaborators struct {
	Inventory Inventory
	Quests    QuestLedger
	Character Character
	World     World
	Journal   Journal
	Audio     Audio
}

// Validate reports the first missing collaborator.
func (c *Collaborators) Validate() error {
	switch {
	case c == nil:
		return fmt.Errorf("collaborators cannot be nil")
	case c.Inventory == nil:
		return fmt.Errorf("inventory collaborator is required")
	case c.Quests == nil:
		return fmt.Errorf("quest ledger collaborator is required")
	case c.Character == nil:
		return fmt.Errorf("character collaborator is required")
	case c.World == nil:
		return fmt.Errorf("world collaborator is required")
	case c.Journal == nil:
		return fmt.Errorf("journal collaborator is required")
	case c.Audio == nil:
		return fmt.Errorf("audio collaborator is required")
	}
	return nil
}

// Silent is an Audio that discards every cue.
type Silent struct{}

func (Silent) PlaySound(string) {}

// Journals fans a journal entry out to several journals in order.
type Journals []Journal

func (js Journals) AddJournalEntry(text string, kind EntryType) {
	for _, j := range js {
		if j != nil {
			j.AddJournalEntry(text, kind)
		}
	}
}

// Sounds fans a sound cue out to several audio sinks in order.
type Sounds []Audio

func (as Sounds) PlaySound(name string) {
	for _, a := range as {
		if a != nil {
			a.PlaySound(name)
		}
	}
}
