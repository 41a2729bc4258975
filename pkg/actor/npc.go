package actor

import (
	"sort"

	"github.com/jwebster45206/narrative-engine/pkg/world"
)

// NPC represents a non-player character standing on the map
type NPC struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	DialogueID  string      `json:"dialogueId"`            // dialogue tree opened when the player talks to them
	Position    world.Point `json:"position"`              // tile the NPC occupies
	Description string      `json:"description,omitempty"` // short description or backstory
}

// CanTalk reports whether a player standing at p is close enough to talk.
func (n *NPC) CanTalk(p world.Point) bool {
	return n.Position == p || n.Position.Adjacent(p)
}

// Roster is the set of NPCs keyed by id.
type Roster map[string]*NPC

// Get returns the NPC with the given id.
func (r Roster) Get(id string) (*NPC, bool) {
	npc, ok := r[id]
	return npc, ok
}

// Nearby returns the NPCs a player at p can talk to, sorted by id.
func (r Roster) Nearby(p world.Point) []*NPC {
	var near []*NPC
	for _, npc := range r {
		if npc.CanTalk(p) {
			near = append(near, npc)
		}
	}
	sort.Slice(near, func(i, j int) bool { return near[i].ID < near[j].ID })
	return near
}

// Normalize fills in missing ids from the roster keys.
func (r Roster) Normalize() {
	for id, npc := range r {
		if npc.ID == "" {
			npc.ID = id
		}
	}
}
