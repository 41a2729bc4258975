package narrative

import (
	"slices"

	"github.com/jwebster45206/narrative-engine/pkg/dialogue"
	"github.com/jwebster45206/narrative-engine/pkg/world"
)

// stateView reads option visibility state straight from the collaborators.
type stateView struct {
	c *world.Collaborators
}

var _ dialogue.StateView = stateView{}

func (v stateView) IsQuestActive(questID string) bool {
	_, ok := v.c.Quests.ActiveQuests()[questID]
	return ok
}

func (v stateView) IsQuestCompleted(questID string) bool {
	return slices.Contains(v.c.Quests.CompletedQuests(), questID)
}

func (v stateView) HasItem(itemID string, qty int) bool {
	return v.c.Inventory.HasItem(itemID, qty)
}

func (v stateView) Alignment(axis string) int {
	return v.c.Character.Alignment(axis)
}

// StateView adapts a collaborator set to the read-only view used by option
// visibility.
func StateView(c *world.Collaborators) dialogue.StateView {
	return stateView{c: c}
}
