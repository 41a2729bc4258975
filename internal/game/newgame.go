package game

import (
	"fmt"

	"github.com/jwebster45206/narrative-engine/pkg/actor"
	"github.com/jwebster45206/narrative-engine/pkg/state"
	"github.com/jwebster45206/narrative-engine/pkg/world"
)

// Start describes where a new game begins.
type Start struct {
	Position world.Point
	Biome    string
	Weather  string
}

// NewState creates the state of a fresh game for the given character. The
// character's starting items go into the game inventory.
func NewState(spec *actor.PCSpec, start Start) (*state.GameState, error) {
	pc, err := actor.NewPCFromSpec(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to build PC: %w", err)
	}

	gs := state.NewGameState(spec.ID)
	gs.PC = pc
	gs.MoveTo(start.Position, start.Biome, start.Weather)
	for id, qty := range spec.Inventory {
		gs.AddItem(id, qty)
	}
	return gs, nil
}
