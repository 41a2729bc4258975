package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/pkg/actor"
	"github.com/jwebster45206/narrative-engine/pkg/dialogue"
	"github.com/jwebster45206/narrative-engine/pkg/encounter"
	"github.com/jwebster45206/narrative-engine/pkg/quest"
	"github.com/jwebster45206/narrative-engine/pkg/state"
)

// Storage defines a unified interface for all storage operations
// This interface combines gamestate persistence (Redis or memory) with static data loading (filesystem)
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// GameState operations
	SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error
	LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error)
	DeleteGameState(ctx context.Context, id uuid.UUID) error

	// Static data (filesystem-backed)
	LoadDialogues(ctx context.Context) (dialogue.Collection, error)
	LoadQuests(ctx context.Context) (quest.Collection, error)
	LoadEvents(ctx context.Context) (*encounter.Catalog, error)
	LoadNPCs(ctx context.Context) (actor.Roster, error)

	// PC operations, returns PCSpec not PC
	// Use actor.NewPCFromSpec to build the full PC from the returned spec
	GetPCSpec(ctx context.Context, pcID string) (*actor.PCSpec, error)
	ListPCs(ctx context.Context) ([]string, error)
}
