package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/pkg/actor"
	"github.com/jwebster45206/narrative-engine/pkg/dialogue"
	"github.com/jwebster45206/narrative-engine/pkg/encounter"
	"github.com/jwebster45206/narrative-engine/pkg/quest"
	"github.com/jwebster45206/narrative-engine/pkg/state"
)

// MockStorage is an in-memory implementation of Storage for testing
type MockStorage struct {
	mu         sync.RWMutex
	gamestates map[uuid.UUID]*state.GameState
	dialogues  dialogue.Collection
	quests     quest.Collection
	events     *encounter.Catalog
	npcs       actor.Roster
	pcSpecs    map[string]*actor.PCSpec
	pingError  error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		gamestates: make(map[uuid.UUID]*state.GameState),
		dialogues:  make(dialogue.Collection),
		quests:     make(quest.Collection),
		events:     &encounter.Catalog{},
		npcs:       make(actor.Roster),
		pcSpecs:    make(map[string]*actor.PCSpec),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// AddDialogue registers a dialogue tree
func (m *MockStorage) AddDialogue(t *dialogue.Tree) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialogues[t.ID] = t
}

// AddQuest registers a quest definition
func (m *MockStorage) AddQuest(q *quest.Quest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quests[q.ID] = q
}

// SetEvents replaces the event catalog
func (m *MockStorage) SetEvents(c *encounter.Catalog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = c
}

// AddNPC registers an NPC
func (m *MockStorage) AddNPC(n *actor.NPC) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.npcs[n.ID] = n
}

// AddPCSpec registers a PC spec
func (m *MockStorage) AddPCSpec(spec *actor.PCSpec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pcSpecs[spec.ID] = spec
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveGameState mocks saving a gamestate
func (m *MockStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	if gs == nil {
		return errors.New("gamestate cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gamestates[id] = gs
	return nil
}

// LoadGameState mocks loading a gamestate
func (m *MockStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	gs, exists := m.gamestates[id]
	if !exists {
		return nil, nil // Return nil for not found
	}
	return gs, nil
}

// DeleteGameState mocks deleting a gamestate
func (m *MockStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.gamestates, id)
	return nil
}

func (m *MockStorage) LoadDialogues(ctx context.Context) (dialogue.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(dialogue.Collection, len(m.dialogues))
	for id, t := range m.dialogues {
		out[id] = t
	}
	return out, nil
}

func (m *MockStorage) LoadQuests(ctx context.Context) (quest.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(quest.Collection, len(m.quests))
	for id, q := range m.quests {
		out[id] = q
	}
	return out, nil
}

func (m *MockStorage) LoadEvents(ctx context.Context) (*encounter.Catalog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.events, nil
}

func (m *MockStorage) LoadNPCs(ctx context.Context) (actor.Roster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(actor.Roster, len(m.npcs))
	for id, n := range m.npcs {
		out[id] = n
	}
	return out, nil
}

// GetPCSpec mocks loading a PC spec
func (m *MockStorage) GetPCSpec(ctx context.Context, pcID string) (*actor.PCSpec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	spec, ok := m.pcSpecs[pcID]
	if !ok {
		return nil, fmt.Errorf("PC not found: %s", pcID)
	}
	return spec, nil
}

// ListPCs mocks listing PC ids
func (m *MockStorage) ListPCs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.pcSpecs))
	for id := range m.pcSpecs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
