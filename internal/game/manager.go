package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/d20"
	"github.com/jwebster45206/narrative-engine/pkg/actor"
	"github.com/jwebster45206/narrative-engine/pkg/dialogue"
	"github.com/jwebster45206/narrative-engine/pkg/encounter"
	"github.com/jwebster45206/narrative-engine/pkg/quest"
	"github.com/jwebster45206/narrative-engine/pkg/skillcheck"
	"github.com/jwebster45206/narrative-engine/pkg/state"
	"github.com/jwebster45206/narrative-engine/pkg/storage"
)

var ErrGameNotFound = errors.New("game not found")

// Assets is the static data shared by every game.
type Assets struct {
	Dialogues dialogue.Collection
	Quests    quest.Collection
	Events    *encounter.Catalog
	NPCs      actor.Roster
}

// LoadAssets reads every static data set from store.
func LoadAssets(ctx context.Context, store storage.Storage) (Assets, error) {
	var (
		a   Assets
		err error
	)
	if a.Dialogues, err = store.LoadDialogues(ctx); err != nil {
		return Assets{}, err
	}
	if a.Quests, err = store.LoadQuests(ctx); err != nil {
		return Assets{}, err
	}
	if a.Events, err = store.LoadEvents(ctx); err != nil {
		return Assets{}, err
	}
	if a.NPCs, err = store.LoadNPCs(ctx); err != nil {
		return Assets{}, err
	}
	return a, nil
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Store        storage.Storage
	Assets       Assets
	Start        Start
	DefaultPC    string
	TickInterval time.Duration
	Logger       *slog.Logger

	// Seed makes dice and event rolls reproducible when non-zero.
	Seed uint64

	// Attach adds per-game sinks (journal, broadcaster, lock) to a config
	// before the loop is built.
	Attach func(gameID uuid.UUID, cfg *Config)
}

type running struct {
	loop   *Loop
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager creates, resumes and stops game loops.
type Manager struct {
	cfg   ManagerConfig
	log   *slog.Logger
	mu    sync.Mutex
	games map[uuid.UUID]*running
}

func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Store == nil {
		return nil, errors.New("storage is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{cfg: cfg, log: logger, games: make(map[uuid.UUID]*running)}, nil
}

// Create starts a new game for pcID, or for the default PC when pcID is
// empty.
func (m *Manager) Create(ctx context.Context, pcID string) (*Loop, error) {
	if pcID == "" {
		pcID = m.cfg.DefaultPC
	}
	spec, err := m.cfg.Store.GetPCSpec(ctx, pcID)
	if err != nil {
		return nil, err
	}
	gs, err := NewState(spec, m.cfg.Start)
	if err != nil {
		return nil, err
	}
	if err := m.cfg.Store.SaveGameState(ctx, gs.ID, gs); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.launch(ctx, gs)
}

// Get returns the running loop for id, resuming it from storage if needed.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*Loop, error) {
	m.mu.Lock()
	if r, ok := m.games[id]; ok {
		m.mu.Unlock()
		return r.loop, nil
	}
	m.mu.Unlock()

	gs, err := m.cfg.Store.LoadGameState(ctx, id)
	if err != nil {
		return nil, err
	}
	if gs == nil || gs.PC == nil {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.games[id]; ok {
		return r.loop, nil
	}
	m.log.Info("Resuming game", "game_id", id.String())
	return m.launch(ctx, gs)
}

// Delete stops the game and removes its saved state.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	m.stop(id)
	return m.cfg.Store.DeleteGameState(ctx, id)
}

// Close stops every running game.
func (m *Manager) Close() {
	m.mu.Lock()
	ids := make([]uuid.UUID, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.stop(id)
	}
}

// Running returns the number of live loops.
func (m *Manager) Running() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.games)
}

func (m *Manager) stop(id uuid.UUID) {
	m.mu.Lock()
	r, ok := m.games[id]
	m.mu.Unlock()
	if !ok {
		return
	}
	r.cancel()
	<-r.done
}

// launch must be called with m.mu held.
func (m *Manager) launch(ctx context.Context, gs *state.GameState) (*Loop, error) {
	cfg := Config{
		State:        gs,
		Dialogues:    m.cfg.Assets.Dialogues,
		Quests:       m.cfg.Assets.Quests,
		Events:       m.cfg.Assets.Events,
		NPCs:         m.cfg.Assets.NPCs,
		Saver:        m.cfg.Store,
		TickInterval: m.cfg.TickInterval,
		Logger:       m.log,
	}
	if m.cfg.Seed != 0 {
		cfg.Roller = skillcheck.NewDiceRoller(d20.NewRoller(int64(m.cfg.Seed)))
		cfg.Source = rand.New(rand.NewPCG(m.cfg.Seed, m.cfg.Seed>>1|1))
	}
	if m.cfg.Attach != nil {
		m.cfg.Attach(gs.ID, &cfg)
	}

	loop, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := loop.Claim(ctx); err != nil {
		m.log.Warn("Game not started", "game_id", gs.ID.String(), "error", err)
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r := &running{loop: loop, cancel: cancel, done: make(chan struct{})}
	m.games[gs.ID] = r

	go func() {
		defer close(r.done)
		if err := loop.Run(runCtx); err != nil {
			m.log.Error("Game loop exited", "game_id", gs.ID.String(), "error", err)
		}
		m.mu.Lock()
		if m.games[gs.ID] == r {
			delete(m.games, gs.ID)
		}
		m.mu.Unlock()
	}()
	return loop, nil
}
