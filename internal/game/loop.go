// Package game hosts one running game. A Loop owns the game state, the
// dialogue controller, the random event scheduler and the timer queue, and
// runs every command and timer on a single goroutine.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/d20"
	"github.com/jwebster45206/narrative-engine/pkg/actor"
	"github.com/jwebster45206/narrative-engine/pkg/dialogue"
	"github.com/jwebster45206/narrative-engine/pkg/encounter"
	"github.com/jwebster45206/narrative-engine/pkg/narrative"
	"github.com/jwebster45206/narrative-engine/pkg/quest"
	"github.com/jwebster45206/narrative-engine/pkg/scheduler"
	"github.com/jwebster45206/narrative-engine/pkg/skillcheck"
	"github.com/jwebster45206/narrative-engine/pkg/state"
	"github.com/jwebster45206/narrative-engine/pkg/world"
)

var (
	ErrDialogueActive  = errors.New("a dialogue is in progress")
	ErrNotAdjacent     = errors.New("target is not adjacent to the player")
	ErrUnknownDialogue = errors.New("dialogue not found")
	ErrUnknownNPC      = errors.New("npc not found")
	ErrOptionRejected  = errors.New("option cannot be selected")
	ErrLoopStopped     = errors.New("game loop stopped")
	ErrGameLocked      = errors.New("game is owned by another process")
	ErrLockLost        = errors.New("game lock lost")
)

const (
	DefaultTickInterval = 50 * time.Millisecond
	saveTimeout         = 2 * time.Second
)

// SnapshotJournal is the number of journal entries in a snapshot.
const SnapshotJournal = 20

// Saver persists the game state after it changes.
type Saver interface {
	SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error
}

// MoveObserver is told about completed player moves.
type MoveObserver interface {
	PlayerMoved(p world.Point, biome, weather string)
}

// Config wires a Loop. State and State.PC are required; everything else
// has a usable default.
type Config struct {
	State     *state.GameState
	Dialogues dialogue.Collection
	Quests    quest.Collection
	Events    *encounter.Catalog
	NPCs      actor.Roster

	Roller skillcheck.Roller
	Source encounter.Source

	// Extra sinks next to the game state's own journal.
	Journals []world.Journal
	Sounds   []world.Audio

	DialogueObserver narrative.Observer
	EventObserver    encounter.Observer
	MoveObserver     MoveObserver

	Saver        Saver
	Locker       Locker
	TickInterval time.Duration
	Now          func() time.Time
	Logger       *slog.Logger
}

// Loop drives one game.
type Loop struct {
	state   *state.GameState
	npcs    actor.Roster
	ctl     *narrative.Controller
	enc     *encounter.Scheduler
	tracker *quest.Tracker
	tasks   *scheduler.Scheduler

	moves  MoveObserver
	saver  Saver
	locker Locker
	tick   time.Duration
	now    func() time.Time
	log    *slog.Logger

	cmds    chan func()
	stopped chan struct{}
	claimed bool
	exitErr error // set before stopped is closed
}

// New builds a Loop. Call Run to start processing commands.
func New(cfg Config) (*Loop, error) {
	gs := cfg.State
	if gs == nil {
		return nil, errors.New("game state is required")
	}
	if gs.PC == nil {
		return nil, errors.New("game state has no player character")
	}
	gs.Normalize()
	// Sessions are not persisted, so a restored game starts outside dialogue.
	if gs.CurrentScreen() == state.ScreenDialogue {
		gs.SetScreen(state.ScreenExplore)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("game_id", gs.ID.String())

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	tick := cfg.TickInterval
	if tick <= 0 {
		tick = DefaultTickInterval
	}

	var audio world.Audio = world.Silent{}
	if len(cfg.Sounds) > 0 {
		audio = world.Sounds(cfg.Sounds)
	}
	c := &world.Collaborators{
		Inventory: gs,
		Quests:    gs,
		Character: gs.PC,
		World:     gs,
		Journal:   append(world.Journals{gs}, cfg.Journals...),
		Audio:     audio,
	}

	seed := uint64(now().UnixNano())
	roller := cfg.Roller
	if roller == nil {
		roller = skillcheck.NewDiceRoller(d20.NewRoller(int64(seed)))
	}
	src := cfg.Source
	if src == nil {
		src = rand.New(rand.NewPCG(seed, seed>>1|1))
	}

	tasks := scheduler.New(now(), logger)
	tracker := quest.NewTracker(cfg.Quests, gs, logger)
	exec := narrative.NewExecutor(c, skillcheck.NewResolver(roller), tracker, logger)

	ctl, err := narrative.NewController(cfg.Dialogues, c, exec, tasks, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create dialogue controller: %w", err)
	}
	if cfg.DialogueObserver != nil {
		ctl.SetObserver(cfg.DialogueObserver)
	}

	catalog := cfg.Events
	if catalog == nil {
		catalog = &encounter.Catalog{}
	}
	enc, err := encounter.New(catalog, c, tasks, src, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event scheduler: %w", err)
	}
	enc.SetDialogueStarter(ctl)
	if cfg.EventObserver != nil {
		enc.SetObserver(cfg.EventObserver)
	}

	npcs := cfg.NPCs
	if npcs == nil {
		npcs = make(actor.Roster)
	}

	return &Loop{
		state:   gs,
		npcs:    npcs,
		ctl:     ctl,
		enc:     enc,
		tracker: tracker,
		tasks:   tasks,
		moves:   cfg.MoveObserver,
		saver:   cfg.Saver,
		locker:  cfg.Locker,
		tick:    tick,
		now:     now,
		log:     logger,
		cmds:    make(chan func()),
		stopped: make(chan struct{}),
	}, nil
}

// ID returns the game id.
func (l *Loop) ID() uuid.UUID {
	return l.state.ID
}

// Claim takes the game lock ahead of Run so a caller can report a
// locked game before handing the loop out. Without a Locker it does
// nothing.
func (l *Loop) Claim(ctx context.Context) error {
	if l.locker == nil || l.claimed {
		return nil
	}
	ok, err := l.locker.Acquire(ctx, l.state.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrGameLocked
	}
	l.claimed = true
	return nil
}

// Run processes commands and timers until ctx is cancelled. It must be
// called once.
func (l *Loop) Run(ctx context.Context) (err error) {
	defer func() {
		l.exitErr = err
		close(l.stopped)
	}()

	id := l.state.ID
	if err := l.Claim(ctx); err != nil {
		return err
	}
	if l.locker != nil {
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			defer cancel()
			if err := l.locker.Release(releaseCtx, id); err != nil {
				l.log.Error("Failed to release game lock", "error", err)
			}
		}()
	}

	l.log.Info("Game loop starting", "tick", l.tick)
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()
	last := l.now()
	refreshed := last

	for {
		select {
		case <-ctx.Done():
			l.save()
			l.log.Info("Game loop shutting down")
			return nil
		case cmd := <-l.cmds:
			cmd()
		case <-ticker.C:
			now := l.now()
			if ran := l.tasks.Advance(now.Sub(last)); ran > 0 {
				l.save()
			}
			last = now
			if l.locker != nil && now.Sub(refreshed) >= LockRefreshInterval {
				if err := l.locker.Refresh(ctx, id); err != nil && ctx.Err() == nil {
					l.log.Error("Game lock refresh failed, stopping", "error", err)
					return err
				}
				refreshed = now
			}
		}
	}
}

// do runs fn on the loop goroutine and waits for it.
func (l *Loop) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	cmd := func() {
		defer close(done)
		fn()
	}

	select {
	case l.cmds <- cmd:
	case <-l.stopped:
		return l.stoppedErr()
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stoppedErr carries the reason Run exited, so a locked game still
// reports ErrGameLocked.
func (l *Loop) stoppedErr() error {
	if l.exitErr == nil {
		return ErrLoopStopped
	}
	return fmt.Errorf("%w: %w", ErrLoopStopped, l.exitErr)
}

func (l *Loop) save() {
	if l.saver == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := l.saver.SaveGameState(ctx, l.state.ID, l.state); err != nil {
		l.log.Error("Failed to save game state", "error", err)
	}
}
