// Package encounter rolls for random world events as the player moves.
//
// Each tick draws once against the biome's base chance scaled by weather.
// A hit schedules a short delayed pick between the global pool and the
// biome's own pool; a miss gets an independent small chance at a global
// event instead.
package encounter

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/narrative-engine/pkg/narrative"
	"github.com/jwebster45206/narrative-engine/pkg/scheduler"
	"github.com/jwebster45206/narrative-engine/pkg/world"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// TriggerDelay separates a successful roll from the event firing.
	TriggerDelay = 150 * time.Millisecond
	// GlobalShare is the chance a successful roll picks the global pool.
	GlobalShare = 0.3
	// GlobalFallbackChance is the independent global roll made on a miss.
	GlobalFallbackChance = 0.03
)

// Scope says which pool an event came from.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeBiome  Scope = "biome"
)

// Source supplies uniform draws. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	IntN(n int) int
}

// DialogueStarter opens an event's dialogue.
type DialogueStarter interface {
	Active() bool
	StartDialogue(id string, opts ...narrative.StartOption) bool
}

// Observer is told about every event that fires.
type Observer interface {
	EventTriggered(ev Event, scope Scope, biome string)
}

// Stats counts roll outcomes since the scheduler was created.
type Stats struct {
	Ticks          int `json:"ticks"`
	PrimaryHits    int `json:"primary_hits"`
	BiomeTriggers  int `json:"biome_triggers"`
	GlobalTriggers int `json:"global_triggers"`
	EmptyPools     int `json:"empty_pools"`
}

// Scheduler decides when random events fire. Like the dialogue controller
// it must only be used from the goroutine driving its task scheduler.
type Scheduler struct {
	catalog  *Catalog
	c        *world.Collaborators
	tasks    *scheduler.Scheduler
	src      Source
	starter  DialogueStarter
	observer Observer
	stats    Stats
	title    cases.Caser
	logger   *slog.Logger
}

// New creates a random event scheduler.
func New(catalog *Catalog, c *world.Collaborators, tasks *scheduler.Scheduler, src Source, logger *slog.Logger) (*Scheduler, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if tasks == nil {
		return nil, fmt.Errorf("task scheduler cannot be nil")
	}
	if src == nil {
		return nil, fmt.Errorf("random source cannot be nil")
	}
	if catalog == nil {
		catalog = &Catalog{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		catalog: catalog,
		c:       c,
		tasks:   tasks,
		src:     src,
		title:   cases.Title(language.English),
		logger:  logger,
	}, nil
}

// SetDialogueStarter lets events open dialogues.
func (s *Scheduler) SetDialogueStarter(d DialogueStarter) {
	s.starter = d
}

// SetObserver registers an observer. nil removes it.
func (s *Scheduler) SetObserver(o Observer) {
	s.observer = o
}

// Stats returns the roll counters.
func (s *Scheduler) Stats() Stats {
	return s.stats
}

// OnPlayerTick performs the single event check for one player step.
func (s *Scheduler) OnPlayerTick(biome string, weatherModifier float64) {
	s.stats.Ticks++
	adjusted := BiomeChance(biome) * weatherModifier

	if s.src.Float64() < adjusted {
		s.stats.PrimaryHits++
		s.logger.Debug("Random event roll hit", "biome", biome, "chance", adjusted)
		s.tasks.After(TriggerDelay, scheduler.Always, "random-event", func() {
			if s.src.Float64() < GlobalShare {
				s.trigger(ScopeGlobal, biome)
				return
			}
			s.trigger(ScopeBiome, biome)
		})
		return
	}

	if s.src.Float64() < GlobalFallbackChance {
		s.trigger(ScopeGlobal, biome)
	}
}

// available filters out one-shot events that already fired.
func (s *Scheduler) available(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		if ev.Once && s.c.World.HasFlag(ev.SeenFlag()) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func (s *Scheduler) trigger(scope Scope, biome string) bool {
	var pool []Event
	if scope == ScopeGlobal {
		pool = s.available(s.catalog.GlobalEvents())
	} else {
		pool = s.available(s.catalog.BiomeEvents(biome))
	}
	if len(pool) == 0 {
		s.stats.EmptyPools++
		s.logger.Debug("No random event available", "scope", string(scope), "biome", biome)
		return false
	}

	ev := pool[s.src.IntN(len(pool))]
	if scope == ScopeGlobal {
		s.stats.GlobalTriggers++
	} else {
		s.stats.BiomeTriggers++
	}
	s.fire(ev, scope, biome)
	return true
}

func (s *Scheduler) fire(ev Event, scope Scope, biome string) {
	if ev.Once {
		s.c.World.SetFlag(ev.SeenFlag())
	}

	text := s.title.String(ev.Name)
	if ev.Description != "" {
		text += ": " + ev.Description
	}
	s.c.Journal.AddJournalEntry(text, world.EntryEvent)
	if ev.Sound != "" {
		s.c.Audio.PlaySound(ev.Sound)
	}

	s.logger.Info("Random event triggered",
		"event_id", ev.ID,
		"scope", string(scope),
		"biome", biome)

	if ev.DialogueID != "" && s.starter != nil {
		if s.starter.Active() {
			s.logger.Debug("Dialogue already active, event journaled only", "event_id", ev.ID)
		} else {
			s.starter.StartDialogue(ev.DialogueID)
		}
	}

	if s.observer != nil {
		s.observer.EventTriggered(ev, scope, biome)
	}
}
