package state

import (
	"slices"
	"time"

	"github.com/jwebster45206/narrative-engine/pkg/world"
)

func (gs *GameState) PlayerPosition() world.Point {
	return gs.Position
}

func (gs *GameState) CurrentBiome() string {
	return gs.Biome
}

func (gs *GameState) CurrentWeather() string {
	return gs.Weather
}

// MoveTo places the player on a tile. Empty biome or weather keep the
// current values.
func (gs *GameState) MoveTo(p world.Point, biome, weather string) {
	gs.Position = p
	if biome != "" {
		gs.Biome = biome
	}
	if weather != "" {
		gs.Weather = weather
	}
	gs.touch()
}

func (gs *GameState) SetFlag(name string) {
	if name == "" {
		return
	}
	gs.Flags[name] = true
	gs.touch()
}

func (gs *GameState) HasFlag(name string) bool {
	return gs.Flags[name]
}

// RevealPOI adds a point of interest. Revealing the same tile twice keeps
// the first entry.
func (gs *GameState) RevealPOI(poi world.POI) {
	if slices.ContainsFunc(gs.POIs, func(p world.POI) bool { return p.Position == poi.Position }) {
		return
	}
	gs.POIs = append(gs.POIs, poi)
	gs.touch()
}

func (gs *GameState) CurrentScreen() string {
	return gs.Screen
}

func (gs *GameState) SetScreen(name string) {
	gs.Screen = name
	gs.touch()
}

// AddJournalEntry appends an entry, dropping the oldest beyond JournalLimit.
func (gs *GameState) AddJournalEntry(text string, kind world.EntryType) {
	gs.Journal = append(gs.Journal, JournalEntry{Text: text, Kind: kind, At: time.Now().UTC()})
	if over := len(gs.Journal) - JournalLimit; over > 0 {
		gs.Journal = slices.Clone(gs.Journal[over:])
	}
	gs.touch()
}

// RecentJournal returns up to n of the newest entries, oldest first.
func (gs *GameState) RecentJournal(n int) []JournalEntry {
	if n <= 0 || n >= len(gs.Journal) {
		return slices.Clone(gs.Journal)
	}
	return slices.Clone(gs.Journal[len(gs.Journal)-n:])
}
