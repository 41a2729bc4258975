package encounter

import "strings"

// Event is one random event definition.
type Event struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	DialogueID  string `json:"dialogueId,omitempty"` // dialogue opened when the event fires
	Sound       string `json:"sound,omitempty"`
	Once        bool   `json:"once,omitempty"` // fires at most once per game
}

// SeenFlag is the world flag set when a one-shot event fires.
func (e Event) SeenFlag() string {
	return "event_" + e.ID + "_seen"
}

// Catalog holds the global event pool and one pool per biome.
type Catalog struct {
	Global []Event            `json:"global"`
	Biomes map[string][]Event `json:"biomes"`
}

// BiomeEvents returns the pool for a biome. Biome names are case
// insensitive.
func (c *Catalog) BiomeEvents(biome string) []Event {
	if c == nil {
		return nil
	}
	if events, ok := c.Biomes[biome]; ok {
		return events
	}
	return c.Biomes[strings.ToUpper(biome)]
}

// GlobalEvents returns the pool shared by every biome.
func (c *Catalog) GlobalEvents() []Event {
	if c == nil {
		return nil
	}
	return c.Global
}

// Len counts every event in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	n := len(c.Global)
	for _, events := range c.Biomes {
		n += len(events)
	}
	return n
}
