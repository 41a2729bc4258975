// Package quest holds quest definitions and decides when a stage trigger
// has been satisfied.
package quest

import (
	"encoding/json"
	"fmt"

	"github.com/jwebster45206/narrative-engine/pkg/world"
)

// TriggerType names the condition that completes a quest stage.
type TriggerType string

const (
	TriggerReachLocation TriggerType = "reachLocation"
	TriggerTalkToNPC     TriggerType = "talkToNPC"
)

// Trigger is a stage completion condition. Location is set for
// reachLocation triggers, NodeID for talkToNPC triggers.
type Trigger struct {
	Type     TriggerType
	Location world.Point
	NodeID   string
	// Raw keeps the undecoded value of unknown trigger types.
	Raw json.RawMessage
}

type triggerJSON struct {
	Type  TriggerType     `json:"type"`
	Value json.RawMessage `json:"value"`
}

// UnmarshalJSON decodes {type, value}. Unknown types are kept rather than
// rejected; they never fire.
func (t *Trigger) UnmarshalJSON(data []byte) error {
	var aux triggerJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = Trigger{Type: aux.Type}
	switch aux.Type {
	case TriggerReachLocation:
		if err := json.Unmarshal(aux.Value, &t.Location); err != nil {
			return fmt.Errorf("reachLocation value: %w", err)
		}
	case TriggerTalkToNPC:
		if err := json.Unmarshal(aux.Value, &t.NodeID); err != nil {
			return fmt.Errorf("talkToNPC value: %w", err)
		}
	default:
		t.Raw = aux.Value
	}
	return nil
}

// MarshalJSON writes the {type, value} form.
func (t Trigger) MarshalJSON() ([]byte, error) {
	var value any
	switch t.Type {
	case TriggerReachLocation:
		value = t.Location
	case TriggerTalkToNPC:
		value = t.NodeID
	default:
		value = t.Raw
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(triggerJSON{Type: t.Type, Value: raw})
}

// Stage is one step of a quest.
type Stage struct {
	Stage   int     `json:"stage"`
	Trigger Trigger `json:"trigger"`
}

// Quest is a static quest definition.
type Quest struct {
	ID     string  `json:"id"`
	Title  string  `json:"title,omitempty"`
	Stages []Stage `json:"stages"`
}

// StageFor returns the stage definition numbered n.
func (q *Quest) StageFor(n int) (Stage, bool) {
	for _, s := range q.Stages {
		if s.Stage == n {
			return s, true
		}
	}
	return Stage{}, false
}

// DisplayName returns the title, falling back to the id.
func (q *Quest) DisplayName() string {
	if q.Title != "" {
		return q.Title
	}
	return q.ID
}

// Collection maps quest ids to definitions.
type Collection map[string]*Quest

// Get returns the quest with the given id.
func (c Collection) Get(id string) (*Quest, bool) {
	q, ok := c[id]
	return q, ok && q != nil
}

// Title returns a display name for id, even when the quest is unknown.
func (c Collection) Title(id string) string {
	if q, ok := c.Get(id); ok {
		return q.DisplayName()
	}
	return id
}
