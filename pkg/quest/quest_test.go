package quest

import (
	"encoding/json"
	"testing"

	"github.com/jwebster45206/narrative-engine/pkg/world"
)

// mockLedger implements world.QuestLedger for testing
type mockLedger struct {
	active    map[string]int
	completed []string
	advanced  []string
}

func (m *mockLedger) StartQuest(id string)         { m.active[id] = 0 }
func (m *mockLedger) FailQuest(id string)          { delete(m.active, id) }
func (m *mockLedger) ActiveQuests() map[string]int { return m.active }
func (m *mockLedger) CompletedQuests() []string    { return m.completed }

func (m *mockLedger) AdvanceQuest(id string) {
	m.active[id]++
	m.advanced = append(m.advanced, id)
}

func (m *mockLedger) CompleteQuest(id string) {
	delete(m.active, id)
	m.completed = append(m.completed, id)
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		stage    Stage
		ctx      Context
		expected bool
	}{
		{
			name:     "reach location exact match",
			stage:    Stage{Trigger: Trigger{Type: TriggerReachLocation, Location: world.Point{X: 4, Y: 7}}},
			ctx:      Context{PlayerPosition: world.Point{X: 4, Y: 7}},
			expected: true,
		},
		{
			name:     "reach location adjacent tile does not count",
			stage:    Stage{Trigger: Trigger{Type: TriggerReachLocation, Location: world.Point{X: 4, Y: 7}}},
			ctx:      Context{PlayerPosition: world.Point{X: 4, Y: 8}},
			expected: false,
		},
		{
			name:     "talk to npc matching node",
			stage:    Stage{Trigger: Trigger{Type: TriggerTalkToNPC, NodeID: "mara_thanks"}},
			ctx:      Context{ReachedNodeID: "mara_thanks"},
			expected: true,
		},
		{
			name:     "talk to npc other node",
			stage:    Stage{Trigger: Trigger{Type: TriggerTalkToNPC, NodeID: "mara_thanks"}},
			ctx:      Context{ReachedNodeID: "mara_greeting"},
			expected: false,
		},
		{
			name:     "talk to npc outside dialogue",
			stage:    Stage{Trigger: Trigger{Type: TriggerTalkToNPC, NodeID: ""}},
			ctx:      Context{},
			expected: false,
		},
		{
			name:     "unknown trigger type",
			stage:    Stage{Trigger: Trigger{Type: "collectItem"}},
			ctx:      Context{ReachedNodeID: "anything"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.stage, tt.ctx); got != tt.expected {
				t.Errorf("Evaluate() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestCollection_UnmarshalJSON(t *testing.T) {
	data := []byte(`{
		"signal_fire": {
			"id": "signal_fire",
			"title": "Signal Fire",
			"stages": [
				{"stage": 0, "trigger": {"type": "talkToNPC", "value": "ranger_briefing"}},
				{"stage": 1, "trigger": {"type": "reachLocation", "value": {"x": 12, "y": 3}}},
				{"stage": 2, "trigger": {"type": "sacrifice", "value": {"what": "goat"}}}
			]
		}
	}`)

	var quests Collection
	if err := json.Unmarshal(data, &quests); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q, ok := quests.Get("signal_fire")
	if !ok {
		t.Fatal("expected signal_fire quest")
	}
	if len(q.Stages) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(q.Stages))
	}
	if q.Stages[0].Trigger.NodeID != "ranger_briefing" {
		t.Errorf("stage 0 node = %q", q.Stages[0].Trigger.NodeID)
	}
	if q.Stages[1].Trigger.Location != (world.Point{X: 12, Y: 3}) {
		t.Errorf("stage 1 location = %v", q.Stages[1].Trigger.Location)
	}
	if q.Stages[2].Trigger.Type != "sacrifice" || len(q.Stages[2].Trigger.Raw) == 0 {
		t.Errorf("unknown trigger should be kept raw, got %+v", q.Stages[2].Trigger)
	}

	// Round trip keeps the {type, value} shape.
	out, err := json.Marshal(q.Stages[1].Trigger)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Trigger
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Location != q.Stages[1].Trigger.Location {
		t.Errorf("round trip lost location: %s", out)
	}
}

func TestTracker_Check(t *testing.T) {
	quests := Collection{
		"signal_fire": {
			ID: "signal_fire",
			Stages: []Stage{
				{Stage: 0, Trigger: Trigger{Type: TriggerTalkToNPC, NodeID: "ranger_briefing"}},
				{Stage: 1, Trigger: Trigger{Type: TriggerReachLocation, Location: world.Point{X: 12, Y: 3}}},
			},
		},
		"lost_dog": {
			ID: "lost_dog",
			Stages: []Stage{
				{Stage: 0, Trigger: Trigger{Type: TriggerReachLocation, Location: world.Point{X: 12, Y: 3}}},
			},
		},
	}
	ledger := &mockLedger{active: map[string]int{"signal_fire": 0, "lost_dog": 0, "unknown_quest": 0}}
	tracker := NewTracker(quests, ledger, nil)

	advanced := tracker.Check(TriggerReachLocation, Context{PlayerPosition: world.Point{X: 12, Y: 3}})
	if len(advanced) != 1 || advanced[0] != "lost_dog" {
		t.Fatalf("expected only lost_dog to advance, got %v", advanced)
	}

	advanced = tracker.Check(TriggerTalkToNPC, Context{ReachedNodeID: "ranger_briefing"})
	if len(advanced) != 1 || advanced[0] != "signal_fire" {
		t.Fatalf("expected signal_fire to advance, got %v", advanced)
	}
	if ledger.active["signal_fire"] != 1 {
		t.Errorf("signal_fire stage = %d, expected 1", ledger.active["signal_fire"])
	}

	// Stage 1 is a location trigger now, so talking again does nothing.
	if advanced := tracker.Check(TriggerTalkToNPC, Context{ReachedNodeID: "ranger_briefing"}); len(advanced) != 0 {
		t.Errorf("expected no advancement, got %v", advanced)
	}

	if tracker.Title("signal_fire") != "signal_fire" {
		t.Errorf("untitled quest should display its id")
	}
}
