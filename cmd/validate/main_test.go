package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jwebster45206/narrative-engine/internal/game"
	"github.com/jwebster45206/narrative-engine/internal/storage"
	"github.com/jwebster45206/narrative-engine/pkg/actor"
	"github.com/jwebster45206/narrative-engine/pkg/dialogue"
	"github.com/jwebster45206/narrative-engine/pkg/encounter"
	"github.com/jwebster45206/narrative-engine/pkg/quest"
	"github.com/jwebster45206/narrative-engine/pkg/world"
)

func validAssets() game.Assets {
	return game.Assets{
		Dialogues: dialogue.Collection{
			"ranger": {
				ID:          "ranger",
				StartNodeID: "start",
				Nodes: map[string]*dialogue.Node{
					"start": {ID: "start", NPCText: "Evening.", Options: []dialogue.Option{
						{Text: "Arm wrestle", Consequence: dialogue.SkillCheck{Skill: "combat", DC: 10, SuccessNode: "won", FailureNode: "start"}},
						{Text: "Help", Consequence: dialogue.StartQuest{QuestID: "signal_fire"}},
						{Text: "Bye", Consequence: dialogue.EndDialogue{}},
					}},
					"won": {ID: "won", NPCText: "Well done.", Options: []dialogue.Option{
						{Text: "Thanks", Consequence: dialogue.EndDialogue{}},
					}},
				},
			},
		},
		Quests: quest.Collection{
			"signal_fire": {ID: "signal_fire", Stages: []quest.Stage{
				{Stage: 1, Trigger: quest.Trigger{Type: quest.TriggerTalkToNPC, NodeID: "won"}},
				{Stage: 2, Trigger: quest.Trigger{Type: quest.TriggerReachLocation, Location: world.Point{X: 1, Y: 1}}},
			}},
		},
		Events: &encounter.Catalog{
			Biomes: map[string][]encounter.Event{"RUINS": {{ID: "ranger_camp", Name: "camp", DialogueID: "ranger"}}},
		},
		NPCs: actor.Roster{"ranger": {ID: "ranger", DialogueID: "ranger"}},
	}
}

func TestValidate_CleanData(t *testing.T) {
	v := &DataValidator{}
	v.validate(validAssets())

	if len(v.errors) > 0 || len(v.warnings) > 0 {
		t.Errorf("expected clean data, got errors %v warnings %v", v.errors, v.warnings)
	}
}

func TestValidate_BrokenReferences(t *testing.T) {
	a := validAssets()
	start := a.Dialogues["ranger"].Nodes["start"]
	start.Options = append(start.Options,
		dialogue.Option{Text: "Go", Consequence: dialogue.JumpToNode{NodeID: "nowhere"}},
		dialogue.Option{Text: "Quest", Consequence: dialogue.AdvanceQuest{QuestID: "missing_quest"}},
		dialogue.Option{Text: "Dance", Consequence: dialogue.Unknown{Type: "dance"}},
	)
	a.Quests["BadID"] = &quest.Quest{ID: "BadID"}
	a.Events.Global = []encounter.Event{{ID: "storm", DialogueID: "ghost"}}
	a.NPCs["twin"] = &actor.NPC{ID: "twin", DialogueID: "ranger"}

	v := &DataValidator{}
	v.validate(a)

	errs := strings.Join(v.errors, "\n")
	for _, want := range []string{
		`jump target "nowhere" does not exist`,
		`unknown quest "missing_quest"`,
		"quest ID 'BadID' should be lowercase snake_case",
		"quest BadID has no stages",
		`opens unknown dialogue "ghost"`,
	} {
		if !strings.Contains(errs, want) {
			t.Errorf("errors missing %q:\n%s", want, errs)
		}
	}

	warns := strings.Join(v.warnings, "\n")
	for _, want := range []string{
		`unknown consequence type "dance"`,
		"NPCs ranger and twin share tile",
	} {
		if !strings.Contains(warns, want) {
			t.Errorf("warnings missing %q:\n%s", want, warns)
		}
	}
}

func TestValidate_QuestStages(t *testing.T) {
	a := validAssets()
	a.Quests["signal_fire"].Stages = append(a.Quests["signal_fire"].Stages,
		quest.Stage{Stage: 2, Trigger: quest.Trigger{Type: quest.TriggerTalkToNPC, NodeID: "ghost_node"}},
		quest.Stage{Stage: 0, Trigger: quest.Trigger{Type: "sing"}},
	)

	v := &DataValidator{}
	v.validate(a)

	errs := strings.Join(v.errors, "\n")
	for _, want := range []string{"defines stage 2 twice", `unknown node "ghost_node"`, "stage 0 must be 1 or higher"} {
		if !strings.Contains(errs, want) {
			t.Errorf("errors missing %q:\n%s", want, errs)
		}
	}
	if !strings.Contains(strings.Join(v.warnings, "\n"), `trigger type "sing" that never fires`) {
		t.Errorf("missing trigger warning: %v", v.warnings)
	}
}

func TestValidate_LoadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "dialogues"), 0o755); err != nil {
		t.Fatal(err)
	}
	tree := `{"id":"hermit","startNodeId":"start","nodes":{"start":{"id":"start","npcText":"Go away.","options":[{"text":"Fine","consequence":{"type":"jumpToNode","value":"gone"}}]}}}`
	if err := os.WriteFile(filepath.Join(dir, "dialogues", "hermit.json"), []byte(tree), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := game.LoadAssets(t.Context(), storage.NewFiles(dir, slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("LoadAssets() error = %v", err)
	}
	v := &DataValidator{}
	v.validate(a)

	if len(v.errors) != 1 || !strings.Contains(v.errors[0], `jump target "gone"`) {
		t.Errorf("errors = %v", v.errors)
	}
}

func TestValidate_ShippedData(t *testing.T) {
	a, err := game.LoadAssets(t.Context(), storage.NewFiles(filepath.Join("..", "..", "data"), slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("LoadAssets() error = %v", err)
	}
	if len(a.Dialogues) == 0 || len(a.Quests) == 0 || a.Events.Len() == 0 || len(a.NPCs) == 0 {
		t.Fatalf("shipped data incomplete: %d dialogues, %d quests, %d events, %d npcs",
			len(a.Dialogues), len(a.Quests), a.Events.Len(), len(a.NPCs))
	}

	v := &DataValidator{}
	v.validate(a)
	if len(v.errors) > 0 {
		t.Errorf("shipped data has errors:\n%s", strings.Join(v.errors, "\n"))
	}
}

func TestIsValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"ranger", true},
		{"signal_fire_2", true},
		{"a", true},
		{"Ranger", false},
		{"signal-fire", false},
		{"trailing_", false},
	}
	for _, tt := range tests {
		if got := isValidID(tt.id); got != tt.want {
			t.Errorf("isValidID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
