package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/jwebster45206/narrative-engine/internal/game"
	"github.com/jwebster45206/narrative-engine/internal/storage"
	"github.com/jwebster45206/narrative-engine/pkg/dialogue"
	"github.com/jwebster45206/narrative-engine/pkg/quest"
	"github.com/jwebster45206/narrative-engine/pkg/skillcheck"
)

// Usage: validate [data-dir]
func main() {
	dataDir := "data"
	if len(os.Args) > 1 {
		dataDir = os.Args[1]
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	fmt.Printf("Validating %s...\n", dataDir)

	assets, err := game.LoadAssets(context.Background(), storage.NewFiles(dataDir, logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	v := &DataValidator{}
	v.validate(assets)

	for _, w := range v.warnings {
		fmt.Println("warning:" + w)
	}
	if len(v.errors) > 0 {
		fmt.Fprintf(os.Stderr, "Validation failed:\n%s\n", strings.Join(v.errors, "\n"))
		os.Exit(1)
	}

	fmt.Printf("Data is valid! %d dialogues, %d quests, %d events, %d NPCs\n",
		len(assets.Dialogues), len(assets.Quests), assets.Events.Len(), len(assets.NPCs))
}

// DataValidator checks the cross references between dialogues, quests,
// events and NPCs.
type DataValidator struct {
	errors   []string
	warnings []string
}

func (v *DataValidator) validate(a game.Assets) {
	for _, id := range a.Dialogues.IDs() {
		v.validateIDFormat("dialogue ID", id)
		v.validateTree(a.Dialogues[id], a.Quests)
	}

	for id, q := range a.Quests {
		v.validateIDFormat("quest ID", id)
		v.validateQuest(q, a.Dialogues)
	}

	if a.Events != nil {
		for i, ev := range a.Events.Global {
			v.validateEvent(fmt.Sprintf("global event %d", i), ev.ID, ev.DialogueID, a.Dialogues)
		}
		for biome, events := range a.Events.Biomes {
			if biome != strings.ToUpper(biome) {
				v.addWarning(fmt.Sprintf("biome %q should be upper case", biome))
			}
			for i, ev := range events {
				v.validateEvent(fmt.Sprintf("%s event %d", biome, i), ev.ID, ev.DialogueID, a.Dialogues)
			}
		}
	}

	seen := map[string]string{}
	for id, npc := range a.NPCs {
		v.validateIDFormat("NPC ID", id)
		if _, ok := a.Dialogues.Get(npc.DialogueID); !ok {
			v.addError(fmt.Sprintf("NPC %s references unknown dialogue %q", id, npc.DialogueID))
		}
		tile := npc.Position.String()
		if other, ok := seen[tile]; ok {
			v.addWarning(fmt.Sprintf("NPCs %s and %s share tile %s", min(id, other), max(id, other), tile))
		}
		seen[tile] = id
	}
}

func (v *DataValidator) validateTree(tree *dialogue.Tree, quests quest.Collection) {
	if tree == nil {
		return
	}
	if _, ok := tree.Node(tree.StartNodeID); !ok {
		v.addError(fmt.Sprintf("dialogue %s start node %q does not exist", tree.ID, tree.StartNodeID))
	}

	nodeIDs := make([]string, 0, len(tree.Nodes))
	for id := range tree.Nodes {
		nodeIDs = append(nodeIDs, id)
	}
	slices.Sort(nodeIDs)

	for _, nodeID := range nodeIDs {
		node := tree.Nodes[nodeID]
		where := fmt.Sprintf("dialogue %s node %s", tree.ID, nodeID)
		if node == nil {
			v.addError(where + " is empty")
			continue
		}
		if len(node.Options) == 0 {
			v.addWarning(where + " has no options; the player can only leave")
		}
		for i, opt := range node.Options {
			v.validateConsequence(fmt.Sprintf("%s option %d", where, i), opt.Consequence, tree, quests)
		}
	}
}

func (v *DataValidator) validateConsequence(where string, c dialogue.Consequence, tree *dialogue.Tree, quests quest.Collection) {
	checkNode := func(field, id string) {
		if _, ok := tree.Node(id); !ok {
			v.addError(fmt.Sprintf("%s %s %q does not exist", where, field, id))
		}
	}
	checkQuest := func(id string) {
		if _, ok := quests.Get(id); !ok {
			v.addError(fmt.Sprintf("%s references unknown quest %q", where, id))
		}
	}

	switch c := c.(type) {
	case nil:
		v.addError(where + " has no consequence")
	case dialogue.JumpToNode:
		checkNode("jump target", c.NodeID)
	case dialogue.SkillCheck:
		checkNode("success node", c.SuccessNode)
		checkNode("failure node", c.FailureNode)
		if c.DC <= 0 {
			v.addError(fmt.Sprintf("%s skill check has DC %d", where, c.DC))
		}
		if skillcheck.AttributeFor(c.Skill) == "" {
			v.addWarning(fmt.Sprintf("%s skill %q rolls against the baseline", where, c.Skill))
		}
	case dialogue.StartQuest:
		checkQuest(c.QuestID)
	case dialogue.AdvanceQuest:
		checkQuest(c.QuestID)
	case dialogue.CompleteQuest:
		checkQuest(c.QuestID)
	case dialogue.FailQuest:
		checkQuest(c.QuestID)
	case dialogue.Unknown:
		v.addWarning(fmt.Sprintf("%s has unknown consequence type %q", where, c.Type))
	}
}

func (v *DataValidator) validateQuest(q *quest.Quest, dialogues dialogue.Collection) {
	if q == nil {
		return
	}
	if len(q.Stages) == 0 {
		v.addError(fmt.Sprintf("quest %s has no stages", q.ID))
	}
	numbers := map[int]bool{}
	for _, s := range q.Stages {
		if numbers[s.Stage] {
			v.addError(fmt.Sprintf("quest %s defines stage %d twice", q.ID, s.Stage))
		}
		numbers[s.Stage] = true
		if s.Stage < 1 {
			v.addError(fmt.Sprintf("quest %s stage %d must be 1 or higher", q.ID, s.Stage))
		}

		switch s.Trigger.Type {
		case quest.TriggerReachLocation:
		case quest.TriggerTalkToNPC:
			if !nodeExists(dialogues, s.Trigger.NodeID) {
				v.addError(fmt.Sprintf("quest %s stage %d waits for unknown node %q", q.ID, s.Stage, s.Trigger.NodeID))
			}
		default:
			v.addWarning(fmt.Sprintf("quest %s stage %d has trigger type %q that never fires", q.ID, s.Stage, s.Trigger.Type))
		}
	}
}

func nodeExists(dialogues dialogue.Collection, nodeID string) bool {
	for _, tree := range dialogues {
		if _, ok := tree.Node(nodeID); ok {
			return true
		}
	}
	return false
}

func (v *DataValidator) validateEvent(where, id, dialogueID string, dialogues dialogue.Collection) {
	if id == "" {
		v.addError(where + " has no id")
	}
	v.validateIDFormat(where+" ID", id)
	if dialogueID != "" {
		if _, ok := dialogues.Get(dialogueID); !ok {
			v.addError(fmt.Sprintf("%s (%s) opens unknown dialogue %q", where, id, dialogueID))
		}
	}
}

func (v *DataValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}

	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *DataValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *DataValidator) addWarning(msg string) {
	v.warnings = append(v.warnings, "  - "+msg)
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}
