package state

import (
	"maps"
	"slices"
)

// FirstStage is the stage a newly started quest is on.
const FirstStage = 1

// StartQuest activates a quest at its first stage. Quests already active,
// completed or failed are left alone.
func (gs *GameState) StartQuest(questID string) {
	if questID == "" || gs.IsQuestActive(questID) || gs.IsQuestCompleted(questID) || slices.Contains(gs.Failed, questID) {
		return
	}
	gs.Quests[questID] = FirstStage
	gs.touch()
}

// AdvanceQuest moves an active quest to its next stage.
func (gs *GameState) AdvanceQuest(questID string) {
	if !gs.IsQuestActive(questID) {
		return
	}
	gs.Quests[questID]++
	gs.touch()
}

// CompleteQuest moves a quest to the completed set. A quest that was never
// started is recorded as completed too.
func (gs *GameState) CompleteQuest(questID string) {
	if questID == "" || gs.IsQuestCompleted(questID) {
		return
	}
	delete(gs.Quests, questID)
	gs.Completed = append(gs.Completed, questID)
	gs.touch()
}

// FailQuest drops a quest from the active set without completing it.
func (gs *GameState) FailQuest(questID string) {
	if !gs.IsQuestActive(questID) {
		return
	}
	delete(gs.Quests, questID)
	gs.Failed = append(gs.Failed, questID)
	gs.touch()
}

// ActiveQuests returns a copy of the active quest stages.
func (gs *GameState) ActiveQuests() map[string]int {
	return maps.Clone(gs.Quests)
}

// CompletedQuests returns completed quest ids in completion order.
func (gs *GameState) CompletedQuests() []string {
	return slices.Clone(gs.Completed)
}

func (gs *GameState) IsQuestActive(questID string) bool {
	_, ok := gs.Quests[questID]
	return ok
}

func (gs *GameState) IsQuestCompleted(questID string) bool {
	return slices.Contains(gs.Completed, questID)
}

// QuestStage returns the current stage of an active quest.
func (gs *GameState) QuestStage(questID string) (int, bool) {
	stage, ok := gs.Quests[questID]
	return stage, ok
}
