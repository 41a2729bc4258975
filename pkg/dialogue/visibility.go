package dialogue

// VisibilityCondition gates an option on game state. Every field that is
// set must hold.
type VisibilityCondition struct {
	QuestActive       string `json:"questActive,omitempty"`
	QuestCompleted    string `json:"questCompleted,omitempty"`
	HasItem           string `json:"hasItem,omitempty"`
	Alignment         string `json:"alignment,omitempty"`
	MinAlignmentValue *int   `json:"minAlignmentValue,omitempty"`
}

// StateView is the read-only game state needed to evaluate visibility.
type StateView interface {
	IsQuestActive(questID string) bool
	IsQuestCompleted(questID string) bool
	HasItem(itemID string, qty int) bool
	Alignment(axis string) int
}

// Satisfied reports whether every present condition holds. A nil
// condition is always satisfied.
func (vc *VisibilityCondition) Satisfied(view StateView) bool {
	if vc == nil {
		return true
	}

	if vc.QuestActive != "" && !view.IsQuestActive(vc.QuestActive) {
		return false
	}

	if vc.QuestCompleted != "" && !view.IsQuestCompleted(vc.QuestCompleted) {
		return false
	}

	if vc.HasItem != "" && !view.HasItem(vc.HasItem, 1) {
		return false
	}

	// Single axis only; a threshold without an axis has nothing to compare.
	if vc.Alignment != "" {
		threshold := 0
		if vc.MinAlignmentValue != nil {
			threshold = *vc.MinAlignmentValue
		}
		if view.Alignment(vc.Alignment) < threshold {
			return false
		}
	}

	return true
}

// VisibleOptions returns the node's options whose conditions hold, in
// their original order.
func VisibleOptions(node *Node, view StateView) []Option {
	if node == nil {
		return nil
	}
	visible := make([]Option, 0, len(node.Options))
	for _, opt := range node.Options {
		if opt.ShowCondition.Satisfied(view) {
			visible = append(visible, opt)
		}
	}
	return visible
}
