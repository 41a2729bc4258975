package dialogue

import (
	"encoding/json"
	"fmt"
)

// Kind is the tag of a consequence variant.
type Kind string

const (
	KindJumpToNode      Kind = "jumpToNode"
	KindEndDialogue     Kind = "endDialogue"
	KindSkillCheck      Kind = "skillCheck"
	KindStartQuest      Kind = "startQuest"
	KindAdvanceQuest    Kind = "advanceQuest"
	KindGiveItem        Kind = "giveItem"
	KindTakeItem        Kind = "takeItem"
	KindAlignmentChange Kind = "alignmentChange"
	KindAddXP           Kind = "addXp"
	KindCompleteQuest   Kind = "completeQuest"
	KindFailQuest       Kind = "failQuest"
	KindLearnRecipe     Kind = "learnRecipe"
	KindUpgradeArmor    Kind = "upgradeArmor"
	KindRevealMapPOI    Kind = "revealMapPOI"
)

// Consequence is the effect attached to a dialogue option. The set of
// implementations is closed to this package.
type Consequence interface {
	Kind() Kind
	sealed()
}

type JumpToNode struct {
	NodeID string
}

type EndDialogue struct{}

type SkillCheck struct {
	Skill       string `json:"skill"`
	DC          int    `json:"dc"`
	Bonus       int    `json:"bonus,omitempty"`
	SuccessNode string `json:"successNode"`
	FailureNode string `json:"failureNode"`
}

type StartQuest struct {
	QuestID string
}

type AdvanceQuest struct {
	QuestID string
}

type CompleteQuest struct {
	QuestID string
}

type FailQuest struct {
	QuestID string
}

type GiveItem struct {
	ItemID string `json:"itemId"`
	Qty    int    `json:"qty"`
}

type TakeItem struct {
	ItemID string `json:"itemId"`
	Qty    int    `json:"qty"`
}

type AlignmentChange struct {
	Axis   string `json:"axis"`
	Amount int    `json:"amount"`
}

type AddXP struct {
	Amount int
}

type LearnRecipe struct {
	RecipeID string
}

type UpgradeArmor struct {
	Slot             string `json:"slot"`
	DefenseBonus     int    `json:"defenseBonus"`
	StatusResistance string `json:"statusResistance,omitempty"`
}

type RevealMapPOI struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Name string `json:"name"`
}

// Unknown carries a consequence whose type this engine does not recognise.
// Executing it is a logged no-op.
type Unknown struct {
	Type  string
	Value json.RawMessage
}

func (JumpToNode) Kind() Kind      { return KindJumpToNode }
func (EndDialogue) Kind() Kind     { return KindEndDialogue }
func (SkillCheck) Kind() Kind      { return KindSkillCheck }
func (StartQuest) Kind() Kind      { return KindStartQuest }
func (AdvanceQuest) Kind() Kind    { return KindAdvanceQuest }
func (CompleteQuest) Kind() Kind   { return KindCompleteQuest }
func (FailQuest) Kind() Kind       { return KindFailQuest }
func (GiveItem) Kind() Kind        { return KindGiveItem }
func (TakeItem) Kind() Kind        { return KindTakeItem }
func (AlignmentChange) Kind() Kind { return KindAlignmentChange }
func (AddXP) Kind() Kind           { return KindAddXP }
func (LearnRecipe) Kind() Kind     { return KindLearnRecipe }
func (UpgradeArmor) Kind() Kind    { return KindUpgradeArmor }
func (RevealMapPOI) Kind() Kind    { return KindRevealMapPOI }
func (u Unknown) Kind() Kind       { return Kind(u.Type) }

func (JumpToNode) sealed()      {}
func (EndDialogue) sealed()     {}
func (SkillCheck) sealed()      {}
func (StartQuest) sealed()      {}
func (AdvanceQuest) sealed()    {}
func (CompleteQuest) sealed()   {}
func (FailQuest) sealed()       {}
func (GiveItem) sealed()        {}
func (TakeItem) sealed()        {}
func (AlignmentChange) sealed() {}
func (AddXP) sealed()           {}
func (LearnRecipe) sealed()     {}
func (UpgradeArmor) sealed()    {}
func (RevealMapPOI) sealed()    {}
func (Unknown) sealed()         {}

type envelope struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// DecodeConsequence decodes the {type, value} wire form. Unrecognised types
// decode to Unknown; only a malformed payload for a known type is an error.
func DecodeConsequence(data []byte) (Consequence, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("consequence: %w", err)
	}

	var (
		c   Consequence
		err error
	)
	switch Kind(env.Type) {
	case KindJumpToNode:
		var v JumpToNode
		err = unmarshalValue(env, &v.NodeID)
		c = v
	case KindEndDialogue:
		c = EndDialogue{}
	case KindSkillCheck:
		var v SkillCheck
		err = unmarshalValue(env, &v)
		c = v
	case KindStartQuest:
		var v StartQuest
		err = unmarshalValue(env, &v.QuestID)
		c = v
	case KindAdvanceQuest:
		var v AdvanceQuest
		err = unmarshalValue(env, &v.QuestID)
		c = v
	case KindCompleteQuest:
		var v CompleteQuest
		err = unmarshalValue(env, &v.QuestID)
		c = v
	case KindFailQuest:
		var v FailQuest
		err = unmarshalValue(env, &v.QuestID)
		c = v
	case KindGiveItem:
		var v GiveItem
		err = unmarshalValue(env, &v)
		if v.Qty == 0 {
			v.Qty = 1
		}
		c = v
	case KindTakeItem:
		var v TakeItem
		err = unmarshalValue(env, &v)
		if v.Qty <= 0 {
			v.Qty = 1
		}
		c = v
	case KindAlignmentChange:
		var v AlignmentChange
		err = unmarshalValue(env, &v)
		c = v
	case KindAddXP:
		var v AddXP
		err = unmarshalValue(env, &v.Amount)
		c = v
	case KindLearnRecipe:
		var v LearnRecipe
		err = unmarshalValue(env, &v.RecipeID)
		c = v
	case KindUpgradeArmor:
		var v UpgradeArmor
		err = unmarshalValue(env, &v)
		c = v
	case KindRevealMapPOI:
		var v RevealMapPOI
		err = unmarshalValue(env, &v)
		c = v
	default:
		c = Unknown{Type: env.Type, Value: env.Value}
	}
	if err != nil {
		return nil, fmt.Errorf("consequence %s: %w", env.Type, err)
	}
	return c, nil
}

func unmarshalValue(env envelope, target any) error {
	if len(env.Value) == 0 {
		return fmt.Errorf("missing value")
	}
	return json.Unmarshal(env.Value, target)
}

// EncodeConsequence writes the {type, value} wire form.
func EncodeConsequence(c Consequence) ([]byte, error) {
	var value any
	switch v := c.(type) {
	case nil:
		return []byte("null"), nil
	case JumpToNode:
		value = v.NodeID
	case EndDialogue:
		value = nil
	case StartQuest:
		value = v.QuestID
	case AdvanceQuest:
		value = v.QuestID
	case CompleteQuest:
		value = v.QuestID
	case FailQuest:
		value = v.QuestID
	case AddXP:
		value = v.Amount
	case LearnRecipe:
		value = v.RecipeID
	case Unknown:
		value = v.Value
	default:
		value = v
	}

	env := envelope{Type: string(c.Kind())}
	if value != nil {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		env.Value = raw
	}
	return json.Marshal(env)
}
