package actor

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/jwebster45206/d20"
)

// Stats5e represents the six core ability scores
type Stats5e struct {
	Strength     int `json:"strength" yaml:"strength"`
	Dexterity    int `json:"dexterity" yaml:"dexterity"`
	Constitution int `json:"constitution" yaml:"constitution"`
	Intelligence int `json:"intelligence" yaml:"intelligence"`
	Wisdom       int `json:"wisdom" yaml:"wisdom"`
	Charisma     int `json:"charisma" yaml:"charisma"`
}

// ToAttributes converts Stats5e to a map for d20.Actor compatibility
func (s *Stats5e) ToAttributes() map[string]int {
	return map[string]int{
		"strength":     s.Strength,
		"dexterity":    s.Dexterity,
		"constitution": s.Constitution,
		"intelligence": s.Intelligence,
		"wisdom":       s.Wisdom,
		"charisma":     s.Charisma,
	}
}

var coreStats = []string{"strength", "dexterity", "constitution", "intelligence", "wisdom", "charisma"}

// ArmorPiece is the equipped armor in one slot.
type ArmorPiece struct {
	Defense     int      `json:"defense"`
	Resistances []string `json:"resistances,omitempty"`
}

// PCSpec is the serializable specification for a Player Character
type PCSpec struct {
	ID          string                `json:"id"`
	Name        string                `json:"name,omitempty"`
	Pronouns    string                `json:"pronouns,omitempty"`
	Description string                `json:"description,omitempty"`
	Stats       Stats5e               `json:"stats,omitempty"`
	HP          int                   `json:"hp,omitempty"`     // Current HP (for serialization)
	MaxHP       int                   `json:"max_hp,omitempty"` // Maximum HP
	AC          int                   `json:"ac,omitempty"`
	XP          int                   `json:"xp,omitempty"`
	Alignment   map[string]int        `json:"alignment,omitempty"`
	Recipes     []string              `json:"recipes,omitempty"`
	Armor       map[string]ArmorPiece `json:"armor,omitempty"`
	Inventory   map[string]int        `json:"inventory,omitempty"` // Starting item stacks
}

// PC is the runtime representation of a Player Character. It implements
// world.Character.
type PC struct {
	Spec  *PCSpec
	Actor *d20.Actor // Built at runtime from PCSpec
}

// NewPCFromSpec creates a PC from a PCSpec
func NewPCFromSpec(spec *PCSpec) (*PC, error) {
	if spec == nil {
		return nil, fmt.Errorf("spec cannot be nil")
	}
	if spec.ID == "" {
		return nil, fmt.Errorf("spec id is required")
	}

	actor, err := buildActor(spec)
	if err != nil {
		return nil, err
	}

	if spec.Alignment == nil {
		spec.Alignment = make(map[string]int)
	}
	if spec.Armor == nil {
		spec.Armor = make(map[string]ArmorPiece)
	}
	return &PC{Spec: spec, Actor: actor}, nil
}

func buildActor(spec *PCSpec) (*d20.Actor, error) {
	maxHP := spec.MaxHP
	if maxHP <= 0 {
		maxHP = 10
	}
	ac := spec.AC
	if ac <= 0 {
		ac = 10
	}
	actor, err := d20.NewActor(spec.ID).
		WithHP(maxHP).
		WithAC(ac).
		WithAttributes(spec.Stats.ToAttributes()).
		WithCombatModifiers(map[string]int{}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	// Set current HP if different from max
	if spec.HP != maxHP && spec.HP > 0 {
		if err := actor.SetHP(spec.HP); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}
	return actor, nil
}

// Attributes returns the six core ability scores as read from the actor.
func (pc *PC) Attributes() map[string]int {
	attrs := make(map[string]int, len(coreStats))
	for _, key := range coreStats {
		if val, ok := pc.Actor.Attribute(key); ok {
			attrs[key] = val
		}
	}
	return attrs
}

// ChangeAlignment shifts one alignment axis by amount.
func (pc *PC) ChangeAlignment(axis string, amount int) {
	pc.Spec.Alignment[axis] += amount
}

// Alignment returns the value of one axis. Unknown axes are 0.
func (pc *PC) Alignment(axis string) int {
	return pc.Spec.Alignment[axis]
}

// AddXP adds experience. Negative amounts are ignored.
func (pc *PC) AddXP(amount int) {
	if amount <= 0 {
		return
	}
	pc.Spec.XP += amount
}

// XP returns total experience.
func (pc *PC) XP() int {
	return pc.Spec.XP
}

// Level derives the character level from total experience.
func (pc *PC) Level() int {
	return LevelForXP(pc.Spec.XP)
}

var levelThresholds = []int{0, 100, 300, 600, 1000, 1500, 2100, 2800, 3600, 4500}

// LevelForXP returns the level reached with xp experience.
func LevelForXP(xp int) int {
	level := 1
	for i, threshold := range levelThresholds {
		if xp >= threshold {
			level = i + 1
		}
	}
	return level
}

// LearnRecipe records a recipe. Learning a known recipe again is a no-op.
func (pc *PC) LearnRecipe(recipeID string) {
	if recipeID == "" || pc.KnowsRecipe(recipeID) {
		return
	}
	pc.Spec.Recipes = append(pc.Spec.Recipes, recipeID)
	sort.Strings(pc.Spec.Recipes)
}

// KnowsRecipe reports whether recipeID has been learned.
func (pc *PC) KnowsRecipe(recipeID string) bool {
	return slices.Contains(pc.Spec.Recipes, recipeID)
}

// UpgradeEquippedArmor raises the defense of the armor in slot and adds a
// status resistance when one is given.
func (pc *PC) UpgradeEquippedArmor(slot string, bonus int, statusResistance string) {
	slot = strings.ToLower(slot)
	piece := pc.Spec.Armor[slot]
	piece.Defense += bonus
	if statusResistance != "" && !slices.Contains(piece.Resistances, statusResistance) {
		piece.Resistances = append(piece.Resistances, statusResistance)
	}
	pc.Spec.Armor[slot] = piece
}

// Armor returns the equipped armor in slot.
func (pc *PC) Armor(slot string) ArmorPiece {
	return pc.Spec.Armor[strings.ToLower(slot)]
}

// ArmorDefense sums the defense of every equipped piece.
func (pc *PC) ArmorDefense() int {
	total := 0
	for _, piece := range pc.Spec.Armor {
		total += piece.Defense
	}
	return total
}

// MarshalJSON converts PC back to PCSpec format for API responses
// Reads current runtime state from the Actor
func (pc *PC) MarshalJSON() ([]byte, error) {
	if pc == nil {
		return []byte("null"), nil
	}
	if pc.Actor == nil {
		return json.Marshal(pc.Spec)
	}

	type PCResponse struct {
		PCSpec
		Level int `json:"level"`
	}

	resp := PCResponse{PCSpec: *pc.Spec, Level: pc.Level()}
	resp.HP = pc.Actor.HP()
	resp.MaxHP = pc.Actor.MaxHP()
	resp.AC = pc.Actor.AC()

	attrs := pc.Attributes()
	resp.Stats = Stats5e{
		Strength:     attrs["strength"],
		Dexterity:    attrs["dexterity"],
		Constitution: attrs["constitution"],
		Intelligence: attrs["intelligence"],
		Wisdom:       attrs["wisdom"],
		Charisma:     attrs["charisma"],
	}
	resp.Alignment = maps.Clone(pc.Spec.Alignment)
	return json.Marshal(resp)
}

// UnmarshalJSON reconstructs a PC from JSON and rebuilds its Actor
func (pc *PC) UnmarshalJSON(data []byte) error {
	var spec PCSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("failed to unmarshal PC spec: %w", err)
	}
	built, err := NewPCFromSpec(&spec)
	if err != nil {
		return err
	}
	*pc = *built
	return nil
}
