// Package dialogue defines branching dialogue trees, the typed consequences
// attached to their options, and option visibility rules.
package dialogue

import (
	"encoding/json"
	"fmt"
)

// Tree is an immutable dialogue tree loaded from static data.
type Tree struct {
	ID          string           `json:"id"`
	NPCName     string           `json:"npcName"`
	StartNodeID string           `json:"startNodeId"`
	Nodes       map[string]*Node `json:"nodes"`
}

// Node returns the node with the given id.
func (t *Tree) Node(id string) (*Node, bool) {
	if t == nil {
		return nil, false
	}
	n, ok := t.Nodes[id]
	return n, ok && n != nil
}

// Node is a single NPC line with its player options.
type Node struct {
	ID      string   `json:"id"`
	NPCText string   `json:"npcText"`
	Options []Option `json:"options"`
}

// Option is a player reply. A nil ShowCondition means always visible.
type Option struct {
	Text          string               `json:"text"`
	ShowCondition *VisibilityCondition `json:"showCondition,omitempty"`
	Consequence   Consequence          `json:"-"`
}

type optionJSON struct {
	Text          string               `json:"text"`
	ShowCondition *VisibilityCondition `json:"showCondition,omitempty"`
	Consequence   json.RawMessage      `json:"consequence"`
}

// UnmarshalJSON decodes the option and its tagged consequence.
func (o *Option) UnmarshalJSON(data []byte) error {
	var aux optionJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	o.Text = aux.Text
	o.ShowCondition = aux.ShowCondition
	o.Consequence = nil
	if len(aux.Consequence) == 0 || string(aux.Consequence) == "null" {
		return nil
	}
	c, err := DecodeConsequence(aux.Consequence)
	if err != nil {
		return fmt.Errorf("option %q: %w", o.Text, err)
	}
	o.Consequence = c
	return nil
}

// MarshalJSON writes the option with its consequence in wire form.
func (o Option) MarshalJSON() ([]byte, error) {
	raw, err := EncodeConsequence(o.Consequence)
	if err != nil {
		return nil, err
	}
	return json.Marshal(optionJSON{
		Text:          o.Text,
		ShowCondition: o.ShowCondition,
		Consequence:   raw,
	})
}

// Collection maps tree ids to dialogue trees.
type Collection map[string]*Tree

// Get returns the tree with the given id.
func (c Collection) Get(id string) (*Tree, bool) {
	t, ok := c[id]
	return t, ok && t != nil
}

// IDs returns every tree id.
func (c Collection) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	return ids
}
