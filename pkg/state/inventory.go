package state

import (
	"fmt"
	"sort"
	"strings"
)

// AddItem adds qty of itemID. Non-positive quantities are ignored.
func (gs *GameState) AddItem(itemID string, qty int) {
	if itemID == "" || qty <= 0 {
		return
	}
	gs.Items[itemID] += qty
	gs.touch()
}

// RemoveItem removes qty of itemID. When fewer than qty are held, or qty
// is not positive, nothing changes and false is returned. A stack that
// reaches zero is removed.
func (gs *GameState) RemoveItem(itemID string, qty int) bool {
	if qty <= 0 {
		return false
	}
	held := gs.Items[itemID]
	if held < qty {
		return false
	}
	if held == qty {
		delete(gs.Items, itemID)
	} else {
		gs.Items[itemID] = held - qty
	}
	gs.touch()
	return true
}

// HasItem reports whether at least qty of itemID is held.
func (gs *GameState) HasItem(itemID string, qty int) bool {
	if qty <= 0 {
		qty = 1
	}
	return gs.Items[itemID] >= qty
}

// Count returns how many of itemID are held.
func (gs *GameState) Count(itemID string) int {
	return gs.Items[itemID]
}

// ItemIDs returns the held item ids in sorted order.
func (gs *GameState) ItemIDs() []string {
	ids := make([]string, 0, len(gs.Items))
	for id := range gs.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (gs *GameState) DescribeInventory() string {
	if len(gs.Items) == 0 {
		return "Your inventory is empty."
	}
	lines := make([]string, 0, len(gs.Items))
	for _, id := range gs.ItemIDs() {
		if n := gs.Items[id]; n > 1 {
			lines = append(lines, fmt.Sprintf("%s x%d", id, n))
		} else {
			lines = append(lines, id)
		}
	}
	return "You have:\n- " + strings.Join(lines, "\n- ")
}
