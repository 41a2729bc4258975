package narrative

import (
	"fmt"
	"strings"
)

// Echo items are keepsakes whose return during dialogue jumps straight to a
// reward node. The list is closed.
var echoItems = map[string]bool{
	"echo_music_box":   true,
	"echo_faded_photo": true,
	"echo_dog_tags":    true,
}

func echoFlag(itemID string) string       { return itemID + "_returned" }
func echoRewardNode(itemID string) string { return itemID + "_reward" }

// IsEchoItem reports whether itemID is one of the echo keepsakes.
func IsEchoItem(itemID string) bool {
	return echoItems[itemID]
}

// The water debt pays out one of two rewards depending on how it was settled.
const (
	waterDebtQuest    = "the_water_debt"
	waterDebtNode     = "debt_settled"
	waterDebtOption   = 0
	waterDebtReward   = "water_purifier"
	waterDebtFallback = "ration_crate"
)

func waterDebtRewardFor(pos Position) string {
	if pos.NodeID == waterDebtNode && pos.OptionIndex == waterDebtOption {
		return waterDebtReward
	}
	return waterDebtFallback
}

const recipeItem = "crafting_notes"

func recipeFlag(recipeID string) string {
	return "recipe_" + recipeID + "_learned"
}

type armorUpgrade struct {
	item string
	flag string
}

var armorUpgrades = map[string]armorUpgrade{
	"chest": {item: "kevlar_plates", flag: "armor_chest_upgraded"},
	"head":  {item: "reinforced_visor", flag: "armor_head_upgraded"},
}

func armorUpgradeFor(slot string) (armorUpgrade, bool) {
	u, ok := armorUpgrades[strings.ToLower(slot)]
	return u, ok
}

const (
	mapItem  = "old_map_fragment"
	mapPOIXP = 25
)

func poiFlag(x, y int) string {
	return fmt.Sprintf("poi_%d_%d_revealed", x, y)
}
