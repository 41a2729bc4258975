package narrative

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/narrative-engine/pkg/dialogue"
	"github.com/jwebster45206/narrative-engine/pkg/quest"
	"github.com/jwebster45206/narrative-engine/pkg/skillcheck"
	"github.com/jwebster45206/narrative-engine/pkg/world"
)

// Pacing of delayed transitions.
const (
	SkillCheckDisplayDelay = 1500 * time.Millisecond
	XPEndDelay             = time.Second
	QuestCompleteEndDelay  = time.Second
	RewardEndDelay         = 1500 * time.Millisecond
)

// Sound cues.
const (
	SoundSkillSuccess = "skill_success"
	SoundSkillFailure = "skill_failure"
	SoundCritical     = "critical"
	SoundItemPickup   = "item_pickup"
)

// Position identifies the option whose consequence is being executed.
type Position struct {
	TreeID      string
	NodeID      string
	OptionIndex int
}

// Transition is a session change applied after a delay.
type Transition struct {
	Delay  time.Duration
	NodeID string // node to move to; ignored when End is set
	End    bool
}

// Outcome tells the controller how the session moves after a consequence.
// All collaborator mutations have already happened when it is returned.
type Outcome struct {
	NextNodeID string
	EndSession bool
	SkillCheck *skillcheck.Result
	Scheduled  *Transition
}

// Executor applies consequences to the collaborators.
type Executor struct {
	c        *world.Collaborators
	resolver *skillcheck.Resolver
	tracker  *quest.Tracker
	logger   *slog.Logger
}

// NewExecutor wires an executor. tracker may be nil when no quest
// definitions are loaded.
func NewExecutor(c *world.Collaborators, resolver *skillcheck.Resolver, tracker *quest.Tracker, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	if resolver == nil {
		resolver = skillcheck.NewResolver(nil)
	}
	return &Executor{c: c, resolver: resolver, tracker: tracker, logger: logger}
}

// ReachNode runs talkToNPC quest triggers against a node just entered.
func (e *Executor) ReachNode(nodeID string) []string {
	if e.tracker == nil {
		return nil
	}
	advanced := e.tracker.Check(quest.TriggerTalkToNPC, quest.Context{
		PlayerPosition: e.c.World.PlayerPosition(),
		ReachedNodeID:  nodeID,
	})
	for _, id := range advanced {
		e.c.Journal.AddJournalEntry(fmt.Sprintf("Quest updated: %s", e.questTitle(id)), world.EntryQuest)
	}
	return advanced
}

func (e *Executor) questTitle(id string) string {
	if e.tracker == nil {
		return id
	}
	return e.tracker.Title(id)
}

// Execute applies one consequence. Unknown consequences are logged and
// change nothing.
func (e *Executor) Execute(c dialogue.Consequence, pos Position) Outcome {
	log := e.logger.With("dialogue_id", pos.TreeID, "node_id", pos.NodeID, "option", pos.OptionIndex)

	switch c := c.(type) {
	case dialogue.JumpToNode:
		return Outcome{NextNodeID: c.NodeID}

	case dialogue.EndDialogue:
		return Outcome{EndSession: true}

	case dialogue.SkillCheck:
		return e.skillCheck(c, log)

	case dialogue.StartQuest:
		e.c.Quests.StartQuest(c.QuestID)
		e.c.Journal.AddJournalEntry(fmt.Sprintf("Quest started: %s", e.questTitle(c.QuestID)), world.EntryQuest)
		log.Info("Quest started", "quest", c.QuestID)
		return Outcome{}

	case dialogue.AdvanceQuest:
		e.c.Quests.AdvanceQuest(c.QuestID)
		e.c.Journal.AddJournalEntry(fmt.Sprintf("Quest updated: %s", e.questTitle(c.QuestID)), world.EntryQuest)
		log.Info("Quest advanced", "quest", c.QuestID)
		return Outcome{}

	case dialogue.CompleteQuest:
		e.c.Quests.CompleteQuest(c.QuestID)
		e.c.Journal.AddJournalEntry(fmt.Sprintf("Quest completed: %s", e.questTitle(c.QuestID)), world.EntryQuest)
		if c.QuestID == waterDebtQuest {
			e.giveItem(waterDebtRewardFor(pos), 1)
		}
		log.Info("Quest completed", "quest", c.QuestID)
		return Outcome{Scheduled: &Transition{Delay: QuestCompleteEndDelay, End: true}}

	case dialogue.FailQuest:
		e.c.Quests.FailQuest(c.QuestID)
		e.c.Journal.AddJournalEntry(fmt.Sprintf("Quest failed: %s", e.questTitle(c.QuestID)), world.EntryQuest)
		log.Info("Quest failed", "quest", c.QuestID)
		return Outcome{}

	case dialogue.GiveItem:
		e.giveItem(c.ItemID, c.Qty)
		return Outcome{}

	case dialogue.TakeItem:
		if !e.c.Inventory.RemoveItem(c.ItemID, c.Qty) {
			log.Warn("Item not held, nothing taken", "item", c.ItemID, "qty", c.Qty)
			return Outcome{}
		}
		if IsEchoItem(c.ItemID) {
			e.c.World.SetFlag(echoFlag(c.ItemID))
			log.Info("Echo item returned", "item", c.ItemID)
			return Outcome{NextNodeID: echoRewardNode(c.ItemID)}
		}
		return Outcome{}

	case dialogue.AlignmentChange:
		e.c.Character.ChangeAlignment(c.Axis, c.Amount)
		log.Debug("Alignment changed", "axis", c.Axis, "amount", c.Amount)
		return Outcome{}

	case dialogue.AddXP:
		e.c.Character.AddXP(c.Amount)
		e.c.Journal.AddJournalEntry(fmt.Sprintf("Gained %d XP", c.Amount), world.EntryInfo)
		return Outcome{Scheduled: &Transition{Delay: XPEndDelay, End: true}}

	case dialogue.LearnRecipe:
		e.consume(recipeItem, log)
		e.c.Character.LearnRecipe(c.RecipeID)
		e.c.World.SetFlag(recipeFlag(c.RecipeID))
		e.c.Journal.AddJournalEntry(fmt.Sprintf("Learned recipe: %s", c.RecipeID), world.EntryDiscovery)
		return Outcome{Scheduled: &Transition{Delay: RewardEndDelay, End: true}}

	case dialogue.UpgradeArmor:
		upgrade, ok := armorUpgradeFor(c.Slot)
		if !ok {
			log.Warn("No armor upgrade for slot", "slot", c.Slot)
			return Outcome{}
		}
		e.consume(upgrade.item, log)
		e.c.Character.UpgradeEquippedArmor(c.Slot, c.DefenseBonus, c.StatusResistance)
		e.c.World.SetFlag(upgrade.flag)
		e.c.Journal.AddJournalEntry(fmt.Sprintf("Armor upgraded: %s +%d", c.Slot, c.DefenseBonus), world.EntryInfo)
		return Outcome{Scheduled: &Transition{Delay: RewardEndDelay, End: true}}

	case dialogue.RevealMapPOI:
		e.consume(mapItem, log)
		e.c.World.RevealPOI(world.POI{Position: world.Point{X: c.X, Y: c.Y}, Name: c.Name})
		e.c.World.SetFlag(poiFlag(c.X, c.Y))
		e.c.Character.AddXP(mapPOIXP)
		e.c.Journal.AddJournalEntry(fmt.Sprintf("Map updated: %s at (%d,%d)", c.Name, c.X, c.Y), world.EntryDiscovery)
		return Outcome{Scheduled: &Transition{Delay: RewardEndDelay, End: true}}

	default:
		kind := "<nil>"
		if c != nil {
			kind = string(c.Kind())
		}
		log.Warn("Unknown consequence type, ignoring", "type", kind)
		return Outcome{}
	}
}

func (e *Executor) skillCheck(c dialogue.SkillCheck, log *slog.Logger) Outcome {
	res := e.resolver.PerformCheck(c.Skill, c.DC, e.c.Character.Attributes(), c.Bonus)

	next := c.FailureNode
	sound := SoundSkillFailure
	if res.Success {
		next = c.SuccessNode
		sound = SoundSkillSuccess
	}
	if res.IsCriticalSuccess || res.IsCriticalFailure {
		sound = SoundCritical
	}

	e.c.Journal.AddJournalEntry(res.String(), world.EntrySkillCheck)
	e.c.Audio.PlaySound(sound)
	log.Info("Skill check resolved",
		"skill", res.Skill,
		"roll", res.Roll,
		"total", res.Total,
		"dc", res.DC,
		"success", res.Success)

	return Outcome{
		SkillCheck: &res,
		Scheduled:  &Transition{Delay: SkillCheckDisplayDelay, NodeID: next},
	}
}

func (e *Executor) giveItem(itemID string, qty int) {
	e.c.Inventory.AddItem(itemID, qty)
	e.c.Audio.PlaySound(SoundItemPickup)
	if qty > 1 {
		e.c.Journal.AddJournalEntry(fmt.Sprintf("Received %s x%d", itemID, qty), world.EntryInfo)
	} else {
		e.c.Journal.AddJournalEntry(fmt.Sprintf("Received %s", itemID), world.EntryInfo)
	}
}

// consume removes one required item. A missing item is logged and the
// reward still applies.
func (e *Executor) consume(itemID string, log *slog.Logger) {
	if !e.c.Inventory.RemoveItem(itemID, 1) {
		log.Warn("Required item missing", "item", itemID)
	}
}
