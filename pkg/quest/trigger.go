package quest

import (
	"log/slog"
	"sort"

	"github.com/jwebster45206/narrative-engine/pkg/world"
)

// Context is the world snapshot a trigger is evaluated against.
type Context struct {
	PlayerPosition world.Point
	// ReachedNodeID is the dialogue node just entered, or "" outside dialogue.
	ReachedNodeID string
}

// Evaluate reports whether ctx satisfies the stage's trigger. Unknown
// trigger types evaluate to false.
func Evaluate(stage Stage, ctx Context) bool {
	switch stage.Trigger.Type {
	case TriggerReachLocation:
		return ctx.PlayerPosition == stage.Trigger.Location
	case TriggerTalkToNPC:
		return ctx.ReachedNodeID != "" && ctx.ReachedNodeID == stage.Trigger.NodeID
	default:
		return false
	}
}

// Tracker advances active quests whose current stage trigger fires.
type Tracker struct {
	quests Collection
	ledger world.QuestLedger
	logger *slog.Logger
}

// NewTracker creates a tracker over the given definitions and ledger.
func NewTracker(quests Collection, ledger world.QuestLedger, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{quests: quests, ledger: ledger, logger: logger}
}

// Check evaluates the current stage of every active quest, advancing each
// quest whose trigger fires, and returns the advanced quest ids in sorted
// order. Only triggers of the given type are considered.
func (t *Tracker) Check(kind TriggerType, ctx Context) []string {
	active := t.ledger.ActiveQuests()
	ids := make([]string, 0, len(active))
	for id := range active {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var advanced []string
	for _, id := range ids {
		q, ok := t.quests.Get(id)
		if !ok {
			continue
		}
		stage, ok := q.StageFor(active[id])
		if !ok || stage.Trigger.Type != kind {
			continue
		}
		if Evaluate(stage, ctx) {
			t.ledger.AdvanceQuest(id)
			advanced = append(advanced, id)
			t.logger.Info("Quest stage triggered",
				"quest", id,
				"stage", stage.Stage,
				"trigger", string(kind))
		}
	}
	return advanced
}

// Title returns a display name for a quest id.
func (t *Tracker) Title(id string) string {
	return t.quests.Title(id)
}
