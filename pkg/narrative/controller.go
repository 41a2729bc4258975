// Package narrative runs dialogue sessions: it tracks the active tree and
// node, applies the consequences of chosen options to the game's
// collaborators and paces delayed transitions through a scheduler.
package narrative

import (
	"fmt"
	"log/slog"

	"github.com/jwebster45206/narrative-engine/pkg/dialogue"
	"github.com/jwebster45206/narrative-engine/pkg/scheduler"
	"github.com/jwebster45206/narrative-engine/pkg/skillcheck"
	"github.com/jwebster45206/narrative-engine/pkg/world"
)

// DialogueScreen is the screen shown while a session is active.
const DialogueScreen = "dialogue"

// Phase is the controller's state machine position.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
	PhaseAwaitingSkillCheck
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseActive:
		return "active"
	case PhaseAwaitingSkillCheck:
		return "awaiting_skill_check"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase name written by MarshalText.
func (p *Phase) UnmarshalText(text []byte) error {
	for _, candidate := range []Phase{PhaseIdle, PhaseActive, PhaseAwaitingSkillCheck} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// SessionState is the read-only view of the dialogue session. An idle
// session has empty ids.
type SessionState struct {
	ActiveDialogueID string             `json:"activeDialogueId"`
	CurrentNodeID    string             `json:"currentNodeId"`
	ReturnState      string             `json:"returnState,omitempty"`
	SkillCheck       *skillcheck.Result `json:"skillCheckResult,omitempty"`
	Phase            Phase              `json:"phase"`
	Generation       uint64             `json:"generation"`
}

// Observer is told about session changes after they are applied.
type Observer interface {
	DialogueStarted(treeID, nodeID string)
	NodeChanged(treeID, nodeID string)
	SkillCheckResolved(treeID string, result skillcheck.Result)
	DialogueEnded(treeID, returnState string)
}

// StartOption customizes StartDialogue.
type StartOption func(*startConfig)

type startConfig struct {
	returnState string
	hasReturn   bool
}

// WithReturnState overrides the screen restored when the session ends.
func WithReturnState(screen string) StartOption {
	return func(c *startConfig) {
		c.returnState = screen
		c.hasReturn = true
	}
}

// Controller owns the single dialogue session. It must only be used from
// the goroutine that drives its scheduler.
type Controller struct {
	trees    dialogue.Collection
	c        *world.Collaborators
	exec     *Executor
	sched    *scheduler.Scheduler
	gen      scheduler.Generation
	session  SessionState
	observer Observer
	logger   *slog.Logger
}

// NewController creates an idle controller.
func NewController(trees dialogue.Collection, c *world.Collaborators, exec *Executor, sched *scheduler.Scheduler, logger *slog.Logger) (*Controller, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if exec == nil {
		return nil, fmt.Errorf("executor cannot be nil")
	}
	if sched == nil {
		return nil, fmt.Errorf("scheduler cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		trees:  trees,
		c:      c,
		exec:   exec,
		sched:  sched,
		logger: logger,
	}, nil
}

// SetObserver registers an observer. nil removes it.
func (ctl *Controller) SetObserver(o Observer) {
	ctl.observer = o
}

// State returns a copy of the session state.
func (ctl *Controller) State() SessionState {
	s := ctl.session
	if s.SkillCheck != nil {
		res := *s.SkillCheck
		s.SkillCheck = &res
	}
	s.Generation = ctl.gen.Current()
	return s
}

// Phase returns where the session is in its lifecycle.
func (ctl *Controller) Phase() Phase {
	return ctl.session.Phase
}

// Active reports whether a session is running.
func (ctl *Controller) Active() bool {
	return ctl.session.Phase != PhaseIdle
}

// CurrentTree returns the active tree.
func (ctl *Controller) CurrentTree() (*dialogue.Tree, bool) {
	if !ctl.Active() {
		return nil, false
	}
	return ctl.trees.Get(ctl.session.ActiveDialogueID)
}

// CurrentNode returns the node the session is on.
func (ctl *Controller) CurrentNode() (*dialogue.Node, bool) {
	tree, ok := ctl.CurrentTree()
	if !ok {
		return nil, false
	}
	return tree.Node(ctl.session.CurrentNodeID)
}

// VisibleOptions returns the options of the current node the player may
// choose from. It is empty while idle.
func (ctl *Controller) VisibleOptions() []dialogue.Option {
	node, ok := ctl.CurrentNode()
	if !ok {
		return nil
	}
	return dialogue.VisibleOptions(node, StateView(ctl.c))
}

// StartDialogue opens the tree with the given id at its start node. A
// running session is replaced. When the id is unknown the call logs, adds
// an error journal entry and leaves the session as it was.
func (ctl *Controller) StartDialogue(id string, opts ...StartOption) bool {
	tree, ok := ctl.trees.Get(id)
	if !ok {
		ctl.logger.Error("Dialogue not found", "dialogue_id", id)
		ctl.c.Journal.AddJournalEntry(fmt.Sprintf("Dialogue not found: %s", id), world.EntryError)
		return false
	}
	if _, ok := tree.Node(tree.StartNodeID); !ok {
		ctl.logger.Error("Dialogue start node not found", "dialogue_id", id, "node_id", tree.StartNodeID)
		ctl.c.Journal.AddJournalEntry(fmt.Sprintf("Dialogue not found: %s", id), world.EntryError)
		return false
	}

	cfg := startConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	returnState := cfg.returnState
	if ctl.Active() {
		// A replaced session hands its return screen to the new one.
		if !cfg.hasReturn {
			returnState = ctl.session.ReturnState
		}
		ctl.logger.Info("Replacing active dialogue", "old_dialogue_id", ctl.session.ActiveDialogueID, "dialogue_id", id)
	} else if !cfg.hasReturn {
		returnState = ctl.c.World.CurrentScreen()
	}

	gen := ctl.gen.Bump()
	ctl.session = SessionState{
		ActiveDialogueID: id,
		CurrentNodeID:    tree.StartNodeID,
		ReturnState:      returnState,
		Phase:            PhaseActive,
	}
	ctl.c.World.SetScreen(DialogueScreen)

	ctl.logger.Info("Dialogue started",
		"dialogue_id", id,
		"node_id", tree.StartNodeID,
		"generation", gen)
	if ctl.observer != nil {
		ctl.observer.DialogueStarted(id, tree.StartNodeID)
	}
	ctl.exec.ReachNode(tree.StartNodeID)
	return true
}

// SelectOption executes the consequence of the index-th visible option.
// Out-of-range indexes and calls outside the active phase do nothing.
func (ctl *Controller) SelectOption(index int) bool {
	if ctl.session.Phase != PhaseActive {
		ctl.logger.Debug("Option ignored, session not accepting input", "phase", ctl.session.Phase.String(), "index", index)
		return false
	}
	visible := ctl.VisibleOptions()
	if index < 0 || index >= len(visible) {
		ctl.logger.Warn("Option index out of range",
			"dialogue_id", ctl.session.ActiveDialogueID,
			"node_id", ctl.session.CurrentNodeID,
			"index", index,
			"visible", len(visible))
		return false
	}

	opt := visible[index]
	pos := Position{
		TreeID:      ctl.session.ActiveDialogueID,
		NodeID:      ctl.session.CurrentNodeID,
		OptionIndex: index,
	}
	out := ctl.exec.Execute(opt.Consequence, pos)
	ctl.apply(out)
	return true
}

// EndDialogue closes the session, restores the return screen and
// invalidates every pending delayed transition. It is a no-op while idle.
func (ctl *Controller) EndDialogue() {
	if !ctl.Active() {
		return
	}
	treeID := ctl.session.ActiveDialogueID
	returnState := ctl.session.ReturnState

	gen := ctl.gen.Bump()
	ctl.session = SessionState{}
	if returnState != "" {
		ctl.c.World.SetScreen(returnState)
	}

	ctl.logger.Info("Dialogue ended",
		"dialogue_id", treeID,
		"return_state", returnState,
		"generation", gen)
	if ctl.observer != nil {
		ctl.observer.DialogueEnded(treeID, returnState)
	}
}

func (ctl *Controller) apply(out Outcome) {
	switch {
	case out.EndSession:
		ctl.EndDialogue()
		return
	case out.NextNodeID != "":
		ctl.moveTo(out.NextNodeID)
	}

	if out.SkillCheck != nil {
		ctl.session.SkillCheck = out.SkillCheck
		ctl.session.Phase = PhaseAwaitingSkillCheck
		if ctl.observer != nil {
			ctl.observer.SkillCheckResolved(ctl.session.ActiveDialogueID, *out.SkillCheck)
		}
	}

	if t := out.Scheduled; t != nil {
		ctl.schedule(*t)
	}
}

// moveTo navigates to a node of the active tree. A missing node is logged
// and the session stays where it is.
func (ctl *Controller) moveTo(nodeID string) bool {
	tree, ok := ctl.CurrentTree()
	if !ok {
		return false
	}
	if _, ok := tree.Node(nodeID); !ok {
		ctl.logger.Error("Dialogue node not found",
			"dialogue_id", tree.ID,
			"node_id", nodeID)
		return false
	}
	ctl.session.CurrentNodeID = nodeID
	ctl.session.SkillCheck = nil
	ctl.session.Phase = PhaseActive
	if ctl.observer != nil {
		ctl.observer.NodeChanged(ctl.session.ActiveDialogueID, nodeID)
	}
	ctl.exec.ReachNode(nodeID)
	return true
}

func (ctl *Controller) schedule(t Transition) {
	label := "auto-end"
	if !t.End {
		label = "transition:" + t.NodeID
	}
	ctl.sched.After(t.Delay, ctl.gen.Stamp(), label, func() {
		if t.End {
			ctl.EndDialogue()
			return
		}
		if !ctl.moveTo(t.NodeID) && ctl.session.Phase == PhaseAwaitingSkillCheck {
			// Broken target: drop the result so input is accepted again.
			ctl.session.SkillCheck = nil
			ctl.session.Phase = PhaseActive
		}
	})
}
