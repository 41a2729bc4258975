package runner

import (
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/pkg/world"
)

// Action is what a step asks the API to do.
type Action string

const (
	ActionGet    Action = "get"
	ActionStart  Action = "start"
	ActionSelect Action = "select"
	ActionEnd    Action = "end"
	ActionMove   Action = "move"
	ActionTalk   Action = "talk"
	// ActionWait polls the game until the step's expectations hold.
	ActionWait Action = "wait"
)

// TestSuite defines a complete integration test scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name  string     `yaml:"name"`
	PC    string     `yaml:"pc,omitempty"`    // Used for regular tests
	Steps []TestStep `yaml:"steps,omitempty"` // Used for regular tests
	Cases []string   `yaml:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single game command and its expected outcomes
type TestStep struct {
	Name   string `yaml:"name,omitempty"`
	Action Action `yaml:"action"`

	Dialogue    string       `yaml:"dialogue,omitempty"`
	ReturnState string       `yaml:"return_state,omitempty"`
	Index       int          `yaml:"index,omitempty"`
	To          *world.Point `yaml:"to,omitempty"`
	Biome       string       `yaml:"biome,omitempty"`
	Weather     string       `yaml:"weather,omitempty"`
	NPC         string       `yaml:"npc,omitempty"`

	// Within bounds a wait step. Zero uses the runner timeout.
	Within time.Duration `yaml:"within,omitempty"`

	Expectations Expectations `yaml:"expect"`
}

// Expectations defines what to check after a test step executes.
// Unset fields are not checked.
type Expectations struct {
	Status *int `yaml:"status,omitempty"` // HTTP status, 200 when unset

	// Dialogue session
	Dialogue        *string  `yaml:"dialogue,omitempty"` // "" means no active dialogue
	Node            *string  `yaml:"node,omitempty"`
	Phase           *string  `yaml:"phase,omitempty"`
	NPCTextContains string   `yaml:"npc_text_contains,omitempty"`
	OptionCount     *int     `yaml:"option_count,omitempty"`
	Options         []string `yaml:"options,omitempty"` // exact visible option texts, in order

	// Player
	Screen    *string        `yaml:"screen,omitempty"`
	Position  *world.Point   `yaml:"position,omitempty"`
	XP        *int           `yaml:"xp,omitempty"`
	Inventory map[string]int `yaml:"inventory,omitempty"` // listed items only; 0 means absent
	Quests    map[string]int `yaml:"quests,omitempty"`    // active quest stages
	Completed []string       `yaml:"completed,omitempty"`

	JournalContains []string `yaml:"journal_contains,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName string
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
	Status   int
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	GameID   uuid.UUID // ID of the game used for this test
}
