package runner

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/narrative-engine/internal/game"
	"github.com/jwebster45206/narrative-engine/internal/handlers"
	"github.com/jwebster45206/narrative-engine/pkg/state"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner plays scripted cases against a running narrative-engine API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
	PCOverride        string // If set, overrides the PC for all test cases
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 30 * time.Second},
		Timeout:           10 * time.Second,
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a YAML file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := yaml.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse YAML in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// A sequence may reference another sequence
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite creates a fresh game, plays every step, and deletes the game.
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	pc := suite.PC
	if r.PCOverride != "" {
		pc = r.PCOverride
	}
	gameID, err := CreateGame(ctx, r.Client, r.BaseURL, pc)
	if err != nil {
		result.Error = fmt.Errorf("failed to create game: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.GameID = gameID
	defer func() {
		if err := DeleteGame(context.WithoutCancel(ctx), r.Client, r.BaseURL, gameID); err != nil {
			r.Logger("    cleanup of game %s failed: %v", gameID, err)
		}
	}()

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, gameID, step)
		stepResult.TestName = suite.Name
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// runStep executes a single step and checks its expectations
func (r *Runner) runStep(ctx context.Context, gameID uuid.UUID, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}
	finish := func(err error) TestResult {
		result.Error = err
		result.Success = err == nil
		result.Duration = time.Since(start)
		return result
	}

	if step.Action == ActionWait {
		within := step.Within
		if within <= 0 {
			within = r.Timeout
		}
		waitCtx, cancel := context.WithTimeout(ctx, within)
		defer cancel()
		_, err := PollForExpectations(waitCtx, r.Client, r.BaseURL, gameID, func(snap *game.Snapshot) error {
			return CheckExpectations(step.Expectations, http.StatusOK, snap)
		})
		result.Status = http.StatusOK
		return finish(err)
	}

	method, target, body, err := r.request(gameID, step)
	if err != nil {
		return finish(err)
	}

	stepCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	status, snap, err := Call(stepCtx, r.Client, method, target, body)
	result.Status = status
	if err != nil {
		return finish(err)
	}
	if err := CheckExpectations(step.Expectations, status, snap); err != nil {
		return finish(fmt.Errorf("expectation failed: %w", err))
	}
	return finish(nil)
}

// request maps a step onto the game API.
func (r *Runner) request(gameID uuid.UUID, step TestStep) (string, string, any, error) {
	switch step.Action {
	case ActionGet:
		return http.MethodGet, gameURL(r.BaseURL, gameID, ""), nil, nil
	case ActionStart:
		return http.MethodPost, gameURL(r.BaseURL, gameID, "/dialogue/start"),
			handlers.StartDialogueRequest{DialogueID: step.Dialogue, ReturnState: step.ReturnState}, nil
	case ActionSelect:
		index := step.Index
		return http.MethodPost, gameURL(r.BaseURL, gameID, "/dialogue/select"),
			handlers.SelectOptionRequest{Index: &index}, nil
	case ActionEnd:
		return http.MethodPost, gameURL(r.BaseURL, gameID, "/dialogue/end"), nil, nil
	case ActionMove:
		if step.To == nil {
			return "", "", nil, fmt.Errorf("move step %q has no target", step.Name)
		}
		return http.MethodPost, gameURL(r.BaseURL, gameID, "/move"),
			game.Move{To: *step.To, Biome: step.Biome, Weather: step.Weather}, nil
	case ActionTalk:
		return http.MethodPost, talkURL(r.BaseURL, gameID, step.NPC), nil, nil
	default:
		return "", "", nil, fmt.Errorf("unknown action %q", step.Action)
	}
}

// CheckExpectations validates a response against the step's expectations.
func CheckExpectations(exp Expectations, status int, snap *game.Snapshot) error {
	want := http.StatusOK
	if exp.Status != nil {
		want = *exp.Status
	}
	if status != want {
		return fmt.Errorf("expected status %d, got %d", want, status)
	}
	if snap == nil {
		if exp.needsSnapshot() {
			return fmt.Errorf("response carried no game state")
		}
		return nil
	}

	session := snap.Session
	if exp.Dialogue != nil && session.ActiveDialogueID != *exp.Dialogue {
		return fmt.Errorf("expected dialogue %q, got %q", *exp.Dialogue, session.ActiveDialogueID)
	}
	if exp.Node != nil && session.CurrentNodeID != *exp.Node {
		return fmt.Errorf("expected node %q, got %q", *exp.Node, session.CurrentNodeID)
	}
	if exp.Phase != nil && session.Phase.String() != *exp.Phase {
		return fmt.Errorf("expected phase %s, got %s", *exp.Phase, session.Phase)
	}
	if exp.NPCTextContains != "" && !strings.Contains(snap.NPCText, exp.NPCTextContains) {
		return fmt.Errorf("expected npc text to contain %q, got %q", exp.NPCTextContains, snap.NPCText)
	}
	if exp.OptionCount != nil && len(snap.Options) != *exp.OptionCount {
		return fmt.Errorf("expected %d options, got %d: %v", *exp.OptionCount, len(snap.Options), snap.Options)
	}
	if exp.Options != nil && !slices.Equal(snap.Options, exp.Options) {
		return fmt.Errorf("expected options %v, got %v", exp.Options, snap.Options)
	}

	player := snap.Player
	if exp.Screen != nil && player.Screen != *exp.Screen {
		return fmt.Errorf("expected screen %q, got %q", *exp.Screen, player.Screen)
	}
	if exp.Position != nil && player.Position != *exp.Position {
		return fmt.Errorf("expected position %v, got %v", *exp.Position, player.Position)
	}
	if exp.XP != nil && player.XP != *exp.XP {
		return fmt.Errorf("expected xp %d, got %d", *exp.XP, player.XP)
	}
	for item, qty := range exp.Inventory {
		if got := player.Inventory[item]; got != qty {
			return fmt.Errorf("expected %d of %s, got %d", qty, item, got)
		}
	}
	for quest, stage := range exp.Quests {
		got, ok := player.Quests[quest]
		if !ok {
			return fmt.Errorf("expected quest %s to be active", quest)
		}
		if got != stage {
			return fmt.Errorf("expected quest %s at stage %d, got %d", quest, stage, got)
		}
	}
	for _, quest := range exp.Completed {
		if !slices.Contains(player.Completed, quest) {
			return fmt.Errorf("expected quest %s to be completed, got %v", quest, player.Completed)
		}
	}

	for _, text := range exp.JournalContains {
		found := slices.ContainsFunc(snap.Journal, func(e state.JournalEntry) bool {
			return strings.Contains(e.Text, text)
		})
		if !found {
			return fmt.Errorf("expected a journal entry containing %q", text)
		}
	}
	return nil
}

func (e Expectations) needsSnapshot() bool {
	return e.Dialogue != nil || e.Node != nil || e.Phase != nil || e.NPCTextContains != "" ||
		e.OptionCount != nil || e.Options != nil || e.Screen != nil || e.Position != nil ||
		e.XP != nil || len(e.Inventory) > 0 || len(e.Quests) > 0 || len(e.Completed) > 0 ||
		len(e.JournalContains) > 0
}
