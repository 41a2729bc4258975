package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/narrative-engine/internal/game"
	"github.com/jwebster45206/narrative-engine/pkg/skillcheck"
	"github.com/jwebster45206/narrative-engine/pkg/world"
	"github.com/muesli/reflow/wordwrap"
)

const (
	// pollInterval is how often the UI refreshes to pick up timer-driven
	// changes such as skill check outcomes and random events.
	pollInterval = 500 * time.Millisecond
	maxOptions   = 9
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	api          *APIClient
	game         *game.Snapshot
	chatViewport viewport.Model
	metaViewport viewport.Model
	ready        bool
	width        int
	height       int
	busy         bool
	status       string
	err          error

	// Transcript state
	transcript []string
	lastNode   string
	lastCheck  *skillcheck.Result
	lastEntry  time.Time

	// Quit confirmation state
	showQuitModal bool
}

type snapshotMsg struct {
	snap *game.Snapshot
	said string
	poll bool
	err  error
}

type pollMsg struct{}

type copiedMsg struct {
	lines int
	err   error
}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(3)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

// directions maps movement keys to tile offsets. Up is north, y-1.
var directions = map[string]world.Point{
	"up":    {X: 0, Y: -1},
	"w":     {X: 0, Y: -1},
	"down":  {X: 0, Y: 1},
	"s":     {X: 0, Y: 1},
	"left":  {X: -1, Y: 0},
	"a":     {X: -1, Y: 0},
	"right": {X: 1, Y: 0},
	"d":     {X: 1, Y: 0},
}

func NewConsoleUI(api *APIClient, snap *game.Snapshot) ConsoleUI {
	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true
	metaVp := viewport.New(20, 20)

	m := ConsoleUI{
		api:          api,
		chatViewport: chatVp,
		metaViewport: metaVp,
	}
	m.absorb(snap, "")
	return m
}

// absorb records what changed between the previous snapshot and snap in
// the transcript, then makes snap current.
func (m *ConsoleUI) absorb(snap *game.Snapshot, said string) {
	if snap == nil {
		return
	}
	prev := m.game

	if said != "" {
		m.transcript = append(m.transcript, "You: "+said)
	}

	if check := snap.Session.SkillCheck; check != nil && (m.lastCheck == nil || *m.lastCheck != *check) {
		m.transcript = append(m.transcript, "[Skill check] "+check.String())
		c := *check
		m.lastCheck = &c
	}

	node := ""
	if snap.Session.ActiveDialogueID != "" {
		node = snap.Session.ActiveDialogueID + "/" + snap.Session.CurrentNodeID
	}
	if node != "" && node != m.lastNode && snap.NPCText != "" {
		m.transcript = append(m.transcript, fmt.Sprintf("%s: %s", snap.NPCName, snap.NPCText))
	}
	if node == "" && prev != nil && prev.Session.ActiveDialogueID != "" {
		m.transcript = append(m.transcript, "(The conversation ends.)")
	}
	m.lastNode = node

	// Journal entries arrive oldest first.
	for _, e := range snap.Journal {
		if e.At.After(m.lastEntry) {
			if prev != nil {
				m.transcript = append(m.transcript, "* "+e.Text)
			}
			m.lastEntry = e.At
		}
	}

	m.game = snap
}

func (m *ConsoleUI) writeChatContent() {
	width := m.chatViewport.Width - 6
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("NARRATIVE ENGINE") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	for _, line := range m.transcript {
		content.WriteString(formatLine(line, width) + "\n\n")
	}

	if opts := renderOptions(m.game, width); opts != "" {
		content.WriteString(opts + "\n")
	}
	if m.err != nil {
		content.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func formatLine(line string, width int) string {
	wrapped := wordwrap.String(line, width)
	switch {
	case strings.HasPrefix(line, "You: "):
		return userStyle.Render("You:") + strings.TrimPrefix(wrapped, "You:")
	case strings.HasPrefix(line, "* "), strings.HasPrefix(line, "[Skill check]"), strings.HasPrefix(line, "("):
		return systemStyle.Render(wrapped)
	}
	if idx := strings.Index(wrapped, ":"); idx > 0 && idx <= 30 {
		return speakerStyle.Render(wrapped[:idx+1]) + wrapped[idx+1:]
	}
	return wrapped
}

// renderOptions lists the selectable options. Empty outside dialogue.
func renderOptions(snap *game.Snapshot, width int) string {
	if snap == nil || snap.Session.ActiveDialogueID == "" {
		return ""
	}
	if snap.Session.SkillCheck != nil && len(snap.Options) == 0 {
		return promptStyle.Render("Rolling...")
	}
	var b strings.Builder
	for i, opt := range snap.Options {
		if i == maxOptions {
			break
		}
		b.WriteString(wordwrap.String(fmt.Sprintf("%d. %s", i+1, opt), width) + "\n")
	}
	return b.String()
}

func writeMetadata(snap *game.Snapshot) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("GAME STATE") + "\n\n")
	if snap == nil {
		return content.String()
	}
	p := snap.Player

	content.WriteString("Game ID:\n")
	content.WriteString(snap.GameID.String()[:8] + "...\n\n")

	content.WriteString(fmt.Sprintf("%s  Lv %d\n", p.Name, p.Level))
	content.WriteString(fmt.Sprintf("HP %d/%d  AC %d  XP %d\n\n", p.HP, p.MaxHP, p.AC, p.XP))

	content.WriteString(fmt.Sprintf("Position: %s\n", p.Position))
	if p.Biome != "" {
		content.WriteString(fmt.Sprintf("Biome: %s\n", p.Biome))
	}
	if p.Weather != "" {
		content.WriteString(fmt.Sprintf("Weather: %s\n", p.Weather))
	}
	content.WriteString(fmt.Sprintf("Screen: %s\n\n", p.Screen))

	if len(snap.Nearby) > 0 {
		content.WriteString("Nearby:\n")
		for _, npc := range snap.Nearby {
			content.WriteString(fmt.Sprintf("• %s\n", npc.Name))
		}
		content.WriteString("\n")
	}

	content.WriteString("Inventory:\n")
	if len(p.Inventory) == 0 {
		content.WriteString("Empty\n")
	}
	for _, id := range slices.Sorted(maps.Keys(p.Inventory)) {
		content.WriteString(fmt.Sprintf("• %s x%d\n", id, p.Inventory[id]))
	}

	content.WriteString("\nQuests:\n")
	if len(p.Quests) == 0 {
		content.WriteString("None active\n")
	}
	for _, id := range slices.Sorted(maps.Keys(p.Quests)) {
		content.WriteString(fmt.Sprintf("• %s (stage %d)\n", id, p.Quests[id]))
	}

	content.WriteString("\nCommands:\n")
	content.WriteString("• 1-9: Choose option\n")
	content.WriteString("• Arrows/WASD: Move\n")
	content.WriteString("• t: Talk  e: End\n")
	content.WriteString("• c: Copy transcript\n")
	content.WriteString("• Esc: Quit\n")

	return content.String()
}

func (m ConsoleUI) Init() tea.Cmd {
	return poll()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.7) - 4
		metaWidth := m.width - chatWidth - 6
		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 4
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 2
		m.ready = true

		m.writeChatContent()
		m.metaViewport.SetContent(writeMetadata(m.game))

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			m.showQuitModal = true
			return m, nil
		}
		if cmd, handled := m.handleKey(msg.String()); handled {
			return m, cmd
		}

	case snapshotMsg:
		if msg.poll && m.busy {
			return m, nil
		}
		m.busy = false
		var apiErr *APIError
		if errors.As(msg.err, &apiErr) && apiErr.Game != nil {
			m.absorb(apiErr.Game, "")
		}
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.absorb(msg.snap, msg.said)
		}
		m.writeChatContent()
		m.metaViewport.SetContent(writeMetadata(m.game))
		return m, nil

	case pollMsg:
		if m.busy || m.game == nil {
			return m, poll()
		}
		return m, tea.Batch(m.refresh(), poll())

	case copiedMsg:
		if msg.err != nil {
			m.status = "Copy failed: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("Copied %d lines", msg.lines)
		}
		return m, nil
	}

	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(vpCmd, mvCmd)
}

// handleKey maps a key to a game command. It reports false for keys the
// viewports should handle.
func (m *ConsoleUI) handleKey(key string) (tea.Cmd, bool) {
	if key == "c" {
		return copyTranscript(m.transcript), true
	}
	if m.busy || m.game == nil {
		return nil, false
	}
	api, id := m.api, m.game.GameID
	inDialogue := m.game.Session.ActiveDialogueID != ""

	switch {
	case len(key) == 1 && key[0] >= '1' && key[0] <= '9':
		i := int(key[0] - '1')
		if !inDialogue || i >= len(m.game.Options) {
			return nil, true
		}
		said := m.game.Options[i]
		return m.send(said, func(ctx context.Context) (*game.Snapshot, error) {
			return api.SelectOption(ctx, id, i)
		}), true

	case key == "e":
		if !inDialogue {
			return nil, true
		}
		return m.send("", func(ctx context.Context) (*game.Snapshot, error) {
			return api.EndDialogue(ctx, id)
		}), true

	case key == "t":
		if inDialogue || len(m.game.Nearby) == 0 {
			return nil, true
		}
		npc := m.game.Nearby[0]
		return m.send("", func(ctx context.Context) (*game.Snapshot, error) {
			return api.Talk(ctx, id, npc.ID)
		}), true
	}

	if d, ok := directions[key]; ok && !inDialogue {
		pos := m.game.Player.Position
		to := world.Point{X: pos.X + d.X, Y: pos.Y + d.Y}
		return m.send("", func(ctx context.Context) (*game.Snapshot, error) {
			return api.Move(ctx, id, to)
		}), true
	}
	return nil, false
}

func (m *ConsoleUI) send(said string, call func(context.Context) (*game.Snapshot, error)) tea.Cmd {
	m.busy = true
	m.status = ""
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		snap, err := call(ctx)
		return snapshotMsg{snap: snap, said: said, err: err}
	}
}

func (m ConsoleUI) refresh() tea.Cmd {
	api, id := m.api, m.game.GameID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		snap, err := api.GetGame(ctx, id)
		return snapshotMsg{snap: snap, poll: true, err: err}
	}
}

func poll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return pollMsg{}
	})
}

func copyTranscript(lines []string) tea.Cmd {
	text := strings.Join(lines, "\n")
	return func() tea.Msg {
		return copiedMsg{lines: len(lines), err: clipboard.WriteAll(text)}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Your game is saved on the server. Resume it with:\n")
	content.WriteString("console " + m.game.GameID.String())
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - chatWidth - 6

	status := m.status
	if m.busy {
		status = "..."
	}

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			promptStyle.Render(status),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 1).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}
