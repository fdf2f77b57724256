// Package tui renders the board interactively and feeds key presses to the
// engine.
//
// Update is the only place the engine and its store are touched. A mutation
// commits in Update, its remote call runs as a tea.Cmd, and the resulting
// settledMsg is settled back in Update.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"kanban/internal/board"
	"kanban/internal/engine"
)

type loadedMsg struct {
	board board.Board
	err   error
}

type settledMsg struct {
	mutation *engine.Mutation
	outcome  engine.Outcome
}

// Model is the bubbletea model for the board view.
type Model struct {
	ctx    context.Context
	engine *engine.Engine
	keys   keyMap
	help   help.Model
	input  textinput.Model

	adding  bool
	loading bool
	card    int // selected card
	task    int // selected task, -1 on an empty card

	inFlight int
	status   string
	rollback string
}

// New returns a model driving e. Remote calls inherit ctx.
func New(ctx context.Context, e *engine.Engine) *Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "New task name..."
	ti.CharLimit = 200

	return &Model{
		ctx:     ctx,
		engine:  e,
		keys:    defaultKeys(),
		help:    help.New(),
		input:   ti,
		loading: true,
		task:    -1,
	}
}

// Init loads the board.
func (m *Model) Init() tea.Cmd {
	return m.load()
}

// InFlight returns the number of mutations awaiting their remote call.
func (m *Model) InFlight() int { return m.inFlight }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("load failed: %v", msg.err)
			return m, nil
		}
		m.engine.Install(msg.board)
		m.status = ""
		m.clamp()
		return m, nil

	case settledMsg:
		m.inFlight--
		if err := msg.mutation.Settle(msg.outcome); err != nil {
			m.rollback = fmt.Sprintf("%s rolled back: %v", msg.mutation.Op, err)
		}
		m.clamp()
		return m, nil

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			return m.updateAdding(msg)
		}
		return m.updateBoard(msg)
	}
	return m, nil
}

func (m *Model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		name := strings.TrimSpace(m.input.Value())
		if name == "" {
			m.status = "task name cannot be empty"
			return m, nil
		}
		m.stopAdding()
		card, ok := m.selectedCard()
		if !ok {
			return m, nil
		}
		return m, m.submit(m.engine.AddTask(card.ID, name))
	case "esc":
		m.stopAdding()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Left):
		m.moveCard(-1)
	case key.Matches(msg, m.keys.Right):
		m.moveCard(1)
	case key.Matches(msg, m.keys.Up):
		m.moveTask(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveTask(1)
	case key.Matches(msg, m.keys.Reload):
		m.loading = true
		return m, m.load()
	case key.Matches(msg, m.keys.Add):
		if _, ok := m.selectedCard(); !ok {
			return m, nil
		}
		m.adding = true
		m.status = ""
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Toggle):
		if card, ok := m.selectedTask(); ok {
			return m, m.submit(m.engine.ToggleTask(card.ID, card.Tasks[m.task].ID, m.task))
		}
	case key.Matches(msg, m.keys.Delete):
		if card, ok := m.selectedTask(); ok {
			return m, m.submit(m.engine.DeleteTask(card.ID, card.Tasks[m.task].ID, m.task))
		}
	}
	return m, nil
}

// submit returns the command performing the remote half of mu. The
// optimistic commit has already happened.
func (m *Model) submit(mu *engine.Mutation, err error) tea.Cmd {
	if err != nil {
		m.status = err.Error()
		return nil
	}
	m.clamp()
	m.inFlight++
	ctx := m.ctx
	return func() tea.Msg {
		return settledMsg{mutation: mu, outcome: mu.Call(ctx)}
	}
}

func (m *Model) load() tea.Cmd {
	ctx, e := m.ctx, m.engine
	return func() tea.Msg {
		b, err := e.Fetch(ctx)
		return loadedMsg{board: b, err: err}
	}
}

func (m *Model) stopAdding() {
	m.adding = false
	m.input.SetValue("")
	m.input.Blur()
}

func (m *Model) selectedCard() (board.Card, bool) {
	cards := m.engine.Board().Cards
	if m.card < 0 || m.card >= len(cards) {
		return board.Card{}, false
	}
	return cards[m.card], true
}

func (m *Model) selectedTask() (board.Card, bool) {
	card, ok := m.selectedCard()
	if !ok || m.task < 0 || m.task >= len(card.Tasks) {
		return board.Card{}, false
	}
	return card, true
}

func (m *Model) moveCard(delta int) {
	m.card += delta
	m.clamp()
}

func (m *Model) moveTask(delta int) {
	m.task += delta
	m.clamp()
}

// clamp keeps the cursor on the board after it changed shape.
func (m *Model) clamp() {
	cards := m.engine.Board().Cards
	if len(cards) == 0 {
		m.card, m.task = 0, -1
		return
	}
	m.card = max(0, min(m.card, len(cards)-1))
	n := len(cards[m.card].Tasks)
	if n == 0 {
		m.task = -1
		return
	}
	m.task = max(0, min(m.task, n-1))
}

func (m *Model) View() string {
	if m.loading && len(m.engine.Board().Cards) == 0 {
		return mutedStyle.Render("loading board...") + "\n"
	}

	var b strings.Builder
	cards := m.engine.Board().Cards
	if len(cards) == 0 {
		b.WriteString(mutedStyle.Render("no cards found"))
		b.WriteString("\n")
	} else {
		cols := make([]string, len(cards))
		for i, c := range cards {
			cols[i] = m.renderCard(i, c)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
		b.WriteString("\n")
	}

	if m.adding {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderCard(i int, c board.Card) string {
	var lines []string
	lines = append(lines, titleStyle.Render(c.Title)+" "+mutedStyle.Render("["+string(c.Status)+"]"))
	if len(c.Tasks) == 0 {
		lines = append(lines, mutedStyle.Render("(no tasks)"))
	}
	for j, t := range c.Tasks {
		box, name := boxOpen, t.Name
		if t.Done {
			box, name = boxChecked, doneStyle.Render(t.Name)
		}
		if t.ID.IsProvisional() {
			name += pendingStyle.Render(" …")
		}
		prefix := "  "
		if i == m.card && j == m.task {
			prefix = selectedStyle.Render("> ")
		}
		lines = append(lines, prefix+box+" "+name)
	}

	style := columnStyle
	if i == m.card {
		style = activeColumnStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (m *Model) statusLine() string {
	parts := []string{mutedStyle.Render(fmt.Sprintf("in flight: %d", m.inFlight))}
	if m.loading {
		parts = append(parts, mutedStyle.Render("loading"))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	if m.rollback != "" {
		parts = append(parts, errorStyle.Render(m.rollback))
	}
	return strings.Join(parts, "  ")
}
