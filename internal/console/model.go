// Package console is the interactive maintenance menu started by
// "inventoryctl console".
package console

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JonMunkholm/inventory/internal/core"
)

// Model is the bubbletea model for the console.
type Model struct {
	ctx        context.Context
	runner     Runner
	purgeAfter time.Duration

	current *Menu
	cursor  int
	spinner spinner.Model
	busy    bool
	result  string
	err     error
	width   int
}

// New builds the console. purgeAfter is the age threshold offered by the
// purge action.
func New(ctx context.Context, runner Runner, purgeAfter time.Duration) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := &Model{
		ctx:        ctx,
		runner:     runner,
		purgeAfter: purgeAfter,
		spinner:    sp,
	}
	m.current = buildMenuTree(m)
	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		return m.handleKey(msg)

	case doneMsg:
		m.busy = false
		m.result, m.err = string(msg), nil

	case errMsg:
		m.busy = false
		m.result, m.err = "", msg.err

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.current.Items)-1 {
			m.cursor++
		}
	case "esc", "backspace":
		if m.current.Parent != nil {
			m.open(m.current.Parent)
		}
	case "enter", " ":
		return m.selectItem(m.current.Items[m.cursor])
	}
	return m, nil
}

func (m *Model) selectItem(item MenuItem) (tea.Model, tea.Cmd) {
	switch {
	case item.Label == quitLabel:
		return m, tea.Quit
	case item.Submenu != nil:
		m.open(item.Submenu)
	case item.Action != nil:
		m.busy = true
		m.result, m.err = "", nil
		return m, tea.Batch(m.spinner.Tick, item.Action())
	}
	return m, nil
}

func (m *Model) open(menu *Menu) {
	m.current = menu
	m.cursor = 0
	m.result, m.err = "", nil
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.current.Title))
	b.WriteString("\n")

	for i, item := range m.current.Items {
		cursor := " "
		label := menuItemStyle.Render(item.Label)
		if i == m.cursor {
			cursor = ">"
			label = selectedMenuItemStyle.Render(item.Label)
		}
		b.WriteString(cursor + " " + label + "\n")
	}

	switch {
	case m.busy:
		b.WriteString("\n" + m.spinner.View() + " working...\n")
	case m.err != nil:
		um := core.MapError(m.err)
		b.WriteString(errorStyle.Render("Error: "+um.Message) + "\n")
		if um.Action != "" {
			b.WriteString(helpStyle.Render(um.Action) + "\n")
		}
	case m.result != "":
		b.WriteString(resultStyle.Render(strings.TrimRight(m.result, "\n")) + "\n")
	}

	b.WriteString(helpStyle.Render("↑/↓ (j/k) navigate • enter select • esc back • q quit"))

	content := b.String()
	if m.width > 0 {
		content = lipgloss.NewStyle().MaxWidth(m.width).Render(content)
	}
	return content
}
