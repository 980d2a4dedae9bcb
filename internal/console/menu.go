package console

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/inventory/internal/admin"
	"github.com/JonMunkholm/inventory/internal/core"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

type MenuItem struct {
	Label   string
	Submenu *Menu
	Action  func() tea.Cmd
}

type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

const (
	backLabel = "Back"
	quitLabel = "Quit"
)

// linkParents wires every submenu to its parent and points "Back" items at
// the enclosing menu.
func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent

	for i := range menu.Items {
		item := &menu.Items[i]

		if item.Label == backLabel {
			item.Submenu = parent
			continue
		}

		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

/* ----------------------------------------
	MENU TREE DEFINITION
---------------------------------------- */

func buildMenuTree(m *Model) *Menu {
	purge := &Menu{
		Title: "Purge Deleted",
		Items: []MenuItem{
			{Label: fmt.Sprintf("Confirm: purge records deleted over %s ago", days(m.purgeAfter)), Action: m.purgeAction},
			{Label: backLabel},
		},
	}

	maintenance := &Menu{
		Title: "Maintenance",
		Items: []MenuItem{
			{Label: "Apply Migrations", Action: m.migrateAction},
			{Label: "Purge Deleted ->", Submenu: purge},
			{Label: backLabel},
		},
	}

	root := &Menu{
		Title: "Inventory Console",
		Items: []MenuItem{
			{Label: "Show Stats", Action: m.statsAction},
			{Label: "Maintenance ->", Submenu: maintenance},
			{Label: quitLabel},
		},
	}

	linkParents(root, nil)

	return root
}

func days(d time.Duration) string {
	return fmt.Sprintf("%d days", int(d.Hours()/24))
}

/* ----------------------------------------
	ACTIONS
---------------------------------------- */

// Runner is the set of maintenance tasks the console can trigger.
type Runner interface {
	Stats(ctx context.Context) (core.Stats, error)
	Purge(ctx context.Context, olderThan time.Duration) (map[string]int64, error)
	Migrate(ctx context.Context) ([]string, error)
}

type doneMsg string

type errMsg struct{ err error }


func (m *Model) statsAction() tea.Cmd {
	return func() tea.Msg {
		st, err := m.runner.Stats(m.ctx)
		if err != nil {
			return errMsg{err}
		}
		return doneMsg(admin.StatsSummary(st))
	}
}

func (m *Model) purgeAction() tea.Cmd {
	return func() tea.Msg {
		counts, err := m.runner.Purge(m.ctx, m.purgeAfter)
		if err != nil {
			return errMsg{err}
		}
		return doneMsg(admin.PurgeSummary(counts))
	}
}

func (m *Model) migrateAction() tea.Cmd {
	return func() tea.Msg {
		applied, err := m.runner.Migrate(m.ctx)
		if err != nil {
			return errMsg{err}
		}
		if len(applied) == 0 {
			return doneMsg("schema is up to date")
		}
		return doneMsg(fmt.Sprintf("applied %d migrations", len(applied)))
	}
}
