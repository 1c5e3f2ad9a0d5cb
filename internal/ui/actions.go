package ui

import (
	"context"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"shelfwatch/internal/report"
	"shelfwatch/internal/risk"
)

type actionID string

const (
	actionQuit           actionID = "quit"
	actionCursorUp       actionID = "cursor_up"
	actionCursorDown     actionID = "cursor_down"
	actionAddItem        actionID = "add_item"
	actionDeleteItem     actionID = "delete_item"
	actionAddCategory    actionID = "add_category"
	actionDeleteCategory actionID = "delete_category"
	actionNextFilter     actionID = "next_filter"
	actionPrevFilter     actionID = "prev_filter"
	actionRefresh        actionID = "refresh"
	actionExport         actionID = "export"
)

// keyActions is the dispatch table: the single place that says which key
// triggers which dashboard action.
func (m Model) keyActions() map[string]actionID {
	k := m.cfg.Keys
	return map[string]actionID{
		k.Quit:           actionQuit,
		"ctrl+c":         actionQuit,
		k.Up:             actionCursorUp,
		"up":             actionCursorUp,
		k.Down:           actionCursorDown,
		"down":           actionCursorDown,
		k.AddItem:        actionAddItem,
		k.DeleteItem:     actionDeleteItem,
		k.AddCategory:    actionAddCategory,
		k.DeleteCategory: actionDeleteCategory,
		k.NextFilter:     actionNextFilter,
		k.PrevFilter:     actionPrevFilter,
		k.Refresh:        actionRefresh,
		k.Export:         actionExport,
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch m.mode {
	case modeNotice:
		m.mode = modeDashboard
		m.notice = ""
		return m, nil
	case modeConfirm:
		return m.updateConfirm(key)
	case modeAddItem:
		return m.updateAddItem(key, msg)
	case modeAddCategory:
		return m.updateAddCategory(key, msg)
	}

	id, ok := m.keyActions()[key]
	if !ok {
		return m, nil
	}
	return m.applyAction(id)
}

func (m Model) applyAction(id actionID) (tea.Model, tea.Cmd) {
	switch id {
	case actionQuit:
		return m, tea.Quit

	case actionCursorUp:
		m.cursor = clampCursor(m.cursor-1, len(m.visibleItems()))
		return m, nil

	case actionCursorDown:
		m.cursor = clampCursor(m.cursor+1, len(m.visibleItems()))
		return m, nil

	case actionAddItem:
		if m.busy {
			return m, nil
		}
		return m.openAddItem()

	case actionDeleteItem:
		if m.busy {
			return m, nil
		}
		return m.requestDeleteItem()

	case actionAddCategory:
		if m.busy {
			return m, nil
		}
		m.mode = modeAddCategory
		m.input.SetValue("")
		m.input.Placeholder = "Category name"
		m.input.Focus()
		m.status = "New category: type a name and press Enter"
		return m, nil

	case actionDeleteCategory:
		if m.busy {
			return m, nil
		}
		return m.requestDeleteCategory()

	case actionNextFilter:
		return m.shiftFilter(1)

	case actionPrevFilter:
		return m.shiftFilter(-1)

	case actionRefresh:
		m2, invCmd := m.startInventoryRead()
		m2.status = "Syncing…"
		return m2, tea.Batch(m2.fetchCategories(false), invCmd)

	case actionExport:
		return m, m.exportReport()
	}
	return m, nil
}

// shiftFilter is the one action not gated by the busy lock: it is a pure
// local state change re-rendered from the cached snapshot.
func (m Model) shiftFilter(delta int) (tea.Model, tea.Cmd) {
	names := m.filterNames()
	cur := 0
	for i, n := range names {
		if n == m.active {
			cur = i
			break
		}
	}
	next := names[((cur+delta)%len(names)+len(names))%len(names)]
	if next == m.active {
		return m, nil
	}
	m.active = next
	m.cursor = clampCursor(m.cursor, len(m.visibleItems()))
	m.status = "Filter: " + next
	return m, nil
}

func (m Model) openAddItem() (tea.Model, tea.Cmd) {
	category := m.active
	if category == risk.CategoryAll {
		category = "General"
	}
	m.add = &addState{category: category}
	m.mode = modeAddItem
	m.input.SetValue("")
	m.input.Placeholder = addItemFields()[0]
	m.input.Focus()
	m.status = "New item: Enter advances, Esc cancels"
	return m, nil
}

func addItemFields() []string {
	return []string{"name", "expiry date (YYYY-MM-DD)", "category"}
}

func (as addState) value(index int) string {
	switch index {
	case 0:
		return as.name
	case 1:
		return as.date
	case 2:
		return as.category
	default:
		return ""
	}
}

func (as *addState) setValue(index int, v string) {
	switch index {
	case 0:
		as.name = v
	case 1:
		as.date = v
	case 2:
		as.category = v
	}
}

func (m Model) updateAddItem(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.add = nil
		m.mode = modeDashboard
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		if m.add == nil {
			return m, nil
		}
		m.add.setValue(m.add.index, m.input.Value())
		if m.add.index < len(addItemFields())-1 {
			m.add.index++
			m.input.SetValue(m.add.value(m.add.index))
			m.input.Placeholder = addItemFields()[m.add.index]
			return m, nil
		}
		return m.submitAddItem()
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

// submitAddItem validates locally before any network call: an empty name or a
// bad date blocks silently (the modal stays open, nothing is sent).
func (m Model) submitAddItem() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	name := strings.TrimSpace(m.add.name)
	if name == "" {
		m.add.index = 0
		m.input.SetValue(m.add.name)
		m.input.Placeholder = addItemFields()[0]
		m.status = "Name is required"
		return m, nil
	}
	date := strings.TrimSpace(m.add.date)
	if _, err := time.Parse("2006-01-02", date); err != nil {
		m.add.index = 1
		m.input.SetValue(m.add.date)
		m.input.Placeholder = addItemFields()[1]
		m.status = "Expiry date must be YYYY-MM-DD"
		return m, nil
	}
	category := strings.TrimSpace(m.add.category)
	if category == "" {
		category = "General"
	}

	m.busy = true
	m.status = "Saving…"
	backend := m.backend
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		err := backend.AddItem(context.Background(), name, date, category)
		return mutationMsg{action: actionAddItem, detail: name, err: err}
	})
}

func (m Model) updateAddCategory(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.mode = modeDashboard
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		if m.busy {
			return m, nil
		}
		name := strings.TrimSpace(m.input.Value())
		if name == "" {
			m.status = "Category name is required"
			return m, nil
		}
		m.busy = true
		m.status = "Saving…"
		backend := m.backend
		return m, tea.Batch(m.spin.Tick, func() tea.Msg {
			err := backend.AddCategory(context.Background(), name)
			return mutationMsg{action: actionAddCategory, detail: name, err: err}
		})
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) requestDeleteItem() (tea.Model, tea.Cmd) {
	items := m.visibleItems()
	if len(items) == 0 {
		m.status = "Nothing to delete"
		return m, nil
	}
	vm := items[clampCursor(m.cursor, len(items))]
	if vm.Status == risk.StatusExpired {
		// Expired items are locked from normal deletion.
		m.status = "DO NOT USE — expired items cannot be deleted here"
		return m, nil
	}
	m.confirm = &confirmState{
		prompt: "Delete \"" + vm.Name + "\"?",
		action: actionDeleteItem,
		itemID: vm.ID,
		name:   vm.Name,
	}
	m.mode = modeConfirm
	return m, nil
}

func (m Model) requestDeleteCategory() (tea.Model, tea.Cmd) {
	if m.active == risk.CategoryAll {
		m.status = "Select a category filter first"
		return m, nil
	}
	for _, c := range m.categories {
		if c.Name == m.active && c.Type == "system" {
			m.status = "System categories cannot be deleted"
			return m, nil
		}
	}
	m.confirm = &confirmState{
		prompt: "Delete category \"" + m.active + "\"? Its items move to General.",
		action: actionDeleteCategory,
		name:   m.active,
	}
	m.mode = modeConfirm
	return m, nil
}

func (m Model) updateConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel, "esc":
		m.confirm = nil
		m.mode = modeDashboard
		m.status = "Cancelled"
		return m, nil
	case "y", "Y", m.cfg.Keys.Confirm, "enter":
		if m.confirm == nil || m.busy {
			return m, nil
		}
		c := *m.confirm
		m.confirm = nil
		m.mode = modeDashboard
		m.busy = true
		m.status = "Working…"
		backend := m.backend
		switch c.action {
		case actionDeleteItem:
			return m, tea.Batch(m.spin.Tick, func() tea.Msg {
				err := backend.DeleteItem(context.Background(), c.itemID)
				return mutationMsg{action: actionDeleteItem, detail: c.name, err: err}
			})
		case actionDeleteCategory:
			return m, tea.Batch(m.spin.Tick, func() tea.Msg {
				err := backend.DeleteCategory(context.Background(), c.name)
				return mutationMsg{action: actionDeleteCategory, detail: c.name, err: err}
			})
		}
		m.busy = false
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) exportReport() tea.Cmd {
	path := m.cfg.ReportPath
	b := m.buckets()
	cats := m.categories
	active := m.active
	now := m.now()
	return func() tea.Msg {
		f, err := os.Create(path)
		if err != nil {
			return exportMsg{path: path, err: err}
		}
		defer f.Close()
		if err := report.WriteHTML(f, b, cats, active, now); err != nil {
			return exportMsg{path: path, err: err}
		}
		return exportMsg{path: path}
	}
}
