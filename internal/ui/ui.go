package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"shelfwatch/internal/api"
	"shelfwatch/internal/cache"
	"shelfwatch/internal/config"
	"shelfwatch/internal/risk"
)

// ErrAuthExpired is returned by Run when the server answered a request with
// 401; the caller should point the user at the login page.
var ErrAuthExpired = errors.New("session expired")

// Backend is the slice of the API client the dashboard needs. Tests swap in
// a fake.
type Backend interface {
	FetchInventory(ctx context.Context) (api.Inventory, error)
	FetchCategories(ctx context.Context) ([]api.Category, error)
	AddItem(ctx context.Context, name, expiryDate, category string) error
	DeleteItem(ctx context.Context, id int64) error
	AddCategory(ctx context.Context, name string) error
	DeleteCategory(ctx context.Context, name string) error
}

// SnapshotStore persists the last successful sync. May be nil (no cache).
type SnapshotStore interface {
	Save(cache.Snapshot) error
	Load() (cache.Snapshot, bool, error)
}

type mode int

const (
	modeDashboard mode = iota
	modeAddItem
	modeAddCategory
	modeConfirm
	modeNotice
)

// addState walks the add-item fields one at a time through the shared text
// input.
type addState struct {
	name     string
	date     string
	category string
	index    int
}

type confirmState struct {
	prompt string
	action actionID
	itemID int64
	name   string
}

// Model owns all mutable dashboard state. It is only ever written inside
// Update; classification and rendering read values passed explicitly.
type Model struct {
	backend Backend
	snaps   SnapshotStore
	cfg     config.Config
	now     func() time.Time

	categories []api.Category
	inv        api.Inventory
	haveInv    bool
	active     string

	busy        bool
	loading     bool
	offline     bool
	authExpired bool

	readGen    int
	readCancel context.CancelFunc

	mode    mode
	add     *addState
	confirm *confirmState
	notice  string

	cursor   int
	log      []string
	status   string
	input    textinput.Model
	spin     spinner.Model
	width    int
	height   int
}

type inventoryMsg struct {
	gen int
	inv api.Inventory
	err error
}

type categoriesMsg struct {
	cats            []api.Category
	resyncInventory bool
	err             error
}

type mutationMsg struct {
	action actionID
	detail string
	err    error
}

type exportMsg struct {
	path string
	err  error
}

// syncRequestMsg asks for a full re-sync (categories, then inventory).
type syncRequestMsg struct{}

func New(cfg config.Config, backend Backend, snaps SnapshotStore) Model {
	ti := textinput.New()
	ti.CharLimit = 64
	ti.Width = 30

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		backend: backend,
		snaps:   snaps,
		cfg:     cfg,
		now:     time.Now,
		active:  risk.CategoryAll,
		mode:    modeDashboard,
		input:   ti,
		spin:    sp,
		status:  "Syncing…",
	}

	if snaps != nil {
		if snap, ok, err := snaps.Load(); err == nil && ok {
			m.inv = snap.Inventory
			m.categories = snap.Categories
			m.haveInv = true
			m.status = "Showing cached data, syncing…"
		}
	}
	return m
}

func Run(cfg config.Config, backend Backend, snaps SnapshotStore) error {
	program := tea.NewProgram(New(cfg, backend, snaps), tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok && m.authExpired {
		return ErrAuthExpired
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	// State changes (read generation, cancel token) must happen inside
	// Update, so the first sync is requested via a message.
	return tea.Batch(m.spin.Tick, func() tea.Msg { return syncRequestMsg{} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = min(40, msg.Width-10)
		return m, nil
	case syncRequestMsg:
		m2, invCmd := m.startInventoryRead()
		return m2, tea.Batch(m2.fetchCategories(false), invCmd)
	case inventoryMsg:
		return m.handleInventory(msg)
	case categoriesMsg:
		return m.handleCategories(msg)
	case mutationMsg:
		return m.handleMutation(msg)
	case exportMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("export failed: %v", msg.err)
		} else {
			m.status = "Report written to " + msg.path
			m = m.appendLog("Exported report")
		}
		return m, nil
	case spinner.TickMsg:
		if !m.loading && !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

// startInventoryRead cancels any in-flight inventory read and issues a new
// one. The generation bump and the cancel happen together inside Update, so
// there is no window where two reads could both apply.
func (m Model) startInventoryRead() (Model, tea.Cmd) {
	if m.readCancel != nil {
		m.readCancel()
	}
	m.readGen++
	ctx, cancel := context.WithCancel(context.Background())
	m.readCancel = cancel
	m.loading = true

	gen := m.readGen
	backend := m.backend
	return m, func() tea.Msg {
		inv, err := backend.FetchInventory(ctx)
		return inventoryMsg{gen: gen, inv: inv, err: err}
	}
}

func (m Model) fetchCategories(resyncInventory bool) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		cats, err := backend.FetchCategories(context.Background())
		return categoriesMsg{cats: cats, resyncInventory: resyncInventory, err: err}
	}
}

func (m Model) handleInventory(msg inventoryMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.readGen {
		// Superseded read; its result must never touch state.
		return m, nil
	}
	m.loading = false
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return m, nil
		}
		if errors.Is(msg.err, api.ErrUnauthorized) {
			m.authExpired = true
			return m, tea.Quit
		}
		m.offline = true
		m.status = "Offline — showing last known data"
		return m, nil
	}
	m.inv = msg.inv
	m.haveInv = true
	m.offline = false
	m.cursor = clampCursor(m.cursor, len(m.visibleItems()))
	m.status = fmt.Sprintf("Synced at %s", m.now().Format("15:04:05"))
	return m, m.saveSnapshot()
}

func (m Model) handleCategories(msg categoriesMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return m, nil
		}
		if errors.Is(msg.err, api.ErrUnauthorized) {
			m.authExpired = true
			return m, tea.Quit
		}
		m.offline = true
		m.status = "Offline — showing last known data"
		return m, nil
	}
	m.categories = msg.cats
	m.offline = false
	if !m.categoryExists(m.active) {
		m.active = risk.CategoryAll
	}
	cmds := []tea.Cmd{m.saveSnapshot()}
	if msg.resyncInventory {
		var invCmd tea.Cmd
		m, invCmd = m.startInventoryRead()
		cmds = append(cmds, invCmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleMutation(msg mutationMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return m, nil
		}
		if errors.Is(msg.err, api.ErrUnauthorized) {
			m.authExpired = true
			return m, tea.Quit
		}
		m.notice = msg.err.Error()
		m.mode = modeNotice
		return m, nil
	}

	switch msg.action {
	case actionAddItem:
		m = m.appendLog("Added " + msg.detail)
		m.mode = modeDashboard
		m.add = nil
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Item added"
		return m.resyncInventory()
	case actionDeleteItem:
		m = m.appendLog("Deleted " + msg.detail)
		m.status = "Item deleted"
		return m.resyncInventory()
	case actionAddCategory:
		m = m.appendLog("Added category " + msg.detail)
		m.mode = modeDashboard
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Category added"
		return m, m.fetchCategories(false)
	case actionDeleteCategory:
		m = m.appendLog("Deleted category " + msg.detail)
		if m.active == msg.detail {
			m.active = risk.CategoryAll
		}
		m.status = "Category deleted"
		return m, m.fetchCategories(true)
	}
	return m, nil
}

func (m Model) resyncInventory() (tea.Model, tea.Cmd) {
	m2, cmd := m.startInventoryRead()
	return m2, cmd
}

func (m Model) saveSnapshot() tea.Cmd {
	if m.snaps == nil {
		return nil
	}
	snaps := m.snaps
	snap := cache.Snapshot{Inventory: m.inv, Categories: m.categories}
	return func() tea.Msg {
		// Best effort; a failed cache write never disturbs the dashboard.
		_ = snaps.Save(snap)
		return nil
	}
}

func (m Model) appendLog(entry string) Model {
	m.log = append(m.log, entry)
	if over := len(m.log) - m.cfg.ActivityLogMax; over > 0 {
		m.log = m.log[over:]
	}
	return m
}

func (m Model) categoryExists(name string) bool {
	if name == risk.CategoryAll {
		return true
	}
	for _, c := range m.categories {
		if c.Name == name {
			return true
		}
	}
	return false
}

// buckets recomputes the classified view from the cached raw snapshot. The
// projection is derived fresh every render; nothing here is stored back.
func (m Model) buckets() risk.Buckets {
	return risk.ClassifyAndSort(m.inv.Fresh, m.inv.Expired, m.active, m.now(), m.cfg.UrgentDays)
}

// visibleItems is the cursor-addressable list: attention first (expired then
// urgent), then stable.
func (m Model) visibleItems() []risk.ViewModel {
	b := m.buckets()
	items := make([]risk.ViewModel, 0, len(b.Expired)+len(b.Urgent)+len(b.Safe))
	items = append(items, b.Expired...)
	items = append(items, b.Urgent...)
	items = append(items, b.Safe...)
	return items
}

// filterNames is the sidebar order: the synthetic "All" first, then the
// categories in server order.
func (m Model) filterNames() []string {
	names := make([]string, 0, len(m.categories)+1)
	names = append(names, risk.CategoryAll)
	for _, c := range m.categories {
		names = append(names, c.Name)
	}
	return names
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
