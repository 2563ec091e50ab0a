package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/shelf/internal/browse"
	"github.com/five82/shelf/internal/cache"
	"github.com/five82/shelf/internal/inventory"
	"github.com/five82/shelf/internal/session"
	"github.com/five82/shelf/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewLogin View = iota
	ViewProducts
	ViewActivity
)

const (
	defaultTick       = time.Second
	previewTimeout    = 10 * time.Second
	activityLineLimit = 500
	flashLifetime     = 6 * time.Second
)

// Options configures the UI.
type Options struct {
	Context     context.Context
	Client      inventory.Backend
	Session     *session.Store
	Store       *state.Store
	Cache       *cache.Cache
	Sync        *browse.Synchronizer
	Coordinator *browse.Coordinator
	Bridge      *Bridge
	Logger      *zap.Logger

	// LastLocation is the query string restored from prefs.
	LastLocation string
	LogFile      string
	ThemeName    string
	Tick         time.Duration
}

// Result is what the UI hands back when the program exits.
type Result struct {
	ThemeName string
	Location  string
}

type flash struct {
	text  string
	isErr bool
	at    time.Time
}

// browseState mirrors the Synchronizer and the cached page it points at.
type browseState struct {
	state       browse.State
	key         inventory.QueryKey
	view        cache.View
	selected    int
	initialized bool
}

type previewState struct {
	id      string
	product inventory.Product
	has     bool
	loading bool
	err     error
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Wiring
	ctx     context.Context
	client  inventory.Backend
	session *session.Store
	store   *state.Store
	cache   *cache.Cache
	sync    *browse.Synchronizer
	coord   *browse.Coordinator
	bridge  *Bridge
	log     *zap.Logger
	keys    keyMap
	tick    time.Duration
	logFile string

	lastLocation string

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	modal       Modal
	flash       flash

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time

	// Products view
	browse        browseState
	searchInput   textinput.Model
	searchFocused bool
	preview       previewState

	// Login view
	login loginForm

	// Activity view
	activity         activityState
	activityViewport viewport.Model
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bridge := opts.Bridge
	if bridge == nil {
		bridge = NewBridge(0)
	}

	search := textinput.New()
	search.Placeholder = "Search name or SKU..."
	search.Prompt = "/ "
	search.CharLimit = 100

	m := Model{
		ctx:          ctx,
		client:       opts.Client,
		session:      opts.Session,
		store:        opts.Store,
		cache:        opts.Cache,
		sync:         opts.Sync,
		coord:        opts.Coordinator,
		bridge:       bridge,
		log:          logger.Named("ui"),
		keys:         DefaultKeyMap(),
		tick:         tick,
		logFile:      opts.LogFile,
		lastLocation: opts.LastLocation,
		theme:        GetTheme(opts.ThemeName),
		currentView:  ViewLogin,
		searchInput:  search,
		login:        newLoginForm(),
		activity:     activityState{follow: true},
	}
	if m.store != nil {
		m.snapshot = m.store.Snapshot()
	}
	if m.session != nil && m.session.Token() != "" {
		m.currentView = ViewProducts
		m.initializeBrowse()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.tick),
		m.bridge.wait(m.ctx),
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeActivity()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		if m.snapshot.SessionExpired && m.currentView != ViewLogin {
			m.toLogin("Session expired, sign in again")
		}
		return m, nil

	case syncMsg:
		cmd := m.applySyncEvent(browse.Event(msg))
		return m, tea.Batch(cmd, m.bridge.wait(m.ctx))

	case cacheMsg:
		cmd := m.applyCacheEvent(cache.Event(msg))
		return m, tea.Batch(cmd, m.bridge.wait(m.ctx))

	case previewMsg:
		m.applyPreview(msg)
		return m, nil

	case mutationMsg:
		return m.handleMutation(msg)

	case authMsg:
		return m.handleAuth(msg)

	case filtersSubmitMsg:
		m.modal = nil
		if m.sync != nil {
			m.sync.FiltersSubmitted(msg.filters)
		}
		if msg.filters.PriceRangeInverted() {
			m.setFlash("Minimum price is above maximum; no product can match", true)
		}
		return m, nil

	case productSubmitMsg:
		return m.submitProduct(msg)

	case deleteConfirmedMsg:
		return m.submitDelete(msg)

	case activityMsg:
		m.applyActivity(msg)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey processes keyboard input. Modals, the login form and the search
// input get keys before the global bindings.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.modal != nil {
		return m.updateModal(msg)
	}

	if m.currentView == ViewLogin {
		return m.handleLoginKey(msg)
	}

	if m.searchFocused {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		m.logout()
		return m, nil

	case key.Matches(msg, m.keys.ViewProducts):
		m.currentView = ViewProducts
		return m, nil

	case key.Matches(msg, m.keys.ViewActivity):
		if m.currentView == ViewActivity {
			m.currentView = ViewProducts
			return m, nil
		}
		m.currentView = ViewActivity
		return m, loadActivityCmd(m.logFile, activityLineLimit)

	case key.Matches(msg, m.keys.Escape):
		if m.currentView == ViewActivity {
			m.currentView = ViewProducts
		}
		return m, nil
	}

	switch m.currentView {
	case ViewProducts:
		return m.handleProductsKey(msg)
	case ViewActivity:
		return m.handleActivityKey(msg)
	}
	return m, nil
}

// updateModal routes a message to the open modal and closes it on request.
func (m Model) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd, closed := m.modal.Update(msg, m.keys)
	if closed {
		m.modal = nil
	} else {
		m.modal = next
	}
	return m, cmd
}

// handleTick refreshes the connection snapshot and re-reads the cache so a
// dropped bridge event never leaves the screen stale for long.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.browse.initialized {
		m.syncView()
	}
	if !m.flash.at.IsZero() && time.Since(m.flash.at) > flashLifetime {
		m.flash = flash{}
	}
	if m.currentView == ViewActivity && m.activity.follow {
		cmds = append(cmds, loadActivityCmd(m.logFile, activityLineLimit))
	}

	cmds = append(cmds, tickCmd(m.tick))
	return m, tea.Batch(cmds...)
}

// initializeBrowse hands the restored location to the Synchronizer the first
// time the products view is shown.
func (m *Model) initializeBrowse() {
	if m.sync == nil || m.browse.initialized {
		return
	}
	m.sync.Initialize(m.lastLocation)
	m.browse.initialized = true
	m.syncView()
	m.searchInput.SetValue(m.browse.state.SearchText)
}

// syncView re-reads the Synchronizer state and the cached page for its key.
func (m *Model) syncView() {
	if m.sync == nil {
		return
	}
	m.browse.state = m.sync.State()
	m.browse.key = m.sync.Key()
	if m.cache != nil {
		if v, ok := m.cache.Peek(m.browse.key); ok {
			m.browse.view = v
		}
	}
	m.clampSelection()
}

func (m *Model) applySyncEvent(e browse.Event) tea.Cmd {
	m.browse.state = e.State
	if e.Key != m.browse.key {
		m.browse.selected = 0
	}
	m.browse.key = e.Key
	m.browse.view = e.View
	m.clampSelection()
	if e.FocusSearch {
		m.searchInput.SetValue("")
		m.focusSearch()
	}
	return m.previewSelected()
}

func (m *Model) applyCacheEvent(e cache.Event) tea.Cmd {
	if e.Kind == cache.EventFetchFailed && errors.Is(e.Err, inventory.ErrUnauthorized) {
		if m.store != nil {
			m.store.Update(nil, e.Err)
		}
		m.toLogin("Session expired, sign in again")
		return nil
	}
	if !m.browse.initialized {
		return nil
	}
	m.syncView()
	switch e.Kind {
	case cache.EventPatched, cache.EventInvalidated:
		m.preview.has = false
	}
	return m.previewSelected()
}

func (m *Model) clampSelection() {
	n := len(m.browse.view.List.Products)
	if m.browse.selected >= n {
		m.browse.selected = n - 1
	}
	if m.browse.selected < 0 {
		m.browse.selected = 0
	}
}

// selectedProduct returns the highlighted row, if any.
func (m Model) selectedProduct() (inventory.Product, bool) {
	products := m.browse.view.List.Products
	if m.browse.selected < 0 || m.browse.selected >= len(products) {
		return inventory.Product{}, false
	}
	return products[m.browse.selected], true
}

// previewSelected starts loading the highlighted product for the detail
// pane unless it is already shown.
func (m *Model) previewSelected() tea.Cmd {
	p, ok := m.selectedProduct()
	if !ok || m.cache == nil {
		m.preview = previewState{}
		return nil
	}
	if m.preview.id == p.ID && (m.preview.has || m.preview.loading) {
		return nil
	}
	m.preview = previewState{id: p.ID, product: p, has: true, loading: true}
	if cached, ok := m.cache.PeekProduct(p.ID); ok {
		m.preview.product = cached
	}
	return loadPreviewCmd(m.ctx, m.cache, p.ID)
}

func (m *Model) applyPreview(msg previewMsg) {
	if msg.id != m.preview.id {
		return
	}
	m.preview.loading = false
	if msg.err != nil {
		m.preview.err = msg.err
		return
	}
	m.preview.err = nil
	m.preview.product = msg.product
	m.preview.has = true
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash = flash{text: strings.TrimSpace(text), isErr: isErr, at: time.Now()}
}

// toLogin drops to the sign-in view, keeping the current location so the
// list comes back where it was after a new sign-in.
func (m *Model) toLogin(reason string) {
	m.currentView = ViewLogin
	m.modal = nil
	m.searchFocused = false
	m.searchInput.Blur()
	m.login = newLoginForm()
	if reason != "" {
		m.login.err = reason
	}
}

func (m *Model) logout() {
	if m.session != nil {
		if err := m.session.Clear(); err != nil {
			m.log.Warn("clear session failed", zap.Error(err))
		}
	}
	if m.store != nil {
		m.store.SignedOut()
	}
	m.snapshot = state.Snapshot{}
	m.log.Info("signed out")
	m.toLogin("")
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())

	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.renderLogin()
	case ViewProducts:
		return m.renderProducts()
	case ViewActivity:
		return m.renderActivity()
	default:
		return ""
	}
}

// Run starts the Bubble Tea program and returns the theme and location in
// effect when it exited.
func Run(opts Options) (Result, error) {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	final, err := p.Run()

	res := Result{ThemeName: m.theme.Name, Location: opts.LastLocation}
	fm, ok := final.(Model)
	if ok {
		res.ThemeName = fm.theme.Name
	}
	// A session that never reached the list keeps the saved location.
	if ok && fm.browse.initialized && opts.Sync != nil {
		res.Location = opts.Sync.Location().String()
	}
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		err = nil
	}
	return res, err
}
