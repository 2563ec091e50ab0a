package browse

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/five82/shelf/internal/cache"
	"github.com/five82/shelf/internal/inventory"
)

// DefaultDebounce is the quiet period before typed search text is committed.
const DefaultDebounce = 300 * time.Millisecond

// Lister is the part of the query cache the Synchronizer publishes to.
type Lister interface {
	GetOrFetch(ctx context.Context, key inventory.QueryKey) cache.View
	Peek(key inventory.QueryKey) (cache.View, bool)
}

// Timer is the handle returned by an AfterFunc implementation.
type Timer interface {
	Stop() bool
}

// Event is delivered after every publish.
type Event struct {
	State State
	Key   inventory.QueryKey
	View  cache.View
	// FocusSearch asks the presentation layer to move focus to the search input.
	FocusSearch bool
}

// SyncOptions configure NewSynchronizer. Zero values pick defaults.
type SyncOptions struct {
	Debounce  time.Duration
	PageSize  int
	Logger    *zap.Logger
	AfterFunc func(time.Duration, func()) Timer
}

type debouncePhase int

const (
	phaseIdle debouncePhase = iota
	phasePendingCommit
)

// Synchronizer reconciles the initial location, debounced search input and
// filter/page submissions into one State. Every change to the committed
// state rewrites the Location and asks the cache for the matching page, both
// under the same lock.
type Synchronizer struct {
	lister    Lister
	loc       *Location
	notify    func(Event)
	debounce  time.Duration
	pageSize  int
	log       *zap.Logger
	afterFunc func(time.Duration, func()) Timer

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	initialized bool
	closed      bool

	// Debounce FSM: Idle, or PendingCommit(pendingText, timer, generation).
	phase       debouncePhase
	pendingText string
	timer       Timer
	generation  uint64
}

// NewSynchronizer wires a Synchronizer to its cache and location. notify runs
// with the Synchronizer locked and must not block or call back into it.
// Fetches started by publishes are bound to ctx; Close cancels them.
func NewSynchronizer(ctx context.Context, lister Lister, loc *Location, notify func(Event), opts SyncOptions) *Synchronizer {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.PageSize <= 0 {
		opts.PageSize = inventory.DefaultPageSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	if notify == nil {
		notify = func(Event) {}
	}
	if loc == nil {
		loc = NewLocation("")
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Synchronizer{
		lister:    lister,
		loc:       loc,
		notify:    notify,
		debounce:  opts.Debounce,
		pageSize:  opts.PageSize,
		log:       opts.Logger.Named("browse"),
		afterFunc: opts.AfterFunc,
		ctx:       ctx,
		cancel:    cancel,
		state:     State{Page: 1},
	}
}

// Initialize loads state from a query string and publishes it. Only the first
// call has any effect.
func (s *Synchronizer) Initialize(rawQuery string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.initialized {
		return
	}
	s.initialized = true
	s.state = ParseLocation(rawQuery)
	s.log.Debug("initialized", zap.String("location", rawQuery), zap.Stringer("key", s.keyLocked()))
	s.publishLocked(false)
}

// SearchTextChanged records text at once and schedules its commit after the
// debounce delay. A new call before the delay restarts it, so only the last
// text within a window is committed.
func (s *Synchronizer) SearchTextChanged(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state.SearchText = text
	s.cancelPendingLocked()

	s.generation++
	gen := s.generation
	s.phase = phasePendingCommit
	s.pendingText = text
	s.timer = s.afterFunc(s.debounce, func() { s.commitPending(gen) })
}

// FiltersSubmitted replaces every filter except search, resets to page 1 and
// publishes immediately.
func (s *Synchronizer) FiltersSubmitted(f inventory.FilterSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	f.Search = s.state.Filters.Search
	if f.PriceRangeInverted() {
		s.log.Info("price range inverted",
			zap.Stringer("min_price", f.MinPrice),
			zap.Stringer("max_price", f.MaxPrice),
		)
	}
	next := s.state
	next.Filters = f
	next.Page = 1
	s.transitionLocked(next, false)
}

// PageRequested moves to page, clamped to the pages known for the current
// query. Without pagination data the only valid page is 1.
func (s *Synchronizer) PageRequested(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	next := s.state
	next.Page = clampPage(page, s.knownPagesLocked())
	s.transitionLocked(next, false)
}

// ClearSearch drops any pending commit, commits an empty search right away
// and asks for focus on the search input. Like a debounced commit, the page
// only resets when the committed search actually changes.
func (s *Synchronizer) ClearSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cancelPendingLocked()
	next := s.state
	next.SearchText = ""
	if next.Filters.Search != "" {
		next.Filters.Search = ""
		next.Page = 1
	}
	s.transitionLocked(next, true)
}

// Refresh publishes the current state again so the cache can refetch a page
// that failed or was invalidated.
func (s *Synchronizer) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.publishLocked(false)
}

// Close cancels a pending search commit and any fetch the Synchronizer
// started. Nothing is published after Close returns.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancelPendingLocked()
	s.cancel()
}

// State returns the current state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Key returns the cache key of the committed state.
func (s *Synchronizer) Key() inventory.QueryKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keyLocked()
}

// Location returns the address the Synchronizer writes to.
func (s *Synchronizer) Location() *Location {
	return s.loc
}

// PendingCommit reports whether typed search text is waiting on the debounce.
func (s *Synchronizer) PendingCommit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == phasePendingCommit
}

func (s *Synchronizer) commitPending(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.phase != phasePendingCommit || gen != s.generation {
		return
	}
	text := s.pendingText
	s.phase = phaseIdle
	s.pendingText = ""
	s.timer = nil

	if text == s.state.Filters.Search {
		s.state.SearchText = text
		return
	}
	next := s.state
	next.Filters.Search = text
	next.SearchText = text
	next.Page = 1
	s.transitionLocked(next, false)
}

func (s *Synchronizer) cancelPendingLocked() {
	if s.phase != phasePendingCommit {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	// A timer that already fired finds a newer generation and does nothing.
	s.generation++
	s.phase = phaseIdle
	s.pendingText = ""
	s.timer = nil
}

func (s *Synchronizer) transitionLocked(next State, focus bool) {
	changed := !sameQuery(s.state, next)
	s.state = next
	s.initialized = true
	if changed {
		s.publishLocked(focus)
		return
	}
	if focus {
		key := s.keyLocked()
		view, _ := s.lister.Peek(key)
		s.notify(Event{State: s.state, Key: key, View: view, FocusSearch: true})
	}
}

func (s *Synchronizer) publishLocked(focus bool) {
	key := s.keyLocked()
	s.loc.Replace(EncodeState(s.state))
	view := s.lister.GetOrFetch(s.ctx, key)
	s.log.Debug("published", zap.Stringer("key", key), zap.Bool("cached", view.HasData))
	s.notify(Event{State: s.state, Key: key, View: view, FocusSearch: focus})
}

func (s *Synchronizer) keyLocked() inventory.QueryKey {
	return s.state.Key(s.pageSize)
}

func (s *Synchronizer) knownPagesLocked() int {
	view, ok := s.lister.Peek(s.keyLocked())
	if !ok || !view.HasData {
		return 1
	}
	return view.List.Pagination.Pages
}

func sameQuery(a, b State) bool {
	return a.Page == b.Page && a.Filters.Equal(b.Filters)
}

func clampPage(page, pages int) int {
	if pages < 1 {
		pages = 1
	}
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}
	return page
}
