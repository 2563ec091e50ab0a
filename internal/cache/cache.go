package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/five82/shelf/internal/inventory"
)

const (
	DefaultStaleAfter = 5 * time.Minute
	DefaultEvictAfter = 10 * time.Minute
)

// Source is the subset of the backend the cache reads through.
type Source interface {
	ListProducts(ctx context.Context, key inventory.QueryKey) (inventory.ProductList, error)
	GetProduct(ctx context.Context, id string) (inventory.Product, error)
}

// View is what a consumer sees for one key.
type View struct {
	List       inventory.ProductList
	HasData    bool
	Loading    bool // no data yet, fetch in flight
	Refreshing bool // data shown, background refetch in flight
	Stale      bool
	Err        error
	FetchedAt  time.Time
}

// EventKind says why subscribers are being notified.
type EventKind int

const (
	EventFetched EventKind = iota
	EventFetchFailed
	EventPatched
	EventInvalidated
)

// Event is delivered to subscribers after the cache changes.
type Event struct {
	Kind EventKind
	Key  inventory.QueryKey // zero for patch and invalidate events
	Err  error
}

// Options configure New. Zero values pick defaults.
type Options struct {
	StaleAfter time.Duration
	EvictAfter time.Duration
	Logger     *zap.Logger
	Now        func() time.Time
}

type listEntry struct {
	list       inventory.ProductList
	hasData    bool
	fetchedAt  time.Time
	lastAccess time.Time
	invalid    bool
	loading    int
	fetching   uint64 // sequence of the newest fetch started
	err        error
	applied    uint64 // sequence of the newest write applied to this entry
}

type itemEntry struct {
	product   inventory.Product
	fetchedAt time.Time
}

// Cache maps QueryKeys to product pages. All mutation goes through
// GetOrFetch completions, PatchList and InvalidateList.
type Cache struct {
	src        Source
	staleAfter time.Duration
	evictAfter time.Duration
	now        func() time.Time
	log        *zap.Logger

	mu    sync.Mutex
	seq   uint64
	lists map[inventory.QueryKey]*listEntry
	items map[string]*itemEntry
	floor map[string]uint64 // per product id: fetches older than this lost to a patch
	subs  []func(Event)

	flight   singleflight.Group
	inflight sync.WaitGroup
}

// New builds a cache reading through src.
func New(src Source, opts Options) *Cache {
	c := &Cache{
		src:        src,
		staleAfter: opts.StaleAfter,
		evictAfter: opts.EvictAfter,
		now:        opts.Now,
		log:        opts.Logger,
		lists:      make(map[inventory.QueryKey]*listEntry),
		items:      make(map[string]*itemEntry),
		floor:      make(map[string]uint64),
	}
	if c.staleAfter <= 0 {
		c.staleAfter = DefaultStaleAfter
	}
	if c.evictAfter <= 0 {
		c.evictAfter = DefaultEvictAfter
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	c.log = c.log.Named("cache")
	return c
}

// Subscribe registers fn for every cache event. fn runs on the goroutine
// that changed the cache and must not block.
func (c *Cache) Subscribe(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// GetOrFetch returns what is cached for key. A miss starts a fetch and
// reports Loading; a stale or invalidated hit is served while a background
// refetch runs. It never blocks on the network.
func (c *Cache) GetOrFetch(ctx context.Context, key inventory.QueryKey) View {
	c.mu.Lock()
	now := c.now()
	c.sweepLocked(now)
	e, ok := c.lists[key]
	if !ok {
		e = &listEntry{}
		c.lists[key] = e
	}
	e.lastAccess = now
	needFetch := !e.hasData || e.invalid || now.Sub(e.fetchedAt) >= c.staleAfter
	// A fetch started before the last patch or invalidation will be
	// discarded, so it does not count as in flight.
	if needFetch && (e.loading == 0 || e.fetching < e.applied) {
		c.startLocked(ctx, key, e)
	}
	view := c.viewLocked(e, now)
	c.mu.Unlock()
	return view
}

// Fetch loads key synchronously and stores the result.
func (c *Cache) Fetch(ctx context.Context, key inventory.QueryKey) (inventory.ProductList, error) {
	c.mu.Lock()
	e, ok := c.lists[key]
	if !ok {
		e = &listEntry{}
		c.lists[key] = e
	}
	e.lastAccess = c.now()
	seq := c.nextSeqLocked()
	e.loading++
	e.fetching = seq
	c.mu.Unlock()

	c.inflight.Add(1)
	c.refresh(ctx, key, seq)

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok = c.lists[key]
	switch {
	case !ok:
		return inventory.ProductList{}, fmt.Errorf("entry for %s evicted during fetch", key)
	case e.err != nil:
		return inventory.ProductList{}, e.err
	case e.hasData:
		return e.list.Clone(), nil
	default:
		return inventory.ProductList{}, fmt.Errorf("no data for %s", key)
	}
}

// Peek returns the cached view for key without touching the network.
func (c *Cache) Peek(key inventory.QueryKey) (View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lists[key]
	if !ok {
		return View{}, false
	}
	return c.viewLocked(e, c.now()), true
}

// Wait blocks until every background fetch started so far has finished.
func (c *Cache) Wait() {
	c.inflight.Wait()
}

// Len reports the number of cached list entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lists)
}

// Sweep evicts list and item entries that have not been used within the
// eviction window.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked(c.now())
}

func (c *Cache) sweepLocked(now time.Time) int {
	evicted := 0
	for key, e := range c.lists {
		if e.loading == 0 && now.Sub(e.lastAccess) >= c.evictAfter {
			delete(c.lists, key)
			evicted++
		}
	}
	for id, e := range c.items {
		if now.Sub(e.fetchedAt) >= c.evictAfter {
			delete(c.items, id)
		}
	}
	if evicted > 0 {
		c.log.Debug("evicted idle entries", zap.Int("count", evicted))
	}
	return evicted
}

func (c *Cache) refresh(ctx context.Context, key inventory.QueryKey, seq uint64) {
	defer c.inflight.Done()

	flightKey := key.String()
	v, err, _ := c.flight.Do(flightKey, func() (any, error) {
		return c.src.ListProducts(ctx, key)
	})

	c.mu.Lock()
	e, ok := c.lists[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	e.loading--
	if seq < e.applied {
		c.log.Debug("discarding superseded fetch", zap.Stringer("key", key), zap.Uint64("seq", seq), zap.Uint64("applied", e.applied))
		if e.loading == 0 && (!e.hasData || e.invalid) && ctx.Err() == nil {
			c.startLocked(ctx, key, e)
		}
		c.mu.Unlock()
		return
	}
	e.applied = seq
	event := Event{Key: key}
	if err != nil {
		e.err = err
		event.Kind = EventFetchFailed
		event.Err = err
		c.log.Warn("fetch failed", zap.Stringer("key", key), zap.Error(err))
	} else {
		e.list = v.(inventory.ProductList).Clone()
		e.hasData = true
		e.fetchedAt = c.now()
		e.invalid = false
		e.err = nil
		event.Kind = EventFetched
	}
	subs := c.subs
	c.mu.Unlock()

	c.emit(subs, event)
}

// startLocked launches a background fetch for e. The caller holds c.mu.
func (c *Cache) startLocked(ctx context.Context, key inventory.QueryKey, e *listEntry) {
	seq := c.nextSeqLocked()
	e.loading++
	e.fetching = seq
	c.inflight.Add(1)
	go c.refresh(ctx, key, seq)
}

// GetProduct serves a single product from the item cache, fetching it when
// missing or stale.
func (c *Cache) GetProduct(ctx context.Context, id string) (inventory.Product, error) {
	c.mu.Lock()
	now := c.now()
	if e, ok := c.items[id]; ok && now.Sub(e.fetchedAt) < c.staleAfter {
		p := e.product.Clone()
		c.mu.Unlock()
		return p, nil
	}
	seq := c.nextSeqLocked()
	c.mu.Unlock()

	p, err := c.src.GetProduct(ctx, id)
	if err != nil {
		return inventory.Product{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.floor[id] {
		return p, nil
	}
	c.items[id] = &itemEntry{product: p.Clone(), fetchedAt: c.now()}
	return p, nil
}

// PeekProduct looks id up in the item cache and then in cached pages without
// touching the network.
func (c *Cache) PeekProduct(id string) (inventory.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[id]; ok {
		return e.product.Clone(), true
	}
	for _, e := range c.lists {
		if i := e.list.IndexOf(id); e.hasData && i >= 0 {
			return e.list.Products[i].Clone(), true
		}
	}
	return inventory.Product{}, false
}

func (c *Cache) viewLocked(e *listEntry, now time.Time) View {
	v := View{
		HasData:    e.hasData,
		Loading:    e.loading > 0 && !e.hasData,
		Refreshing: e.loading > 0 && e.hasData,
		Stale:      e.hasData && (e.invalid || now.Sub(e.fetchedAt) >= c.staleAfter),
		Err:        e.err,
		FetchedAt:  e.fetchedAt,
	}
	if e.hasData {
		v.List = e.list.Clone()
	}
	return v
}

func (c *Cache) nextSeqLocked() uint64 {
	c.seq++
	return c.seq
}

func (c *Cache) emit(subs []func(Event), event Event) {
	for _, fn := range subs {
		fn(event)
	}
}
