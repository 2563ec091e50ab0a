package ui

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shelf/internal/browse"
	"github.com/five82/shelf/internal/cache"
	"github.com/five82/shelf/internal/inventory"
	"github.com/five82/shelf/internal/logtail"
	"github.com/five82/shelf/internal/state"
)

const defaultBridgeSize = 128

// Bridge carries Synchronizer and cache events into the Bubble Tea loop.
// Its callbacks never block: when the buffer is full the event is dropped
// and the next tick re-reads the cache instead.
type Bridge struct {
	ch      chan tea.Msg
	dropped atomic.Uint64
}

// NewBridge creates a bridge buffering up to size events.
func NewBridge(size int) *Bridge {
	if size <= 0 {
		size = defaultBridgeSize
	}
	return &Bridge{ch: make(chan tea.Msg, size)}
}

// SyncNotify is the notify callback for browse.NewSynchronizer.
func (b *Bridge) SyncNotify(e browse.Event) {
	b.send(syncMsg(e))
}

// CacheNotify is the subscriber for cache.Cache.Subscribe.
func (b *Bridge) CacheNotify(e cache.Event) {
	b.send(cacheMsg(e))
}

// Dropped reports how many events were discarded on a full buffer.
func (b *Bridge) Dropped() uint64 {
	return b.dropped.Load()
}

func (b *Bridge) send(msg tea.Msg) {
	select {
	case b.ch <- msg:
	default:
		b.dropped.Add(1)
	}
}

// wait returns a command that delivers the next bridged event.
func (b *Bridge) wait(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.ch:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type syncMsg browse.Event

type cacheMsg cache.Event

type previewMsg struct {
	id      string
	product inventory.Product
	err     error
}

type mutationOp int

const (
	opCreate mutationOp = iota
	opUpdate
	opDelete
)

func (o mutationOp) String() string {
	switch o {
	case opCreate:
		return "created"
	case opUpdate:
		return "saved"
	default:
		return "deleted"
	}
}

type mutationMsg struct {
	op      mutationOp
	id      string
	product inventory.Product
	err     error
}

type authMsg struct {
	register bool
	result   inventory.AuthResult
	err      error
}

type activityMsg struct {
	entries []logtail.Entry
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func loadPreviewCmd(ctx context.Context, c *cache.Cache, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, previewTimeout)
		defer cancel()
		p, err := c.GetProduct(ctx, id)
		return previewMsg{id: id, product: p, err: err}
	}
}

func createCmd(ctx context.Context, coord *browse.Coordinator, draft inventory.ProductDraft) tea.Cmd {
	return func() tea.Msg {
		p, err := coord.Create(ctx, draft)
		return mutationMsg{op: opCreate, id: p.ID, product: p, err: err}
	}
}

func updateCmd(ctx context.Context, coord *browse.Coordinator, id string, draft inventory.ProductDraft) tea.Cmd {
	return func() tea.Msg {
		p, err := coord.Update(ctx, id, draft)
		return mutationMsg{op: opUpdate, id: id, product: p, err: err}
	}
}

func deleteCmd(ctx context.Context, coord *browse.Coordinator, id string) tea.Cmd {
	return func() tea.Msg {
		err := coord.Delete(ctx, id)
		return mutationMsg{op: opDelete, id: id, err: err}
	}
}

func authCmd(ctx context.Context, client inventory.Backend, form loginForm) tea.Cmd {
	creds := form.credentials()
	reg := form.registration()
	register := form.register
	return func() tea.Msg {
		var (
			res inventory.AuthResult
			err error
		)
		if register {
			res, err = client.Register(ctx, reg)
		} else {
			res, err = client.Login(ctx, creds)
		}
		return authMsg{register: register, result: res, err: err}
	}
}

func loadActivityCmd(path string, limit int) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return activityMsg{err: errors.New("no log file configured")}
		}
		entries, err := logtail.ReadEntries(path, limit)
		return activityMsg{entries: entries, err: err}
	}
}
