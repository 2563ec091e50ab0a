package cache

import (
	"go.uber.org/zap"

	"github.com/five82/shelf/internal/inventory"
)

// PatchKind selects how PatchList rewrites cached pages.
type PatchKind int

const (
	PatchInsert PatchKind = iota
	PatchReplace
	PatchRemove
)

func (k PatchKind) String() string {
	switch k {
	case PatchInsert:
		return "insert"
	case PatchReplace:
		return "replace"
	case PatchRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// PatchList rewrites every cached page after a confirmed mutation.
//
//   - PatchInsert prepends p to every page and bumps its total.
//   - PatchReplace swaps the product with p.ID wherever it appears.
//   - PatchRemove drops the product with id from the pages holding it and
//     lowers their totals, never below 0.
//
// Pages are recomputed from the adjusted totals. Fetches started before the
// patch are discarded when they complete.
func (c *Cache) PatchList(kind PatchKind, id string, p inventory.Product) {
	if kind == PatchInsert || kind == PatchReplace {
		id = p.ID
	}

	c.mu.Lock()
	seq := c.nextSeqLocked()
	touched := 0
	for key, e := range c.lists {
		if !e.hasData {
			continue
		}
		if patchEntry(e, kind, id, p) {
			touched++
		}
		e.applied = seq
		c.flight.Forget(key.String())
	}

	c.floor[id] = seq
	switch kind {
	case PatchInsert, PatchReplace:
		c.items[id] = &itemEntry{product: p.Clone(), fetchedAt: c.now()}
	case PatchRemove:
		delete(c.items, id)
	}
	subs := c.subs
	c.mu.Unlock()

	c.log.Debug("patched cached pages",
		zap.Stringer("kind", kind),
		zap.String("product_id", id),
		zap.Int("pages", touched),
	)
	c.emit(subs, Event{Kind: EventPatched})
}

// InvalidateList marks every cached page stale. Cached data is still served
// but the next GetOrFetch for each key refetches it.
func (c *Cache) InvalidateList() {
	c.mu.Lock()
	seq := c.nextSeqLocked()
	for key, e := range c.lists {
		e.invalid = true
		e.applied = seq
		c.flight.Forget(key.String())
	}
	subs := c.subs
	c.mu.Unlock()

	c.emit(subs, Event{Kind: EventInvalidated})
}

func patchEntry(e *listEntry, kind PatchKind, id string, p inventory.Product) bool {
	list := &e.list
	idx := list.IndexOf(id)
	changed := false
	switch kind {
	case PatchInsert:
		if idx >= 0 {
			list.Products[idx] = p.Clone()
			return true
		}
		products := make([]inventory.Product, 0, len(list.Products)+1)
		products = append(products, p.Clone())
		list.Products = append(products, list.Products...)
		list.Pagination.Total++
		changed = true
	case PatchReplace:
		if idx < 0 {
			return false
		}
		list.Products[idx] = p.Clone()
		return true
	case PatchRemove:
		if idx < 0 {
			return false
		}
		list.Products = append(list.Products[:idx:idx], list.Products[idx+1:]...)
		if list.Pagination.Total > 0 {
			list.Pagination.Total--
		}
		changed = true
	}
	list.Pagination.Pages = pageCount(list.Pagination.Total, list.Pagination.Limit)
	return changed
}

func pageCount(total, limit int) int {
	if limit <= 0 {
		limit = inventory.DefaultPageSize
	}
	if total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
