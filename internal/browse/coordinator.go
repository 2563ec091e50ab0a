package browse

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/five82/shelf/internal/cache"
	"github.com/five82/shelf/internal/inventory"
)

// ErrMutationPending is returned when a create, update or delete is started
// while another one is still waiting on the backend.
var ErrMutationPending = errors.New("another change is still being saved")

// Mutator is the write half of the backend.
type Mutator interface {
	CreateProduct(ctx context.Context, in inventory.ProductInput) (inventory.Product, error)
	UpdateProduct(ctx context.Context, id string, in inventory.ProductInput) (inventory.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// Coordinator runs one mutation at a time and folds each confirmed result
// into the cache.
type Coordinator struct {
	api   Mutator
	cache *cache.Cache
	sync  *Synchronizer
	log   *zap.Logger

	pending atomic.Bool
}

// NewCoordinator builds a Coordinator. sync may be nil when no list view is
// attached, as in the CLI.
func NewCoordinator(api Mutator, c *cache.Cache, sync *Synchronizer, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{api: api, cache: c, sync: sync, log: logger.Named("mutate")}
}

// Pending reports whether a mutation is in flight.
func (c *Coordinator) Pending() bool {
	return c.pending.Load()
}

// Create validates draft locally and, if it passes, creates the product and
// prepends it to every cached page. Validation failures are returned as
// inventory.FieldErrors without a request.
func (c *Coordinator) Create(ctx context.Context, draft inventory.ProductDraft) (inventory.Product, error) {
	if !c.pending.CompareAndSwap(false, true) {
		return inventory.Product{}, ErrMutationPending
	}
	defer c.pending.Store(false)

	in, fieldErrs := draft.Validate()
	if fieldErrs != nil {
		return inventory.Product{}, fieldErrs
	}
	p, err := c.api.CreateProduct(ctx, in)
	if err != nil {
		c.log.Warn("create failed", zap.String("sku", in.SKU), zap.Error(err))
		return inventory.Product{}, err
	}
	c.cache.PatchList(cache.PatchInsert, p.ID, p)
	c.log.Info("product created", zap.String("product_id", p.ID), zap.String("sku", p.SKU))
	return p, nil
}

// Update validates draft, saves it and swaps the stored product into every
// cached page. When a field that filters match on changed, cached pages are
// also invalidated since membership may differ, and the page on screen is
// fetched again.
func (c *Coordinator) Update(ctx context.Context, id string, draft inventory.ProductDraft) (inventory.Product, error) {
	if id == "" {
		return inventory.Product{}, fmt.Errorf("update: missing product id")
	}
	if !c.pending.CompareAndSwap(false, true) {
		return inventory.Product{}, ErrMutationPending
	}
	defer c.pending.Store(false)

	in, fieldErrs := draft.Validate()
	if fieldErrs != nil {
		return inventory.Product{}, fieldErrs
	}
	before, known := c.cache.PeekProduct(id)
	p, err := c.api.UpdateProduct(ctx, id, in)
	if err != nil {
		c.log.Warn("update failed", zap.String("product_id", id), zap.Error(err))
		return inventory.Product{}, err
	}
	c.cache.PatchList(cache.PatchReplace, id, p)
	if !known || filtersMayDiffer(before, p) {
		c.cache.InvalidateList()
		if c.sync != nil {
			c.sync.Refresh()
		}
	}
	c.log.Info("product updated", zap.String("product_id", id))
	return p, nil
}

// Delete removes the product and drops it from every cached page. If that
// empties the page being shown and it is not the first, the list steps back
// one page.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("delete: missing product id")
	}
	if !c.pending.CompareAndSwap(false, true) {
		return ErrMutationPending
	}
	defer c.pending.Store(false)

	if err := c.api.DeleteProduct(ctx, id); err != nil {
		c.log.Warn("delete failed", zap.String("product_id", id), zap.Error(err))
		return err
	}
	c.cache.PatchList(cache.PatchRemove, id, inventory.Product{})
	c.log.Info("product deleted", zap.String("product_id", id))

	if c.sync == nil {
		return nil
	}
	key := c.sync.Key()
	view, ok := c.cache.Peek(key)
	if ok && view.HasData && len(view.List.Products) == 0 && key.Page > 1 {
		c.sync.PageRequested(key.Page - 1)
	}
	return nil
}

// filtersMayDiffer reports a change to any field a FilterSet can match on.
func filtersMayDiffer(before, after inventory.Product) bool {
	return before.Name != after.Name ||
		before.SKU != after.SKU ||
		before.Category != after.Category ||
		before.Price.Cmp(after.Price) != 0 ||
		(before.Quantity > 0) != (after.Quantity > 0)
}
