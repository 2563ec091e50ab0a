package browse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/govalues/decimal"
	"github.com/stretchr/testify/require"

	"github.com/five82/shelf/internal/cache"
	"github.com/five82/shelf/internal/inventory"
)

// fakeBackend serves pages of a fixed catalogue and records mutations.
type fakeBackend struct {
	mu       sync.Mutex
	products []inventory.Product
	limit    int
	calls    int
	lists    int
	err      error
	hold     chan struct{}
	entered  chan struct{}
}

func newFakeBackend(n, limit int) *fakeBackend {
	b := &fakeBackend{limit: limit}
	for i := 1; i <= n; i++ {
		b.products = append(b.products, inventory.Product{
			ID:       fmt.Sprintf("p%02d", i),
			Name:     fmt.Sprintf("Product %d", i),
			SKU:      fmt.Sprintf("SKU-%02d", i),
			Category: "Home",
			Price:    decimal.MustParse("9.99"),
			Quantity: 5,
		})
	}
	return b
}

func (b *fakeBackend) ListProducts(_ context.Context, key inventory.QueryKey) (inventory.ProductList, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists++
	total := len(b.products)
	start := (key.Page - 1) * b.limit
	end := min(start+b.limit, total)
	list := inventory.ProductList{Pagination: inventory.Pagination{
		Page:  key.Page,
		Limit: b.limit,
		Total: total,
		Pages: (total + b.limit - 1) / b.limit,
	}}
	if start < total {
		list.Products = append(list.Products, b.products[start:end]...)
	}
	return list, nil
}

func (b *fakeBackend) GetProduct(_ context.Context, id string) (inventory.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.products {
		if p.ID == id {
			return p, nil
		}
	}
	return inventory.Product{}, &inventory.APIError{Status: 404, Message: "Product not found"}
}

func (b *fakeBackend) enter() error {
	b.mu.Lock()
	b.calls++
	hold, entered, err := b.hold, b.entered, b.err
	b.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if hold != nil {
		<-hold
	}
	return err
}

func (b *fakeBackend) CreateProduct(_ context.Context, in inventory.ProductInput) (inventory.Product, error) {
	if err := b.enter(); err != nil {
		return inventory.Product{}, err
	}
	return inventory.Product{ID: "new", Name: in.Name, SKU: in.SKU, Category: in.Category, Price: in.Price, Quantity: in.Quantity}, nil
}

func (b *fakeBackend) UpdateProduct(_ context.Context, id string, in inventory.ProductInput) (inventory.Product, error) {
	if err := b.enter(); err != nil {
		return inventory.Product{}, err
	}
	p := inventory.Product{ID: id, Name: in.Name, SKU: in.SKU, Category: in.Category, Price: in.Price, Quantity: in.Quantity}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.products {
		if b.products[i].ID == id {
			b.products[i] = p
		}
	}
	return p, nil
}

func (b *fakeBackend) DeleteProduct(_ context.Context, id string) error {
	if err := b.enter(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, p := range b.products {
		if p.ID == id {
			b.products = append(b.products[:i], b.products[i+1:]...)
			break
		}
	}
	return nil
}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *fakeBackend) listCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lists
}

type coordFixture struct {
	backend *fakeBackend
	cache   *cache.Cache
	sync    *Synchronizer
	coord   *Coordinator
}

func newCoordFixture(t *testing.T, products int, location string) *coordFixture {
	t.Helper()
	f := &coordFixture{backend: newFakeBackend(products, 10)}
	f.cache = cache.New(f.backend, cache.Options{})
	f.sync = NewSynchronizer(context.Background(), f.cache, NewLocation(location), nil, SyncOptions{PageSize: 10})
	t.Cleanup(f.sync.Close)
	f.coord = NewCoordinator(f.backend, f.cache, f.sync, nil)

	f.sync.Initialize(location)
	f.cache.Wait()
	return f
}

func draft() inventory.ProductDraft {
	return inventory.ProductDraft{Name: "Lamp", SKU: "lamp-1", Category: "Home", Price: "12.50", Quantity: "3", MinStockLevel: "1"}
}

func TestCoordinator_DeleteLastItemStepsBackAPage(t *testing.T) {
	f := newCoordFixture(t, 21, "page=3")

	view, ok := f.cache.Peek(f.sync.Key())
	require.True(t, ok)
	require.Len(t, view.List.Products, 1)
	require.Equal(t, 3, view.List.Pagination.Pages)

	require.NoError(t, f.coord.Delete(context.Background(), "p21"))

	require.Equal(t, 2, f.sync.State().Page)
	require.Equal(t, "page=2", f.sync.Location().String())

	f.cache.Wait()
	view, _ = f.cache.Peek(f.sync.Key())
	require.Len(t, view.List.Products, 10)
}

func TestCoordinator_DeleteKeepsPageWhenItemsRemain(t *testing.T) {
	f := newCoordFixture(t, 15, "page=2")

	require.NoError(t, f.coord.Delete(context.Background(), "p11"))
	require.Equal(t, 2, f.sync.State().Page)

	view, _ := f.cache.Peek(f.sync.Key())
	require.False(t, view.List.Contains("p11"))
	require.Equal(t, 14, view.List.Pagination.Total)
}

func TestCoordinator_CreateRejectsShortSKUWithoutRequest(t *testing.T) {
	f := newCoordFixture(t, 3, "")

	d := draft()
	d.SKU = "ab"
	_, err := f.coord.Create(context.Background(), d)

	var fieldErrs inventory.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Equal(t, "must be at least 3 characters", fieldErrs["sku"])
	require.Zero(t, f.backend.callCount())
}

func TestCoordinator_CreateInsertsIntoCachedPages(t *testing.T) {
	f := newCoordFixture(t, 3, "")

	p, err := f.coord.Create(context.Background(), draft())
	require.NoError(t, err)
	require.Equal(t, "LAMP-1", p.SKU)

	view, _ := f.cache.Peek(f.sync.Key())
	require.Equal(t, "new", view.List.Products[0].ID)
	require.Equal(t, 4, view.List.Pagination.Total)
}

func TestCoordinator_FailureLeavesCacheUntouched(t *testing.T) {
	f := newCoordFixture(t, 3, "")
	f.backend.err = &inventory.APIError{Status: 400, Message: "SKU already exists"}

	_, err := f.coord.Create(context.Background(), draft())
	var apiErr *inventory.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "SKU already exists", apiErr.Message)

	view, _ := f.cache.Peek(f.sync.Key())
	require.Len(t, view.List.Products, 3)
	require.Equal(t, 3, view.List.Pagination.Total)
}

func TestCoordinator_UpdateRefetchesOnlyWhenFiltersMayDiffer(t *testing.T) {
	f := newCoordFixture(t, 3, "")
	require.Equal(t, 1, f.backend.listCount())

	d := inventory.DraftFrom(f.backend.products[0])
	d.MinStockLevel = "4"
	_, err := f.coord.Update(context.Background(), "p01", d)
	require.NoError(t, err)
	view, _ := f.cache.Peek(f.sync.Key())
	require.False(t, view.Stale, "threshold change should patch without invalidating")
	f.cache.Wait()
	require.Equal(t, 1, f.backend.listCount())

	d.Category = "Toys"
	updated, err := f.coord.Update(context.Background(), "p01", d)
	require.NoError(t, err)
	f.cache.Wait()
	require.Equal(t, 2, f.backend.listCount(), "category change should refetch the page on screen")

	view, _ = f.cache.Peek(f.sync.Key())
	require.False(t, view.Stale)
	require.Equal(t, updated.Category, view.List.Products[0].Category)
}

func TestCoordinator_OneMutationAtATime(t *testing.T) {
	f := newCoordFixture(t, 3, "")
	f.backend.hold = make(chan struct{})
	f.backend.entered = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		_, err := f.coord.Create(context.Background(), draft())
		done <- err
	}()
	<-f.backend.entered

	require.True(t, f.coord.Pending())
	require.True(t, errors.Is(f.coord.Delete(context.Background(), "p01"), ErrMutationPending))

	close(f.backend.hold)
	require.NoError(t, <-done)
	require.False(t, f.coord.Pending())
}
