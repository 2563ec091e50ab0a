package ui

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/require"

	"github.com/five82/shelf/internal/browse"
	"github.com/five82/shelf/internal/cache"
	"github.com/five82/shelf/internal/inventory"
	"github.com/five82/shelf/internal/session"
	"github.com/five82/shelf/internal/state"
)

// fakeBackend serves a fixed catalogue and accepts one set of credentials.
type fakeBackend struct {
	mu       sync.Mutex
	products []inventory.Product
	limit    int
}

func newFakeBackend(n, limit int) *fakeBackend {
	b := &fakeBackend{limit: limit}
	for i := 1; i <= n; i++ {
		b.products = append(b.products, inventory.Product{
			ID:            fmt.Sprintf("p%02d", i),
			Name:          fmt.Sprintf("Product %d", i),
			SKU:           fmt.Sprintf("SKU-%02d", i),
			Category:      "Home",
			Price:         decimal.MustParse("9.99"),
			Quantity:      5,
			MinStockLevel: 1,
			IsActive:      true,
		})
	}
	return b
}

var testUser = inventory.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}

func (b *fakeBackend) Login(_ context.Context, creds inventory.Credentials) (inventory.AuthResult, error) {
	if creds.Email != testUser.Email || creds.Password != "secret" {
		return inventory.AuthResult{}, inventory.ErrUnauthorized
	}
	return inventory.AuthResult{User: testUser, Token: "token-1"}, nil
}

func (b *fakeBackend) Register(_ context.Context, reg inventory.Registration) (inventory.AuthResult, error) {
	return inventory.AuthResult{User: inventory.User{ID: "u2", Name: reg.Name, Email: reg.Email}, Token: "token-2"}, nil
}

func (b *fakeBackend) Me(context.Context) (inventory.User, error) {
	return testUser, nil
}

func (b *fakeBackend) ListProducts(_ context.Context, key inventory.QueryKey) (inventory.ProductList, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
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

func (b *fakeBackend) CreateProduct(_ context.Context, in inventory.ProductInput) (inventory.Product, error) {
	if in.SKU == "TAKEN" {
		return inventory.Product{}, inventory.FieldErrors{"sku": "already exists"}
	}
	return inventory.Product{ID: "new", Name: in.Name, SKU: in.SKU, Category: in.Category, Price: in.Price, Quantity: in.Quantity}, nil
}

func (b *fakeBackend) UpdateProduct(_ context.Context, id string, in inventory.ProductInput) (inventory.Product, error) {
	return inventory.Product{ID: id, Name: in.Name, SKU: in.SKU, Category: in.Category, Price: in.Price, Quantity: in.Quantity}, nil
}

func (b *fakeBackend) DeleteProduct(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, p := range b.products {
		if p.ID == id {
			b.products = append(b.products[:i], b.products[i+1:]...)
			return nil
		}
	}
	return &inventory.APIError{Status: 404, Message: "Product not found"}
}

type fixture struct {
	backend *fakeBackend
	session *session.Store
	store   *state.Store
	cache   *cache.Cache
	sync    *browse.Synchronizer
	bridge  *Bridge
	opts    Options
}

func newFixture(t *testing.T, products int, signedIn bool) *fixture {
	t.Helper()
	f := &fixture{backend: newFakeBackend(products, 10), store: &state.Store{}, bridge: NewBridge(0)}

	sess, err := session.Open(filepath.Join(t.TempDir(), "credentials.json"), nil)
	require.NoError(t, err)
	if signedIn {
		require.NoError(t, sess.Save(inventory.AuthResult{User: testUser, Token: "token-0"}))
		f.store.SignedIn(testUser)
	}
	f.session = sess

	f.cache = cache.New(f.backend, cache.Options{})
	f.cache.Subscribe(f.bridge.CacheNotify)
	f.sync = browse.NewSynchronizer(context.Background(), f.cache, browse.NewLocation(""), f.bridge.SyncNotify,
		browse.SyncOptions{PageSize: 10, Debounce: time.Hour})
	t.Cleanup(f.sync.Close)

	f.opts = Options{
		Client:      f.backend,
		Session:     sess,
		Store:       f.store,
		Cache:       f.cache,
		Sync:        f.sync,
		Coordinator: browse.NewCoordinator(f.backend, f.cache, f.sync, nil),
		Bridge:      f.bridge,
	}
	return f
}

// model builds the UI and waits for the first page to land in the cache.
func (f *fixture) model(t *testing.T, location string) Model {
	t.Helper()
	f.opts.LastLocation = location
	m := New(f.opts)
	f.cache.Wait()
	m.syncView()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestNew_SignedOutStartsAtLogin(t *testing.T) {
	f := newFixture(t, 5, false)
	m := f.model(t, "")
	require.Equal(t, ViewLogin, m.currentView)
	require.False(t, m.browse.initialized)
	require.NotEmpty(t, m.View())
}

func TestNew_RestoresLocation(t *testing.T) {
	f := newFixture(t, 25, true)
	m := f.model(t, "search=Product&page=2")

	require.Equal(t, ViewProducts, m.currentView)
	require.True(t, m.browse.initialized)
	require.Equal(t, "Product", m.searchInput.Value())
	require.Equal(t, 2, m.browse.key.Page)
	require.Equal(t, "page=2&search=Product", f.sync.Location().String())
	require.Len(t, m.browse.view.List.Products, 10)
	require.NotEmpty(t, m.View())
}

func TestModel_PagingKeys(t *testing.T) {
	f := newFixture(t, 25, true)
	m := f.model(t, "")

	m, _ = update(t, m, keyRunes("n"))
	require.Equal(t, "page=2", f.sync.Location().String())
	f.cache.Wait()
	m.syncView()
	require.Equal(t, "p11", m.browse.view.List.Products[0].ID)

	m, _ = update(t, m, keyRunes("n"))
	f.cache.Wait()
	m, _ = update(t, m, keyRunes("n"))
	require.Equal(t, "page=3", f.sync.Location().String(), "paging past the last page clamps")

	m, _ = update(t, m, keyRunes("p"))
	require.Equal(t, "page=2", f.sync.Location().String())
}

func TestModel_SearchTypingIsDebounced(t *testing.T) {
	f := newFixture(t, 5, true)
	m := f.model(t, "")

	m, _ = update(t, m, keyRunes("/"))
	require.True(t, m.searchFocused)

	m, _ = update(t, m, keyRunes("la"))
	require.Equal(t, "la", f.sync.State().SearchText)
	require.True(t, f.sync.PendingCommit())
	require.Equal(t, "", f.sync.Location().String(), "location waits for the debounce")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	require.False(t, f.sync.PendingCommit())
	require.Equal(t, "", f.sync.State().SearchText)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, m.searchFocused)
}

func TestModel_FiltersSubmittedFlagsInvertedRange(t *testing.T) {
	f := newFixture(t, 25, true)
	m := f.model(t, "page=2")

	m, _ = update(t, m, keyRunes("f"))
	_, ok := m.modal.(*filterModal)
	require.True(t, ok)

	m, _ = update(t, m, filtersSubmitMsg{filters: inventory.FilterSet{
		MinPrice: decimalPtr("50"),
		MaxPrice: decimalPtr("10"),
	}})
	require.Nil(t, m.modal)
	require.True(t, m.flash.isErr)
	require.Contains(t, m.flash.text, "Minimum price")
	require.Equal(t, "maxPrice=10&minPrice=50", f.sync.Location().String())
	require.Equal(t, 1, f.sync.State().Page)
}

func TestModel_DeleteFlow(t *testing.T) {
	f := newFixture(t, 3, true)
	m := f.model(t, "")
	require.Len(t, m.browse.view.List.Products, 3)

	m, _ = update(t, m, keyRunes("d"))
	confirm, ok := m.modal.(*confirmDelete)
	require.True(t, ok)
	require.Equal(t, "p01", confirm.product.ID)

	m, cmd := update(t, m, keyRunes("y"))
	require.Nil(t, m.modal)
	m, cmd = update(t, m, cmd())
	require.NotNil(t, cmd)

	m, _ = update(t, m, cmd())
	require.False(t, m.flash.isErr)
	require.Equal(t, "Product deleted", m.flash.text)
	require.Len(t, m.browse.view.List.Products, 2)
}

func TestModel_MutationFieldErrorsStayInForm(t *testing.T) {
	f := newFixture(t, 3, true)
	m := f.model(t, "")

	form := newProductForm("", inventory.ProductDraft{
		Name: "Kettle", SKU: "taken", Category: "Home", Price: "20", Quantity: "1", MinStockLevel: "0", IsActive: true,
	})
	m.modal = form

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	m, cmd = update(t, m, cmd())
	require.True(t, form.saving)
	m, _ = update(t, m, cmd())

	require.Same(t, form, m.modal)
	require.False(t, form.saving)
	require.Equal(t, "already exists", form.fieldErrs["sku"])
}

func TestModel_CreateClosesForm(t *testing.T) {
	f := newFixture(t, 3, true)
	m := f.model(t, "")

	m, _ = update(t, m, keyRunes("c"))
	_, ok := m.modal.(*productForm)
	require.True(t, ok)

	m, _ = update(t, m, mutationMsg{op: opCreate, id: "new", product: inventory.Product{ID: "new", Name: "Kettle"}})
	require.Nil(t, m.modal)
	require.Equal(t, "Kettle created", m.flash.text)
}

func TestModel_UnauthorizedFetchReturnsToLogin(t *testing.T) {
	f := newFixture(t, 3, true)
	m := f.model(t, "search=Product")

	m, _ = update(t, m, cacheMsg(cache.Event{Kind: cache.EventFetchFailed, Err: inventory.ErrUnauthorized}))
	require.Equal(t, ViewLogin, m.currentView)
	require.NotEmpty(t, m.login.err)
	require.True(t, f.store.Snapshot().SessionExpired)
	require.Equal(t, "search=Product", f.sync.Location().String())
}

func TestModel_Login(t *testing.T) {
	f := newFixture(t, 12, false)
	m := f.model(t, "page=2")

	m, _ = update(t, m, keyRunes(testUser.Email))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(t, m, keyRunes("wrong"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.login.busy)
	m, _ = update(t, m, cmd())
	require.Equal(t, "Email or password is incorrect", m.login.err)
	require.Equal(t, ViewLogin, m.currentView)

	m.login.inputs[loginPassword].SetValue("secret")
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, cmd())

	require.Equal(t, ViewProducts, m.currentView)
	require.Equal(t, "token-1", f.session.Token())
	require.True(t, f.store.Snapshot().HasUser)
	require.True(t, m.browse.initialized)
	require.Equal(t, "page=2", f.sync.Location().String())
}

func TestModel_LogoutClearsSession(t *testing.T) {
	f := newFixture(t, 3, true)
	m := f.model(t, "")

	m, _ = update(t, m, keyRunes("O"))
	require.Equal(t, ViewLogin, m.currentView)
	require.Equal(t, "", f.session.Token())
	require.False(t, f.store.Snapshot().HasUser)
}

func TestModel_CycleTheme(t *testing.T) {
	f := newFixture(t, 1, true)
	m := f.model(t, "")
	require.Equal(t, "Nightfox", m.theme.Name)

	m, _ = update(t, m, keyRunes("T"))
	require.Equal(t, "Kanagawa", m.theme.Name)
}

func TestDescribeError(t *testing.T) {
	refused := &inventory.TransportError{Op: "GET /products", Err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}}
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"transport", refused, "Backend offline"},
		{"api message verbatim", &inventory.APIError{Status: 400, Message: "Product with this SKU already exists"}, "Product with this SKU already exists"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, describeError(tt.err))
		})
	}
}

func TestClassifyConnectionError(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"dial tcp: connection refused", "offline"},
		{"dial tcp: lookup api: no such host", "host not found"},
		{"context deadline exceeded", "timed out"},
		{"i/o timeout", "timed out"},
		{"broken pipe", "unreachable"},
	}
	for _, tt := range tests {
		if got := classifyConnectionError(errors.New(tt.msg)); got != tt.want {
			t.Errorf("classifyConnectionError(%q) = %q, want %q", tt.msg, got, tt.want)
		}
	}
}

func TestModel_HelpOverlay(t *testing.T) {
	f := newFixture(t, 1, true)
	m := f.model(t, "")

	m, _ = update(t, m, keyRunes("?"))
	require.True(t, m.showHelp)
	require.Contains(t, m.View(), "Keyboard")

	m, _ = update(t, m, keyRunes("n"))
	require.False(t, m.showHelp)
	require.Equal(t, "", f.sync.Location().String(), "the key that closes help is not acted on")
}
