package inventory

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/govalues/decimal"
)

type memTokens struct {
	mu      sync.Mutex
	token   string
	cleared int
}

func (m *memTokens) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *memTokens) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.cleared++
	return nil
}

func writeEnvelope(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != defaultBaseURL {
		t.Fatalf("url = %q, want %q", u.String(), defaultBaseURL)
	}

	u, err = parseBaseURL("example.com:1234/api?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Path != "/api" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_ListProductsEncodesQueryAndAuth(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	var gotAuth, gotPath, gotRequestID string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get("X-Request-ID")
		writeEnvelope(w, http.StatusOK, `{
			"success": true,
			"message": "ok",
			"data": [{"_id": "p1", "name": "Widget", "sku": "WID-1", "price": 19.99, "quantity": 3, "minStockLevel": 5}],
			"pagination": {"page": 2, "limit": 5, "total": 6, "pages": 2}
		}`)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL+"/api", ClientOptions{Tokens: &memTokens{token: "tok"}})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	minPrice := decimal.MustParse("10")
	key := NewQueryKey(FilterSet{Search: "wid", Category: "Toys", MinPrice: &minPrice, InStock: true}, PageRequest{Page: 2, Limit: 5})
	list, err := c.ListProducts(ctx, key)
	if err != nil {
		t.Fatalf("ListProducts returned error: %v", err)
	}
	if gotPath != "/api/products" {
		t.Fatalf("path = %q, want /api/products", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("Authorization = %q, want Bearer tok", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatalf("X-Request-ID missing")
	}
	if gotQuery.Get("page") != "2" ||
		gotQuery.Get("limit") != "5" ||
		gotQuery.Get("search") != "wid" ||
		gotQuery.Get("category") != "Toys" ||
		gotQuery.Get("minPrice") != "10" ||
		gotQuery.Get("inStock") != "true" ||
		gotQuery.Has("maxPrice") {
		t.Fatalf("query = %v, want params encoded", gotQuery)
	}
	if len(list.Products) != 1 || list.Products[0].ID != "p1" {
		t.Fatalf("products = %#v, want one product p1", list.Products)
	}
	if list.Products[0].Price.String() != "19.99" {
		t.Fatalf("price = %s, want 19.99", list.Products[0].Price)
	}
	if list.Pagination.Pages != 2 || list.Pagination.Total != 6 {
		t.Fatalf("pagination = %#v", list.Pagination)
	}
}

func TestClient_SuccessFalseIsApplicationError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, `{"success": false, "message": "SKU already exists"}`)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, ClientOptions{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.CreateProduct(context.Background(), ProductInput{Name: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Message != "SKU already exists" {
		t.Fatalf("message = %q, want server message verbatim", apiErr.Message)
	}
	if Classify(err) != KindApplication {
		t.Fatalf("Classify = %v, want application", Classify(err))
	}
}

func TestClient_UnauthorizedClearsTokens(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, `{"success": false, "message": "jwt expired"}`)
	}))
	t.Cleanup(server.Close)

	tokens := &memTokens{token: "old"}
	c, err := NewClient(server.URL, ClientOptions{Tokens: tokens})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.Me(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
	if tokens.cleared != 1 || tokens.Token() != "" {
		t.Fatalf("tokens cleared=%d token=%q, want cleared once", tokens.cleared, tokens.Token())
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/bad-json":
			writeEnvelope(w, http.StatusOK, "{not-json")
		case "/products/boom":
			http.Error(w, "nope", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, ClientOptions{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.GetProduct(context.Background(), "bad-json")
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("GetProduct error = %v, want decode response error", err)
	}

	_, err = c.GetProduct(context.Background(), "boom")
	if err == nil || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("GetProduct error = %v, want status 500 error", err)
	}
}

func TestClient_TransportError(t *testing.T) {
	c, err := NewClient("127.0.0.1:1", ClientOptions{Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.ListProducts(context.Background(), QueryKey{})
	if Classify(err) != KindTransport {
		t.Fatalf("Classify(%v) = %v, want network", err, Classify(err))
	}
}

func TestClient_CreateSendsPriceAsNumber(t *testing.T) {
	t.Parallel()

	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeEnvelope(w, http.StatusCreated, `{"success": true, "data": {"_id": "new", "name": "Lamp", "sku": "LAMP-1", "price": 12.5}}`)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, ClientOptions{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	p, err := c.CreateProduct(context.Background(), ProductInput{Name: "Lamp", SKU: "LAMP-1", Price: decimal.MustParse("12.50")})
	if err != nil {
		t.Fatalf("CreateProduct returned error: %v", err)
	}
	if p.ID != "new" {
		t.Fatalf("id = %q, want new", p.ID)
	}
	if price, ok := body["price"].(float64); !ok || price != 12.5 {
		t.Fatalf("price in body = %#v, want number 12.5", body["price"])
	}
}

func TestClient_MeAcceptsWrappedAndBareUser(t *testing.T) {
	t.Parallel()

	var wrapped atomic.Bool
	wrapped.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wrapped.Load() {
			writeEnvelope(w, http.StatusOK, `{"success": true, "data": {"user": {"_id": "u1", "email": "a@b.c"}}}`)
			return
		}
		writeEnvelope(w, http.StatusOK, `{"success": true, "data": {"_id": "u2", "email": "d@e.f"}}`)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, ClientOptions{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	u, err := c.Me(context.Background())
	if err != nil || u.ID != "u1" {
		t.Fatalf("Me = %#v, %v; want u1", u, err)
	}
	wrapped.Store(false)
	u, err = c.Me(context.Background())
	if err != nil || u.ID != "u2" {
		t.Fatalf("Me = %#v, %v; want u2", u, err)
	}
}
