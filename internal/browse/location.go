package browse

import (
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/five82/shelf/internal/inventory"
)

// State is the single source of truth for what the list shows. SearchText is
// the raw input and may run ahead of Filters.Search until the debounce fires.
type State struct {
	Filters    inventory.FilterSet
	Page       int
	SearchText string
}

// Equal compares committed filters, page and raw search text.
func (s State) Equal(other State) bool {
	return s.Page == other.Page && s.SearchText == other.SearchText && s.Filters.Equal(other.Filters)
}

// Key derives the cache key for the state at the given page size.
func (s State) Key(limit int) inventory.QueryKey {
	return inventory.NewQueryKey(s.Filters, inventory.PageRequest{Page: s.Page, Limit: limit}.Normalize())
}

// ParseLocation reads a query string such as "search=lamp&page=2". Unknown
// parameters are ignored and malformed values are treated as absent.
func ParseLocation(raw string) State {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "?")
	// ParseQuery keeps every pair it could decode even when it reports an error.
	values, _ := url.ParseQuery(raw)

	st := State{Page: 1}
	st.Filters.Search = values.Get("search")
	st.Filters.Category = values.Get("category")
	st.Filters.MinPrice = inventory.ParsePrice(values.Get("minPrice"))
	st.Filters.MaxPrice = inventory.ParsePrice(values.Get("maxPrice"))
	if b, err := strconv.ParseBool(values.Get("inStock")); err == nil {
		st.Filters.InStock = b
	}
	if n, err := strconv.Atoi(values.Get("page")); err == nil && n > 1 {
		st.Page = n
	}
	st.SearchText = st.Filters.Search
	return st
}

// EncodeState produces the query string for a state. Empty fields are
// omitted, inStock only appears when true and page only when above 1.
func EncodeState(st State) string {
	values := url.Values{}
	f := st.Filters
	if f.Search != "" {
		values.Set("search", f.Search)
	}
	if f.Category != "" {
		values.Set("category", f.Category)
	}
	if f.MinPrice != nil {
		values.Set("minPrice", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		values.Set("maxPrice", f.MaxPrice.String())
	}
	if f.InStock {
		values.Set("inStock", "true")
	}
	if st.Page > 1 {
		values.Set("page", strconv.Itoa(st.Page))
	}
	return values.Encode()
}

// Location is the address the console is showing, kept as a query string.
// It stands in for a browser address bar: rewritten on every publish, shown
// in the header and saved to prefs on exit.
type Location struct {
	mu      sync.RWMutex
	raw     string
	changes int
}

// NewLocation starts at raw.
func NewLocation(raw string) *Location {
	return &Location{raw: strings.TrimPrefix(raw, "?")}
}

// Replace overwrites the current address.
func (l *Location) Replace(raw string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if raw != l.raw {
		l.changes++
	}
	l.raw = raw
}

// String returns the current query string without a leading "?".
func (l *Location) String() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.raw
}

// Changes counts how many times Replace actually changed the address.
func (l *Location) Changes() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.changes
}
