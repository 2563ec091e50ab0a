package inventory

import (
	"net/url"
	"strconv"

	"github.com/govalues/decimal"
)

// DefaultPageSize is used when a PageRequest carries no usable limit.
const DefaultPageSize = 10

// FilterSet narrows a product list. Zero values mean "no constraint".
type FilterSet struct {
	Search   string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	InStock  bool
}

// IsZero reports whether no filter dimension is constrained.
func (f FilterSet) IsZero() bool {
	return f.Search == "" && f.Category == "" && f.MinPrice == nil && f.MaxPrice == nil && !f.InStock
}

// PriceRangeInverted reports a minimum price above the maximum. The backend
// accepts such a filter and simply returns nothing.
func (f FilterSet) PriceRangeInverted() bool {
	if f.MinPrice == nil || f.MaxPrice == nil {
		return false
	}
	return f.MinPrice.Cmp(*f.MaxPrice) > 0
}

// Equal compares every dimension, prices by value and scale.
func (f FilterSet) Equal(other FilterSet) bool {
	return NewQueryKey(f, PageRequest{}) == NewQueryKey(other, PageRequest{})
}

// PageRequest is a 1-based page number and a page size.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize clamps the request to positive values.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	return p
}

// QueryKey identifies one cacheable product page. It is comparable and can be
// used directly as a map key.
type QueryKey struct {
	Search   string
	Category string
	MinPrice string
	MaxPrice string
	InStock  bool
	Page     int
	Limit    int
}

// NewQueryKey canonicalizes a filter set and page request.
func NewQueryKey(f FilterSet, p PageRequest) QueryKey {
	key := QueryKey{
		Search:   f.Search,
		Category: f.Category,
		InStock:  f.InStock,
		Page:     p.Page,
		Limit:    p.Limit,
	}
	if f.MinPrice != nil {
		key.MinPrice = f.MinPrice.String()
	}
	if f.MaxPrice != nil {
		key.MaxPrice = f.MaxPrice.String()
	}
	return key
}

// Filters rebuilds the FilterSet the key was made from.
func (k QueryKey) Filters() FilterSet {
	return FilterSet{
		Search:   k.Search,
		Category: k.Category,
		MinPrice: parsePrice(k.MinPrice),
		MaxPrice: parsePrice(k.MaxPrice),
		InStock:  k.InStock,
	}
}

// PageRequest returns the paging half of the key.
func (k QueryKey) PageRequest() PageRequest {
	return PageRequest{Page: k.Page, Limit: k.Limit}
}

// WithPage returns a copy of the key pointing at another page.
func (k QueryKey) WithPage(page int) QueryKey {
	k.Page = page
	return k
}

// Values encodes the key as /products query parameters.
func (k QueryKey) Values() url.Values {
	p := k.PageRequest().Normalize()
	values := url.Values{}
	values.Set("page", strconv.Itoa(p.Page))
	values.Set("limit", strconv.Itoa(p.Limit))
	if k.Search != "" {
		values.Set("search", k.Search)
	}
	if k.Category != "" {
		values.Set("category", k.Category)
	}
	if k.MinPrice != "" {
		values.Set("minPrice", k.MinPrice)
	}
	if k.MaxPrice != "" {
		values.Set("maxPrice", k.MaxPrice)
	}
	if k.InStock {
		values.Set("inStock", "true")
	}
	return values
}

// String is the canonical encoding of the key.
func (k QueryKey) String() string {
	return k.Values().Encode()
}

// ParsePrice parses a non-negative price. Anything else yields nil.
func ParsePrice(raw string) *decimal.Decimal {
	return parsePrice(raw)
}

func parsePrice(raw string) *decimal.Decimal {
	if raw == "" {
		return nil
	}
	d, err := decimal.Parse(raw)
	if err != nil || d.IsNeg() {
		return nil
	}
	return &d
}
