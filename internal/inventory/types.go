package inventory

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/govalues/decimal"
)

// Envelope mirrors the wrapper every backend response uses.
type Envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data,omitempty"`
	Pagination *Pagination     `json:"pagination,omitempty"`
	Error      json.RawMessage `json:"error,omitempty"`
}

// Pagination describes where a product page sits in the full result set.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ProductList is one page of products plus its pagination block.
type ProductList struct {
	Products   []Product
	Pagination Pagination
}

// Clone returns a deep copy safe to hand to another goroutine.
func (l ProductList) Clone() ProductList {
	out := ProductList{Pagination: l.Pagination}
	if l.Products != nil {
		out.Products = make([]Product, len(l.Products))
		for i, p := range l.Products {
			out.Products[i] = p.Clone()
		}
	}
	return out
}

// Contains reports whether a product with id is on the page.
func (l ProductList) Contains(id string) bool {
	return l.IndexOf(id) >= 0
}

// IndexOf returns the position of the product with id, or -1.
func (l ProductList) IndexOf(id string) int {
	for i, p := range l.Products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// StockStatus is derived from quantity and the minimum stock level.
type StockStatus string

const (
	StockOut StockStatus = "out-of-stock"
	StockLow StockStatus = "low-stock"
	StockIn  StockStatus = "in-stock"
)

// Product mirrors the backend product record.
type Product struct {
	ID            string          `json:"_id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	MinStockLevel int             `json:"minStockLevel"`
	Images        []string        `json:"images"`
	IsActive      bool            `json:"isActive"`
	Owner         string          `json:"owner"`
	CreatedAt     string          `json:"createdAt"`
	UpdatedAt     string          `json:"updatedAt"`
}

// StockStatus classifies the product's quantity against its threshold.
func (p Product) StockStatus() StockStatus {
	switch {
	case p.Quantity <= 0:
		return StockOut
	case p.Quantity <= p.MinStockLevel:
		return StockLow
	default:
		return StockIn
	}
}

// Clone copies the product including its image slice.
func (p Product) Clone() Product {
	if p.Images != nil {
		p.Images = append([]string(nil), p.Images...)
	}
	return p
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (p Product) ParsedCreatedAt() time.Time {
	return parseTime(p.CreatedAt)
}

// ParsedUpdatedAt returns the parsed UpdatedAt timestamp.
func (p Product) ParsedUpdatedAt() time.Time {
	return parseTime(p.UpdatedAt)
}

// User is the authenticated account.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// AuthResult is the data block returned by login and register.
type AuthResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the register request body.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
