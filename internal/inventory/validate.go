package inventory

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/govalues/decimal"
)

// Categories is the fixed set of labels a product may carry.
var Categories = []string{
	"Electronics",
	"Clothing",
	"Food",
	"Books",
	"Home",
	"Sports",
	"Toys",
	"Other",
}

const (
	maxNameLen = 100
	minSKULen  = 3
	maxSKULen  = 50
)

var imageURLRe = regexp.MustCompile(`^https?://[^\s/$.?#][^\s]*$`)

// ProductDraft is the raw form input for create and update.
type ProductDraft struct {
	Name          string
	SKU           string
	Category      string
	Price         string
	Quantity      string
	MinStockLevel string
	Images        []string
	IsActive      bool
}

// DraftFrom prefills a draft from an existing product.
func DraftFrom(p Product) ProductDraft {
	return ProductDraft{
		Name:          p.Name,
		SKU:           p.SKU,
		Category:      p.Category,
		Price:         p.Price.String(),
		Quantity:      strconv.Itoa(p.Quantity),
		MinStockLevel: strconv.Itoa(p.MinStockLevel),
		Images:        append([]string(nil), p.Images...),
		IsActive:      p.IsActive,
	}
}

// ProductInput is the validated request body for POST/PUT /products.
type ProductInput struct {
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"-"`
	Quantity      int             `json:"quantity"`
	MinStockLevel int             `json:"minStockLevel"`
	Images        []string        `json:"images"`
	IsActive      bool            `json:"isActive"`
}

// MarshalJSON sends the price as a JSON number.
func (in ProductInput) MarshalJSON() ([]byte, error) {
	type wire ProductInput
	return json.Marshal(struct {
		wire
		Price json.Number `json:"price"`
	}{wire(in), json.Number(in.Price.String())})
}

// Validate checks the draft and returns the normalized input. The returned
// FieldErrors is nil when the draft is valid.
func (d ProductDraft) Validate() (ProductInput, FieldErrors) {
	errs := FieldErrors{}
	in := ProductInput{IsActive: d.IsActive}

	in.Name = strings.TrimSpace(d.Name)
	switch {
	case in.Name == "":
		errs["name"] = "is required"
	case utf8.RuneCountInString(in.Name) > maxNameLen:
		errs["name"] = fmt.Sprintf("must be at most %d characters", maxNameLen)
	}

	in.SKU = strings.ToUpper(strings.TrimSpace(d.SKU))
	switch n := utf8.RuneCountInString(in.SKU); {
	case n == 0:
		errs["sku"] = "is required"
	case n < minSKULen:
		errs["sku"] = fmt.Sprintf("must be at least %d characters", minSKULen)
	case n > maxSKULen:
		errs["sku"] = fmt.Sprintf("must be at most %d characters", maxSKULen)
	}

	in.Category = strings.TrimSpace(d.Category)
	switch {
	case in.Category == "":
		errs["category"] = "is required"
	case !slices.Contains(Categories, in.Category):
		errs["category"] = "must be one of " + strings.Join(Categories, ", ")
	}

	if raw := strings.TrimSpace(d.Price); raw == "" {
		errs["price"] = "is required"
	} else if price, err := decimal.Parse(raw); err != nil {
		errs["price"] = "must be a number"
	} else if !price.IsPos() {
		errs["price"] = "must be greater than 0"
	} else {
		in.Price = price
	}

	if n, msg := parseCount(d.Quantity); msg != "" {
		errs["quantity"] = msg
	} else {
		in.Quantity = n
	}
	if n, msg := parseCount(d.MinStockLevel); msg != "" {
		errs["minStockLevel"] = msg
	} else {
		in.MinStockLevel = n
	}

	in.Images = make([]string, 0, len(d.Images))
	for _, raw := range d.Images {
		u := strings.TrimSpace(raw)
		if u == "" {
			continue
		}
		if !imageURLRe.MatchString(u) {
			errs["images"] = fmt.Sprintf("%q is not an http(s) URL", u)
			break
		}
		if slices.Contains(in.Images, u) {
			errs["images"] = fmt.Sprintf("%q is listed twice", u)
			break
		}
		in.Images = append(in.Images, u)
	}

	if len(errs) == 0 {
		return in, nil
	}
	return in, errs
}

// AddImage appends url to images, rejecting malformed and duplicate entries.
func AddImage(images []string, url string) ([]string, error) {
	u := strings.TrimSpace(url)
	if !imageURLRe.MatchString(u) {
		return images, fmt.Errorf("image URL must start with http:// or https://")
	}
	if slices.Contains(images, u) {
		return images, fmt.Errorf("image URL already added")
	}
	return append(images, u), nil
}

func parseCount(raw string) (int, string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, "is required"
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, "must be a whole number"
	}
	if n < 0 {
		return 0, "must be 0 or more"
	}
	return n, ""
}
