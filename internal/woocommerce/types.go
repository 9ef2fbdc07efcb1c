// Package woocommerce is the read-only client for the WooCommerce REST API
// (wc/v3). It fetches products and categories, caches every response by
// its request parameters, and maps non-2xx responses to *model.APIError.
package woocommerce

import "encoding/json"

// === WooCommerce REST API Response Types ===

// Product is a catalog record as returned by GET /products.
// Records are passed through to the proxy routes untouched, so unknown
// fields the storefront does not read are simply dropped.
type Product struct {
	ID               int         `json:"id"`
	Name             string      `json:"name"`
	Slug             string      `json:"slug"`
	Permalink        string      `json:"permalink,omitempty"`
	Type             string      `json:"type,omitempty"` // simple, variable, grouped, external
	Status           string      `json:"status,omitempty"`
	Featured         bool        `json:"featured"`
	Description      string      `json:"description"`
	ShortDescription string      `json:"short_description"`
	SKU              string      `json:"sku,omitempty"`
	Price            string      `json:"price"`         // "35" - string decimal, lowest variation price for variable products
	RegularPrice     string      `json:"regular_price"` // "35"
	SalePrice        string      `json:"sale_price"`    // "" when not on sale
	StockStatus      string      `json:"stock_status"`  // instock, outofstock, onbackorder
	StockQuantity    *int        `json:"stock_quantity"`
	Categories       []Term      `json:"categories"`
	Tags             []Term      `json:"tags"`
	Images           []Image     `json:"images"`
	Attributes       []Attribute `json:"attributes,omitempty"`
	Variations       []int       `json:"variations,omitempty"`
	MetaData         []Meta      `json:"meta_data"`

	// ACF is the Advanced Custom Fields object, present when the request
	// carries acf_format=standard and the store runs ACF.
	ACF json.RawMessage `json:"acf,omitempty"`
}

// Term is a category or tag reference embedded in a product.
type Term struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Image represents a product image.
type Image struct {
	ID   int    `json:"id"`
	Src  string `json:"src"`
	Name string `json:"name,omitempty"`
	Alt  string `json:"alt,omitempty"`
}

// Attribute is a product attribute (global or custom).
type Attribute struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// Meta is a custom field. WooCommerce stores whatever plugins write, so
// Value may be a string, number, array or object.
type Meta struct {
	ID    int             `json:"id"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Category is a product category as returned by GET /products/categories.
type Category struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Parent int    `json:"parent"`
	Count  int    `json:"count"`
}

// ErrorResponse represents a WooCommerce API error.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status int `json:"status"`
	} `json:"data"`
}

// === Request Types ===

// ProductQuery filters GET /products. Field order is part of the cache
// key, so new fields go at the end.
type ProductQuery struct {
	PerPage  int    `json:"per_page,omitempty"`
	Page     int    `json:"page,omitempty"`
	Search   string `json:"search,omitempty"`
	Category string `json:"category,omitempty"` // Comma-separated category ids
	Tag      string `json:"tag,omitempty"`      // Comma-separated tag ids
	Status   string `json:"status,omitempty"`
	Featured *bool  `json:"featured,omitempty"`
}

// Default query values.
const (
	DefaultPerPage = 100
	DefaultStatus  = "publish"
)

// withDefaults fills unset fields so equivalent queries share a cache key.
func (q ProductQuery) withDefaults() ProductQuery {
	if q.PerPage <= 0 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > DefaultPerPage {
		q.PerPage = DefaultPerPage
	}
	if q.Status == "" {
		q.Status = DefaultStatus
	}
	return q
}
