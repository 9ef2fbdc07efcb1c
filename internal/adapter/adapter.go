// Package adapter defines the interfaces the HTTP and MCP surfaces call.
// collection.Service implements Catalog and chat.Concierge implements
// Concierge; handlers depend only on these so tests can swap in Mock.
package adapter

import (
	"context"

	"storefront-catalog/internal/cache"
	"storefront-catalog/internal/chat"
	"storefront-catalog/internal/model"
	"storefront-catalog/internal/woocommerce"
)

// Catalog serves raw catalog reads and assembled collections.
type Catalog interface {
	// Products proxies GET /products. Non-empty categoryNames are resolved
	// to ids first; when none resolve the result is empty.
	Products(ctx context.Context, q woocommerce.ProductQuery, categoryNames []string) ([]woocommerce.Product, cache.Status, error)

	// Categories proxies GET /products/categories.
	Categories(ctx context.Context) ([]woocommerce.Category, cache.Status, error)

	// Collection assembles one named collection. Catalog failures yield
	// an empty list; only an unknown name is an error.
	Collection(ctx context.Context, name string) ([]model.Product, error)

	// Collections assembles every collection for the home page.
	Collections(ctx context.Context) map[string][]model.Product

	// Search runs a free-text search and returns normalized products.
	Search(ctx context.Context, query string, limit int) ([]model.Product, error)

	// Names lists the collection names in display order.
	Names() []string
}

// Concierge answers shopper chat messages.
type Concierge interface {
	// Reply returns the assistant's answer or a *model.APIError carrying
	// a fixed apology.
	Reply(ctx context.Context, req chat.Request) (string, error)
}
