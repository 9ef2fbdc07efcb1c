package adapter

import (
	"context"

	"storefront-catalog/internal/cache"
	"storefront-catalog/internal/chat"
	"storefront-catalog/internal/model"
	"storefront-catalog/internal/woocommerce"
)

// Mock implements Catalog and Concierge for testing.
// Each method can be configured via function fields.
type Mock struct {
	ProductsFunc    func(ctx context.Context, q woocommerce.ProductQuery, categoryNames []string) ([]woocommerce.Product, cache.Status, error)
	CategoriesFunc  func(ctx context.Context) ([]woocommerce.Category, cache.Status, error)
	CollectionFunc  func(ctx context.Context, name string) ([]model.Product, error)
	CollectionsFunc func(ctx context.Context) map[string][]model.Product
	SearchFunc      func(ctx context.Context, query string, limit int) ([]model.Product, error)
	ReplyFunc       func(ctx context.Context, req chat.Request) (string, error)
}

// Products calls the configured ProductsFunc or returns an empty list.
func (m *Mock) Products(ctx context.Context, q woocommerce.ProductQuery, categoryNames []string) ([]woocommerce.Product, cache.Status, error) {
	if m.ProductsFunc != nil {
		return m.ProductsFunc(ctx, q, categoryNames)
	}
	return []woocommerce.Product{}, cache.Status{}, nil
}

// Categories calls the configured CategoriesFunc or returns an empty list.
func (m *Mock) Categories(ctx context.Context) ([]woocommerce.Category, cache.Status, error) {
	if m.CategoriesFunc != nil {
		return m.CategoriesFunc(ctx)
	}
	return []woocommerce.Category{}, cache.Status{}, nil
}

// Collection calls the configured CollectionFunc or returns an empty list.
func (m *Mock) Collection(ctx context.Context, name string) ([]model.Product, error) {
	if m.CollectionFunc != nil {
		return m.CollectionFunc(ctx, name)
	}
	return []model.Product{}, nil
}

// Collections calls the configured CollectionsFunc or returns empty lists.
func (m *Mock) Collections(ctx context.Context) map[string][]model.Product {
	if m.CollectionsFunc != nil {
		return m.CollectionsFunc(ctx)
	}
	out := map[string][]model.Product{}
	for _, name := range m.Names() {
		out[name] = []model.Product{}
	}
	return out
}

// Search calls the configured SearchFunc or returns an empty list.
func (m *Mock) Search(ctx context.Context, query string, limit int) ([]model.Product, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, limit)
	}
	return []model.Product{}, nil
}

// Names returns the five storefront collections.
func (m *Mock) Names() []string {
	return []string{
		model.CollectionFlower,
		model.CollectionVape,
		model.CollectionWax,
		model.CollectionEdible,
		model.CollectionMoonwater,
	}
}

// Reply calls the configured ReplyFunc or returns an error.
func (m *Mock) Reply(ctx context.Context, req chat.Request) (string, error) {
	if m.ReplyFunc != nil {
		return m.ReplyFunc(ctx, req)
	}
	return "", model.NewChatError(nil)
}

// Verify Mock implements both interfaces at compile time.
var (
	_ Catalog   = (*Mock)(nil)
	_ Concierge = (*Mock)(nil)
)
