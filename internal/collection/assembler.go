// Package collection assembles the per-collection product lists the
// storefront pages render: flower, vape, wax, edible and moonwater.
package collection

import (
	"context"
	"fmt"
	"log/slog"

	"storefront-catalog/internal/cache"
	"storefront-catalog/internal/catalog"
	"storefront-catalog/internal/model"
	"storefront-catalog/internal/woocommerce"
)

// FeaturedCount is how many leading products are flagged featured.
const FeaturedCount = 4

// ProductSource lists raw catalog products.
type ProductSource interface {
	ListProducts(ctx context.Context, q woocommerce.ProductQuery) ([]woocommerce.Product, cache.Status, error)
}

// CategoryResolver maps collection names to category ids.
type CategoryResolver interface {
	Resolve(ctx context.Context, names []string) ([]int, error)
}

// Assembler builds the product list for one collection.
type Assembler struct {
	profile  catalog.Profile
	resolver CategoryResolver
	products ProductSource
	logger   *slog.Logger
}

// NewAssembler creates an assembler for profile.
func NewAssembler(profile catalog.Profile, resolver CategoryResolver, products ProductSource, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		profile:  profile,
		resolver: resolver,
		products: products,
		logger:   logger,
	}
}

// Name returns the collection name.
func (a *Assembler) Name() string {
	return a.profile.Collection
}

// Profile returns the collection's constants.
func (a *Assembler) Profile() catalog.Profile {
	return a.profile
}

// Assemble returns the collection's products, never failing. Catalog
// errors are logged as a degraded event and yield an empty list so the
// page still renders.
func (a *Assembler) Assemble(ctx context.Context) []model.Product {
	products, err := a.assemble(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "collection degraded",
			slog.String("event", "catalog.degraded"),
			slog.String("collection", a.profile.Collection),
			slog.String("error", err.Error()),
		)
		return []model.Product{}
	}
	return products
}

func (a *Assembler) assemble(ctx context.Context) ([]model.Product, error) {
	ids, err := a.resolver.Resolve(ctx, a.profile.CategoryNames)
	if err != nil {
		return nil, fmt.Errorf("resolve categories: %w", err)
	}
	if len(ids) == 0 {
		a.logger.DebugContext(ctx, "no categories matched",
			slog.String("collection", a.profile.Collection),
		)
		return []model.Product{}, nil
	}

	raw, _, err := a.products.ListProducts(ctx, woocommerce.ProductQuery{
		PerPage:  a.profile.PerPage,
		Category: catalog.JoinIDs(ids),
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products := make([]model.Product, 0, len(raw))
	for _, r := range raw {
		p := catalog.Normalize(r, a.profile)
		p.Featured = len(products) < FeaturedCount
		products = append(products, p)
	}
	return products, nil
}
