package collection

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"storefront-catalog/internal/cache"
	"storefront-catalog/internal/catalog"
	"storefront-catalog/internal/model"
	"storefront-catalog/internal/woocommerce"
)

// Profiles lists every collection in display order.
var Profiles = []catalog.Profile{Flower, Vape, Wax, Edible, Moonwater}

// Store is the catalog backend the service reads through.
type Store interface {
	ProductSource
	ListCategories(ctx context.Context) ([]woocommerce.Category, cache.Status, error)
}

// Service serves raw catalog reads and assembled collections.
type Service struct {
	store      Store
	resolver   CategoryResolver
	assemblers map[string]*Assembler
	logger     *slog.Logger
}

// NewService wires an assembler for each profile.
func NewService(store Store, resolver CategoryResolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:      store,
		resolver:   resolver,
		assemblers: make(map[string]*Assembler, len(Profiles)),
		logger:     logger,
	}
	for _, p := range Profiles {
		s.assemblers[p.Collection] = NewAssembler(p, resolver, store, logger)
	}
	return s
}

// Names returns the collection names in display order.
func (s *Service) Names() []string {
	return lo.Map(Profiles, func(p catalog.Profile, _ int) string { return p.Collection })
}

// Collection assembles one collection. Unknown names are a not-found
// error; catalog failures are not, they yield an empty list.
func (s *Service) Collection(ctx context.Context, name string) ([]model.Product, error) {
	a, ok := s.assemblers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, model.NewNotFoundError(fmt.Sprintf("collection %q", name))
	}
	return a.Assemble(ctx), nil
}

// Collections assembles every collection concurrently for the home page.
func (s *Service) Collections(ctx context.Context) map[string][]model.Product {
	results := make([][]model.Product, len(Profiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(Profiles))
	for i, p := range Profiles {
		a := s.assemblers[p.Collection]
		g.Go(func() error {
			results[i] = a.Assemble(gctx)
			return nil
		})
	}
	g.Wait() // assemblers never return errors

	out := make(map[string][]model.Product, len(Profiles))
	for i, p := range Profiles {
		out[p.Collection] = results[i]
	}
	return out
}

// Products proxies a product listing. When categoryNames is non-empty
// the names are resolved first; names that match nothing give an empty
// list without calling the catalog.
func (s *Service) Products(ctx context.Context, q woocommerce.ProductQuery, categoryNames []string) ([]woocommerce.Product, cache.Status, error) {
	if len(categoryNames) > 0 {
		ids, err := s.resolver.Resolve(ctx, categoryNames)
		if err != nil {
			return nil, cache.Status{}, err
		}
		if len(ids) == 0 {
			return []woocommerce.Product{}, cache.Status{}, nil
		}
		q.Category = catalog.JoinIDs(ids)
	}
	return s.store.ListProducts(ctx, q)
}

// Categories proxies the category listing.
func (s *Service) Categories(ctx context.Context) ([]woocommerce.Category, cache.Status, error) {
	return s.store.ListCategories(ctx)
}

// Search runs a free-text product search and normalizes each hit with
// the profile of the collection it is filed under.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]model.Product, error) {
	raw, _, err := s.store.ListProducts(ctx, woocommerce.ProductQuery{Search: query, PerPage: limit})
	if err != nil {
		return nil, err
	}
	return lo.Map(raw, func(r woocommerce.Product, _ int) model.Product {
		return catalog.Normalize(r, ProfileFor(r))
	}), nil
}

// ProfileFor picks the collection profile whose category names match
// one of the record's categories. Flower is checked last because strain
// categories (indica, sativa, hybrid) also appear on other products.
func ProfileFor(raw woocommerce.Product) catalog.Profile {
	for _, p := range []catalog.Profile{Vape, Wax, Edible, Moonwater, Flower} {
		for _, term := range raw.Categories {
			if lo.Contains(p.CategoryNames, catalog.CategoryKey(term.Name)) || lo.Contains(p.CategoryNames, catalog.CategoryKey(term.Slug)) {
				return p
			}
		}
	}
	return Flower
}
