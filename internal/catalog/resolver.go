package catalog

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"storefront-catalog/internal/cache"
	"storefront-catalog/internal/woocommerce"
)

// CategorySource lists the store's product categories.
type CategorySource interface {
	ListCategories(ctx context.Context) ([]woocommerce.Category, cache.Status, error)
}

// IDMap resolves lowercased category names and slugs to ids.
type IDMap struct {
	byName map[string]int
	bySlug map[string]int
}

// NewIDMap indexes categories by lowercased name and slug.
func NewIDMap(categories []woocommerce.Category) *IDMap {
	m := &IDMap{
		byName: make(map[string]int, len(categories)),
		bySlug: make(map[string]int, len(categories)),
	}
	for _, c := range categories {
		if name := normalizeName(html.UnescapeString(c.Name)); name != "" {
			if _, dup := m.byName[name]; !dup {
				m.byName[name] = c.ID
			}
		}
		if slug := normalizeName(c.Slug); slug != "" {
			if _, dup := m.bySlug[slug]; !dup {
				m.bySlug[slug] = c.ID
			}
		}
	}
	return m
}

// Lookup returns the id for a name, matching names before slugs.
func (m *IDMap) Lookup(name string) (int, bool) {
	name = normalizeName(name)
	if id, ok := m.byName[name]; ok {
		return id, true
	}
	id, ok := m.bySlug[name]
	return id, ok
}

// Resolver maps semantic collection names to WooCommerce category ids.
// The index is rebuilt once per cache window.
type Resolver struct {
	source CategorySource
	index  *cache.Cache[*IDMap]
}

// NewResolver creates a resolver whose index lives for ttl.
func NewResolver(source CategorySource, ttl time.Duration) *Resolver {
	return &Resolver{
		source: source,
		index:  cache.New[*IDMap](cache.Config{TTL: ttl, MaxEntries: 1}),
	}
}

// Resolve returns the unique ids matching names, in first-seen order.
// Names that match nothing are skipped; no match at all is an empty
// result, not an error. An error means the category list itself could
// not be fetched.
func (r *Resolver) Resolve(ctx context.Context, names []string) ([]int, error) {
	idx, _, err := r.index.GetOrLoad(ctx, "categories", func(ctx context.Context) (*IDMap, error) {
		categories, _, err := r.source.ListCategories(ctx)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		return NewIDMap(categories), nil
	})
	if err != nil {
		return nil, err
	}

	ids := lo.FilterMap(names, func(name string, _ int) (int, bool) {
		return idx.Lookup(name)
	})
	return lo.Uniq(ids), nil
}

// JoinIDs renders ids as the comma-separated category filter.
func JoinIDs(ids []int) string {
	return strings.Join(lo.Map(ids, func(id int, _ int) string {
		return strconv.Itoa(id)
	}), ",")
}

// CategoryKey is the comparison form of a category name or slug:
// entity-decoded, trimmed and lowercased.
func CategoryKey(s string) string {
	return normalizeName(html.UnescapeString(s))
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
