package collection

import (
	"storefront-catalog/internal/catalog"
	"storefront-catalog/internal/model"
)

// Edible potency is milligrams per piece.
var Edible = catalog.Profile{
	Collection:     model.CollectionEdible,
	CategoryNames:  []string{"edible", "edibles", "gummy", "gummies", "edibles & gummies"},
	PerPage:        100,
	DefaultPotency: 10.0,
	PotencyUnit:    model.UnitMg,
	FallbackPrice:  29.99,
	PriceTable: []model.PriceOption{
		{Label: "1-pack", Price: 29.99},
		{Label: "3-pack", Price: 79.99},
	},
	DefaultAromas: []string{"candy", "sherb"},
}
