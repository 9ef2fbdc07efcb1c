package collection

import (
	"storefront-catalog/internal/catalog"
	"storefront-catalog/internal/model"
)

// Flower is sold by weight. Potency is THCa percent.
var Flower = catalog.Profile{
	Collection:     model.CollectionFlower,
	CategoryNames:  []string{"flower", "flowers", "indica", "sativa", "hybrid"},
	PerPage:        100,
	DefaultPotency: 22.0,
	PotencyUnit:    model.UnitPercent,
	FallbackPrice:  35,
	PriceTable: []model.PriceOption{
		{Label: "3.5g", Price: 35},
		{Label: "7g", Price: 60},
		{Label: "14g", Price: 110},
		{Label: "28g", Price: 200},
	},
	DefaultAromas: []string{"gas", "funk"},
}
