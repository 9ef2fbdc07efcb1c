package collection

import (
	"storefront-catalog/internal/catalog"
	"storefront-catalog/internal/model"
)

// Wax covers concentrates: badder, shatter, live resin.
var Wax = catalog.Profile{
	Collection:     model.CollectionWax,
	CategoryNames:  []string{"wax", "concentrate", "concentrates", "dab", "dabs", "badder", "shatter"},
	PerPage:        100,
	DefaultPotency: 85.0,
	PotencyUnit:    model.UnitPercent,
	FallbackPrice:  55,
	PriceTable: []model.PriceOption{
		{Label: "1g", Price: 55},
		{Label: "3.5g", Price: 150},
	},
	DefaultAromas: []string{"gas", "sherb"},
}
