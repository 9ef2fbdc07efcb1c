package collection

import (
	"storefront-catalog/internal/catalog"
	"storefront-catalog/internal/model"
)

// Moonwater is the infused beverage line, dosed in milligrams per can.
var Moonwater = catalog.Profile{
	Collection:     model.CollectionMoonwater,
	CategoryNames:  []string{"moonwater", "moon water", "beverage", "beverages", "drinks"},
	PerPage:        100,
	DefaultPotency: 10.0,
	PotencyUnit:    model.UnitMg,
	FallbackPrice:  12.99,
	PriceTable: []model.PriceOption{
		{Label: "1-can", Price: 12.99},
		{Label: "4-pack", Price: 44.99},
	},
	DefaultAromas: []string{"candy", "cake"},
}
