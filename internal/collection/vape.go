package collection

import (
	"storefront-catalog/internal/catalog"
	"storefront-catalog/internal/model"
)

// Vape covers cartridges and disposables.
var Vape = catalog.Profile{
	Collection:     model.CollectionVape,
	CategoryNames:  []string{"vape", "vapes", "cartridge", "cartridges", "disposable", "disposables"},
	PerPage:        100,
	DefaultPotency: 80.0,
	PotencyUnit:    model.UnitPercent,
	FallbackPrice:  30,
	PriceTable: []model.PriceOption{
		{Label: "0.5g", Price: 30},
		{Label: "1g", Price: 50},
	},
	DefaultAromas: []string{"candy", "cake"},
}
