package model

// StrainCategory is the display classification of a product.
type StrainCategory string

const (
	CategoryIndica StrainCategory = "indica"
	CategorySativa StrainCategory = "sativa"
	CategoryHybrid StrainCategory = "hybrid"
)

// Mood is the effect tag shown on product cards.
type Mood string

const (
	MoodRelax    Mood = "relax"
	MoodEnergize Mood = "energize"
	MoodBalance  Mood = "balance"
)

// Potency units.
const (
	UnitPercent = "%"
	UnitMg      = "mg"
)

// Collection names served by the storefront.
const (
	CollectionFlower    = "flower"
	CollectionVape      = "vape"
	CollectionWax       = "wax"
	CollectionEdible    = "edible"
	CollectionMoonwater = "moonwater"
)

// PriceOption is one purchasable size or pack and its price in dollars.
type PriceOption struct {
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

// Product is the display-ready view of a catalog record.
// Every field has a deterministic default, so a Product built from the
// sparsest record is still renderable.
type Product struct {
	ID            int            `json:"id"`
	Title         string         `json:"title"`
	Slug          string         `json:"slug,omitempty"`
	Description   string         `json:"description"`
	Price         float64        `json:"price"`
	Prices        []PriceOption  `json:"prices"`
	Image         string         `json:"image"`
	Collection    string         `json:"collection"`
	Category      StrainCategory `json:"category"`
	Mood          Mood           `json:"mood"`
	Potency       float64        `json:"potency"`
	PotencyUnit   string         `json:"potency_unit"`
	Aromas        []string       `json:"aromas"`
	Lineage       string         `json:"lineage,omitempty"`
	Terpenes      []string       `json:"terpenes,omitempty"`
	InStock       bool           `json:"in_stock"`
	StockQuantity *int           `json:"stock_quantity,omitempty"`
	Featured      bool           `json:"featured"`
}
