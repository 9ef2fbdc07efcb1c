package catalog

import "storefront-catalog/internal/model"

// Profile holds the per-collection constants the normalizer falls back
// to and the category names the collection is filed under.
type Profile struct {
	Collection     string
	CategoryNames  []string
	PerPage        int
	DefaultPotency float64
	PotencyUnit    string
	FallbackPrice  float64
	PriceTable     []model.PriceOption
	DefaultAromas  []string
}

// Metadata keys, in lookup priority.
var (
	StrainKeys  = []string{"strain_type", "strain", "type", "classification"}
	EffectKeys  = []string{"effects", "effect", "mood", "feelings"}
	PotencyKeys = []string{"thca_%", "thca", "thc_%", "thc", "potency", "thc_mg", "mg_per_serving"}
	NoseKeys    = []string{"nose", "aroma", "flavor", "flavors", "flavor_profile"}
	TierKeys    = []string{"pricing_tiers", "price_tiers", "tier_pricing", "variation_prices"}
	LineageKeys = []string{"lineage", "genetics"}
	TerpeneKeys = []string{"terpenes", "terps"}
)

// PlaceholderImage is served when a record has no images.
const PlaceholderImage = "/images/placeholder.png"

// DefaultTitle is used when a record has no name.
const DefaultTitle = "Untitled product"
