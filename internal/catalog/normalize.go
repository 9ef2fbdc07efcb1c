package catalog

import (
	"encoding/json"
	"html"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"storefront-catalog/internal/model"
	"storefront-catalog/internal/woocommerce"
)

var (
	leadingFloat = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)`)
	potencyText  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(mg|%)`)
	listSplit    = regexp.MustCompile(`[,;/|]`)
)

// Normalize derives a display product from a raw record. It never fails:
// every field falls back through its sources to a profile default.
func Normalize(raw woocommerce.Product, profile Profile) model.Product {
	tags := raw.TagNames()
	description := StripHTML(raw.ShortDescription)
	if description == "" {
		description = StripHTML(raw.Description)
	}

	p := model.Product{
		ID:          raw.ID,
		Title:       title(raw.Name),
		Slug:        raw.Slug,
		Description: description,
		Image:       PlaceholderImage,
		Collection:  profile.Collection,
		Category:    category(&raw, tags),
		Mood:        mood(&raw, tags),
		Aromas:      aromas(&raw, tags, profile),
		InStock:     raw.StockStatus != "outofstock",
		Featured:    raw.Featured,
	}
	p.Potency, p.PotencyUnit = potency(&raw, profile)
	p.Price, p.Prices = price(&raw, profile)

	if len(raw.Images) > 0 && raw.Images[0].Src != "" {
		p.Image = raw.Images[0].Src
	}
	if raw.StockQuantity != nil {
		q := *raw.StockQuantity
		p.StockQuantity = &q
	}
	if lineage, ok := raw.FieldString(LineageKeys...); ok {
		p.Lineage = StripHTML(lineage)
	}
	if terps, ok := raw.FieldString(TerpeneKeys...); ok {
		p.Terpenes = splitList(terps)
	}
	return p
}

func title(name string) string {
	name = strings.TrimSpace(html.UnescapeString(name))
	if name == "" {
		return DefaultTitle
	}
	return name
}

func category(raw *woocommerce.Product, tags string) model.StrainCategory {
	strain, _ := raw.FieldString(StrainKeys...)
	if c, ok := Classify(CategoryRules, strain, raw.CategoryNames(), tags); ok {
		return c
	}
	return model.CategoryHybrid
}

func mood(raw *woocommerce.Product, tags string) model.Mood {
	effects, _ := raw.FieldString(EffectKeys...)
	if m, ok := Classify(MoodRules, effects, tags); ok {
		return m
	}
	return model.MoodBalance
}

func potency(raw *woocommerce.Product, profile Profile) (float64, string) {
	unit := profile.PotencyUnit
	if unit == "" {
		unit = model.UnitPercent
	}

	if v, ok := raw.FieldString(PotencyKeys...); ok {
		if m := leadingFloat.FindStringSubmatch(v); m != nil {
			if f, err := strconv.ParseFloat(m[1], 64); err == nil {
				return f, unit
			}
		}
	}

	for _, text := range []string{raw.ShortDescription, raw.Description, raw.Name} {
		if m := potencyText.FindStringSubmatch(text); m != nil {
			if f, err := strconv.ParseFloat(m[1], 64); err == nil {
				return f, strings.ToLower(m[2])
			}
		}
	}

	return profile.DefaultPotency, unit
}

func aromas(raw *woocommerce.Product, tags string, profile Profile) []string {
	if nose, ok := raw.FieldString(NoseKeys...); ok {
		if found := MatchAll(AromaVocabulary, nose); len(found) > 0 {
			return found
		}
	}
	if found := MatchAll(AromaVocabulary, tags); len(found) > 0 {
		return found
	}
	return append([]string(nil), profile.DefaultAromas...)
}

// price returns the headline price and the purchasable options. The
// headline is the lowest tier, then the record's own price, then the
// profile fallback.
func price(raw *woocommerce.Product, profile Profile) (float64, []model.PriceOption) {
	if tiersRaw, ok := raw.Field(TierKeys...); ok {
		if tiers := parseTiers(tiersRaw); len(tiers) > 0 {
			return tiers[0].Price, tiers
		}
	}

	options := append([]model.PriceOption(nil), profile.PriceTable...)
	for _, s := range []string{raw.Price, raw.RegularPrice} {
		if v, ok := model.ParsePrice(s); ok {
			return v, options
		}
	}
	return profile.FallbackPrice, options
}

// parseTiers accepts {"3.5g": "35"}, [{"label": "3.5g", "price": 35}],
// or either of those encoded as a JSON string. Options come back sorted
// by price, cheapest first.
func parseTiers(raw json.RawMessage) []model.PriceOption {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		raw = json.RawMessage(s)
	}

	var tiers []model.PriceOption

	var byLabel map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byLabel); err == nil {
		for label, v := range byLabel {
			if p, ok := model.ParsePrice(woocommerce.FlattenJSON(v)); ok {
				tiers = append(tiers, model.PriceOption{Label: label, Price: p})
			}
		}
	}

	var list []struct {
		Label string          `json:"label"`
		Name  string          `json:"name"`
		Price json.RawMessage `json:"price"`
	}
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			label := lo.Ternary(item.Label != "", item.Label, item.Name)
			if p, ok := model.ParsePrice(woocommerce.FlattenJSON(item.Price)); ok {
				tiers = append(tiers, model.PriceOption{Label: label, Price: p})
			}
		}
	}

	sort.SliceStable(tiers, func(i, j int) bool {
		if tiers[i].Price != tiers[j].Price {
			return tiers[i].Price < tiers[j].Price
		}
		return tiers[i].Label < tiers[j].Label
	})
	return tiers
}

func splitList(s string) []string {
	parts := lo.Map(listSplit.Split(s, -1), func(p string, _ int) string {
		return strings.TrimSpace(p)
	})
	return lo.Uniq(lo.Compact(parts))
}
