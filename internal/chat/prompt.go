package chat

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"storefront-catalog/internal/model"
)

// SnapshotPerCollection is how many products per collection the prompt lists.
const SnapshotPerCollection = 8

var collectionOrder = []string{
	model.CollectionFlower,
	model.CollectionVape,
	model.CollectionWax,
	model.CollectionEdible,
	model.CollectionMoonwater,
}

const instructions = `You are the budtender for an online cannabis delivery shop.
Answer questions about products, effects, potency and pricing in a friendly, concise way (under 120 words).
Only recommend products from the catalog below. If something is not listed, say so and suggest the closest match.
Never give medical advice. Remind shoppers that they must be 21+ when they ask about buying.
Mood tags: relax (calming, body), energize (uplifting, daytime), balance (even, social).`

// BuildSystemPrompt renders the concierge instructions followed by a
// compact listing of the in-stock catalog.
func BuildSystemPrompt(collections map[string][]model.Product, siteURL string) string {
	prompt, _ := renderPrompt(collections, siteURL)
	return prompt
}

// renderPrompt builds the prompt and reports how many products it lists.
func renderPrompt(collections map[string][]model.Product, siteURL string) (string, int) {
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\nCatalog:\n")

	listed := 0
	for _, name := range collectionOrder {
		products := lo.Filter(collections[name], func(p model.Product, _ int) bool { return p.InStock })
		if len(products) == 0 {
			continue
		}
		if len(products) > SnapshotPerCollection {
			products = products[:SnapshotPerCollection]
		}

		fmt.Fprintf(&b, "\n## %s", name)
		if siteURL != "" {
			fmt.Fprintf(&b, " (%s/%s)", siteURL, name)
		}
		b.WriteString("\n")
		for _, p := range products {
			fmt.Fprintf(&b, "- %s: $%.2f, %s%s, %s, %s",
				p.Title, p.Price, formatPotency(p.Potency), p.PotencyUnit, p.Category, p.Mood)
			if len(p.Aromas) > 0 {
				fmt.Fprintf(&b, ", notes of %s", strings.Join(p.Aromas, "/"))
			}
			b.WriteString("\n")
			listed++
		}
	}

	if listed == 0 {
		b.WriteString("\nThe catalog is temporarily unavailable. Apologize and invite the shopper to browse the site or check back shortly.\n")
	}
	return b.String(), listed
}

func formatPotency(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	return strings.TrimSuffix(s, ".0")
}
