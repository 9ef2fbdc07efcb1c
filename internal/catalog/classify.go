// Package catalog turns raw WooCommerce records into display-ready
// products: keyword classification, field fallbacks, and category name
// resolution.
package catalog

import (
	"strings"

	"storefront-catalog/internal/model"
)

// Rule maps a lowercase keyword to a tag. A rule matches when the
// keyword appears anywhere in the lowercased input.
type Rule[T any] struct {
	Keyword string
	Tag     T
}

// CategoryRules classify strain type. Checked in order.
var CategoryRules = []Rule[model.StrainCategory]{
	{"indica", model.CategoryIndica},
	{"sativa", model.CategorySativa},
	{"hybrid", model.CategoryHybrid},
}

// MoodRules classify effects. "energiz" covers energize, energizing
// and energized.
var MoodRules = []Rule[model.Mood]{
	{"relax", model.MoodRelax},
	{"energiz", model.MoodEnergize},
	{"balance", model.MoodBalance},
}

// AromaVocabulary is the closed set of aroma tags shown on cards.
var AromaVocabulary = []string{"candy", "gas", "cake", "funk", "sherb"}

// Classify walks sources in priority order and returns the tag of the
// first rule that matches the first source with any match.
func Classify[T any](rules []Rule[T], sources ...string) (T, bool) {
	for _, src := range sources {
		if src == "" {
			continue
		}
		src = strings.ToLower(src)
		for _, r := range rules {
			if strings.Contains(src, r.Keyword) {
				return r.Tag, true
			}
		}
	}
	var zero T
	return zero, false
}

// MatchAll returns every vocabulary word found in text, in vocabulary
// order.
func MatchAll(vocabulary []string, text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ToLower(text)
	var out []string
	for _, word := range vocabulary {
		if strings.Contains(text, word) {
			out = append(out, word)
		}
	}
	return out
}
