package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice converts a catalog price string to dollars.
// WooCommerce returns prices as strings in major units ("35", "29.99"),
// sometimes with a currency symbol or thousands separator left in by
// custom fields. Returns ok=false for empty, malformed, or non-positive
// input so callers can move on to the next price source.
// Examples: "35" → 35, "$1,200.50" → 1200.5, "" → (0, false)
func ParsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return 0, false
	}
	return d.Round(2).InexactFloat64(), true
}

