package model

import (
	"testing"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{"whole number", "35", 35, true},
		{"with cents", "29.99", 29.99, true},
		{"currency symbol", "$55.00", 55, true},
		{"thousands separator", "1,200.50", 1200.5, true},
		{"surrounding spaces", "  12.99 ", 12.99, true},
		{"rounds to cents", "10.005", 10.01, true},
		{"empty string", "", 0, false},
		{"zero", "0", 0, false},
		{"negative", "-10", 0, false},
		{"invalid string", "call for price", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePrice(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParsePrice(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParsePrice(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

