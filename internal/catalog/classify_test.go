package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront-catalog/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		sources []string
		want    model.Mood
		wantOK  bool
	}{
		{"first source wins", []string{"relaxing", "energizing"}, model.MoodRelax, true},
		{"empty sources skipped", []string{"", "", "Energizing"}, model.MoodEnergize, true},
		{"rule order within a source", []string{"balanced but relaxing"}, model.MoodRelax, true},
		{"no match", []string{"sleepy", "hungry"}, "", false},
		{"no sources", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(MoodRules, tt.sources...)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchAll(t *testing.T) {
	assert.Equal(t, []string{"candy", "gas", "sherb"}, MatchAll(AromaVocabulary, "Sherbet, GAS and cotton CANDY"))
	assert.Nil(t, MatchAll(AromaVocabulary, "pine"))
	assert.Nil(t, MatchAll(AromaVocabulary, ""))
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  already   plain ", "already plain"},
		{"paragraphs", "<p>One</p><p>Two</p>", "One Two"},
		{"entities", "Rock &amp; Roll &#8211; live", "Rock & Roll – live"},
		{"line breaks", "a<br>b<br/>c", "a b c"},
		{"script dropped", "<p>ok</p><script>alert(1)</script>", "ok"},
		{"list", "<ul><li>Gas</li><li>Funk</li></ul>", "Gas Funk"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripHTML(tt.in))
		})
	}
}
