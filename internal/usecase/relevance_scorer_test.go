package usecase

import (
	"testing"

	"github.com/roomscout/backend/internal/domain"
)

func TestScore(t *testing.T) {
	s := NewRelevanceScorer(ScoreWeights{})
	item := domain.Item{Type: "sofa", SearchKeywords: []string{"linen sofa", "beige sofa", "3 seater"}}

	tests := []struct {
		name      string
		candidate domain.Candidate
		want      int
	}{
		{
			name:      "nothing matches",
			candidate: domain.Candidate{Title: "Armchair", Store: "Store X"},
			want:      0,
		},
		{
			name:      "price only",
			candidate: domain.Candidate{Title: "Armchair", Price: "KD 10"},
			want:      30,
		},
		{
			name:      "digit only",
			candidate: domain.Candidate{Title: "Armchair 80cm"},
			want:      20,
		},
		{
			name:      "keywords accumulate",
			candidate: domain.Candidate{Title: "Linen Sofa", Snippet: "beige sofa, 3 seater"},
			want:      45,
		},
		{
			name:      "store bonus",
			candidate: domain.Candidate{Title: "Armchair", Store: "Home Centre"},
			want:      15,
		},
		{
			name:      "everything",
			candidate: domain.Candidate{Title: "Linen Sofa 3 Seater", Snippet: "beige sofa", Price: "KD 199", Store: "The One"},
			want:      30 + 20 + 45 + 12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Score(tt.candidate, item); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScore_CustomWeights(t *testing.T) {
	s := NewRelevanceScorer(ScoreWeights{Price: 100, StoreBonus: map[string]int{}})
	c := domain.Candidate{Title: "Sofa 2", Price: "AED 5", Store: "Home Centre"}

	if got := s.Score(c, domain.Item{Type: "sofa"}); got != 120 {
		t.Errorf("Score() = %d, want 120", got)
	}
}

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Only KD 199 this week", "KD 199"},
		{"AED 1,299.00 incl. VAT", "AED 1,299.00"},
		{"kwd12.500", "kwd12.500"},
		{"SAR 450 - free delivery", "SAR 450"},
		{"USD 99", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExtractPrice(tt.text); got != tt.want {
			t.Errorf("ExtractPrice(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
