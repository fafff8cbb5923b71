package usecase

import (
	"regexp"
	"strings"

	"github.com/roomscout/backend/internal/domain"
)

// pricePattern matches Gulf currency price tokens ("KD 199", "AED 1,299.00")
var pricePattern = regexp.MustCompile(`(?i)\b(KWD|KD|AED|SAR|QAR|BHD|OMR)\s*[\d,]+(?:\.\d{1,3})?`)

// ScoreWeights holds the additive weights of the relevance score
type ScoreWeights struct {
	Price      int            // an extracted price token is present
	Digit      int            // the title contains a digit
	Keyword    int            // per search keyword found in title+snippet
	StoreBonus map[string]int // keyed by store display name
}

// DefaultScoreWeights returns the standard weights. Price presence carries
// the most weight, then numeric specificity in the title.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Price:   30,
		Digit:   20,
		Keyword: 15,
		StoreBonus: map[string]int{
			"Home Centre": 15,
			"The One":     12,
			"IKEA Kuwait": 10,
			"Ubuy Kuwait": 8,
		},
	}
}

// RelevanceScorer computes raw additive relevance scores. Scores are only
// meaningful relative to other candidates of the same item.
type RelevanceScorer struct {
	weights ScoreWeights
}

// NewRelevanceScorer creates a scorer, filling zero weights with defaults
func NewRelevanceScorer(weights ScoreWeights) *RelevanceScorer {
	def := DefaultScoreWeights()
	if weights.Price <= 0 {
		weights.Price = def.Price
	}
	if weights.Digit <= 0 {
		weights.Digit = def.Digit
	}
	if weights.Keyword <= 0 {
		weights.Keyword = def.Keyword
	}
	if weights.StoreBonus == nil {
		weights.StoreBonus = def.StoreBonus
	}
	return &RelevanceScorer{weights: weights}
}

// Score returns the relevance of candidate for item. Keyword hits
// accumulate without a cap.
func (s *RelevanceScorer) Score(candidate domain.Candidate, item domain.Item) int {
	text := strings.ToLower(candidate.Title + " " + candidate.Snippet)

	score := 0
	if candidate.Price != "" {
		score += s.weights.Price
	}
	if hasDigit(candidate.Title) {
		score += s.weights.Digit
	}
	for _, kw := range item.SearchKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(text, kw) {
			score += s.weights.Keyword
		}
	}
	score += s.weights.StoreBonus[candidate.Store]

	return score
}

// ExtractPrice returns the first currency price token in text, or ""
func ExtractPrice(text string) string {
	return pricePattern.FindString(text)
}
