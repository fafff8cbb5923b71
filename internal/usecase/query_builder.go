package usecase

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/roomscout/backend/internal/domain"
)

// Compiled regex patterns for query cleanup
var (
	// Characters that break the SERP unlocker's URL handling
	querySpecialChars = regexp.MustCompile(`[#%+@!^*()=\[\]{}<>|\\~` + "`" + `]`)

	// Orphaned punctuation left behind after cleanup
	orphanPunctuation = regexp.MustCompile(`\s+[,\-;:]+\s+|^\s*[,\-;:]+|[,\-;:]+\s*$`)
)

// queryNoiseWords are descriptive words from vision keywords that only
// narrow a web search without helping it.
var queryNoiseWords = map[string]bool{
	"approximately": true,
	"approx":        true,
	"style":         true,
	"styled":        true,
	"looking":       true,
	"item":          true,
	"product":       true,
}

// TierQueryPlan describes how queries are derived for one region tier
type TierQueryPlan struct {
	MaxKeywords int      // leading keywords used
	Qualifiers  []string // region terms appended to every keyword
}

// QueryBuilder turns an item's keywords into ordered, region-qualified queries
type QueryBuilder struct {
	plans map[domain.RegionTier]TierQueryPlan
}

// DefaultQueryPlans returns the standard plans: three keywords qualified
// with the country for the primary tier, the first keyword with the
// neighbouring markets for the regional tier.
func DefaultQueryPlans() map[domain.RegionTier]TierQueryPlan {
	return map[domain.RegionTier]TierQueryPlan{
		domain.TierPrimary:  {MaxKeywords: 3, Qualifiers: []string{"Kuwait"}},
		domain.TierRegional: {MaxKeywords: 1, Qualifiers: []string{"UAE", "Amazon UAE"}},
	}
}

// NewQueryBuilder creates a query builder; tiers missing from plans use the defaults
func NewQueryBuilder(plans map[domain.RegionTier]TierQueryPlan) *QueryBuilder {
	merged := DefaultQueryPlans()
	for tier, plan := range plans {
		if plan.MaxKeywords <= 0 {
			plan.MaxKeywords = merged[tier].MaxKeywords
		}
		if len(plan.Qualifiers) == 0 {
			plan.Qualifiers = merged[tier].Qualifiers
		}
		merged[tier] = plan
	}
	return &QueryBuilder{plans: merged}
}

// BuildQueries returns the queries for item in tier, keyword-major order,
// without duplicates.
func (b *QueryBuilder) BuildQueries(item domain.Item, tier domain.RegionTier) []string {
	plan, ok := b.plans[tier]
	if !ok {
		return nil
	}

	keywords := item.Keywords()
	if len(keywords) > plan.MaxKeywords {
		keywords = keywords[:plan.MaxKeywords]
	}

	var queries []string
	seen := make(map[string]bool)
	for _, kw := range keywords {
		cleaned := cleanKeyword(kw)
		if cleaned == "" {
			continue
		}
		for _, q := range plan.Qualifiers {
			query := strings.TrimSpace(cleaned + " " + q)
			key := strings.ToLower(query)
			if seen[key] {
				continue
			}
			seen[key] = true
			queries = append(queries, query)
		}
	}
	return queries
}

// cleanKeyword strips characters and noise words that hurt search quality
func cleanKeyword(kw string) string {
	kw = strings.ReplaceAll(kw, "&", " and ")
	kw = querySpecialChars.ReplaceAllString(kw, " ")

	var kept []string
	for _, word := range strings.Fields(kw) {
		if queryNoiseWords[strings.ToLower(strings.Trim(word, ",.!?;:'\""))] {
			continue
		}
		kept = append(kept, word)
	}

	cleaned := orphanPunctuation.ReplaceAllString(strings.Join(kept, " "), " ")
	cleaned = multipleSpacesRegex.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if runes := []rune(cleaned); len(runes) > 100 {
		cleaned = string(runes[:100])
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > 0 && utf8.RuneCountInString(cleaned[:lastSpace]) > 50 {
			cleaned = cleaned[:lastSpace]
		}
	}
	return cleaned
}
