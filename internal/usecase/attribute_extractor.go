package usecase

import (
	"regexp"
	"strings"

	"github.com/roomscout/backend/internal/domain"
)

// colorFamily is one row of the colour table
type colorFamily struct {
	name      string
	variants  []string
	conflicts []string
}

// colorFamilies is scanned in declaration order and the first family with a
// variant hit wins. Multi-word families come before the single words they
// contain ("navy blue" before "blue").
var colorFamilies = []colorFamily{
	{
		name:      "beige",
		variants:  []string{"beige", "cream", "ivory", "off-white", "off white", "sand", "taupe", "oatmeal", "natural linen"},
		conflicts: []string{"navy", "blue", "black", "grey", "gray", "charcoal", "green", "red", "pink", "yellow", "orange"},
	},
	{
		name:      "navy blue",
		variants:  []string{"navy blue", "navy", "dark blue", "midnight blue"},
		conflicts: []string{"beige", "cream", "grey", "gray", "black", "white", "brown", "green", "red", "pink", "yellow"},
	},
	{
		name:      "grey",
		variants:  []string{"grey", "gray", "charcoal", "slate", "graphite", "anthracite"},
		conflicts: []string{"beige", "cream", "navy", "blue", "brown", "green", "red", "pink", "yellow"},
	},
	{
		name:      "black",
		variants:  []string{"black", "jet black", "ebony"},
		conflicts: []string{"white", "beige", "cream", "grey", "gray", "brown", "blue", "navy", "green", "red", "pink"},
	},
	{
		name:      "white",
		variants:  []string{"white", "snow white", "pure white"},
		conflicts: []string{"black", "grey", "gray", "charcoal", "brown", "navy", "blue", "green", "red"},
	},
	{
		name:      "brown",
		variants:  []string{"brown", "walnut", "chocolate", "espresso", "cognac", "tan", "caramel", "chestnut"},
		conflicts: []string{"white", "black", "grey", "gray", "navy", "blue", "green", "pink"},
	},
	{
		name:      "green",
		variants:  []string{"green", "olive", "sage", "emerald", "forest green", "mint"},
		conflicts: []string{"beige", "grey", "gray", "navy", "blue", "red", "pink", "black", "brown"},
	},
	{
		name:      "blue",
		variants:  []string{"blue", "light blue", "sky blue", "teal", "turquoise"},
		conflicts: []string{"beige", "grey", "gray", "black", "brown", "green", "red", "pink"},
	},
	{
		name:      "red",
		variants:  []string{"red", "burgundy", "maroon", "terracotta", "rust"},
		conflicts: []string{"beige", "grey", "gray", "navy", "blue", "green", "black", "white"},
	},
	{
		name:      "pink",
		variants:  []string{"pink", "blush", "rose", "dusty pink"},
		conflicts: []string{"grey", "gray", "navy", "blue", "green", "black", "brown", "red"},
	},
	{
		name:      "yellow",
		variants:  []string{"yellow", "mustard", "ochre", "gold"},
		conflicts: []string{"grey", "gray", "navy", "blue", "green", "black", "pink"},
	},
}

// colorTermPatterns holds a compiled whole-word matcher for every term in
// the colour table. Built once at init and only read afterwards.
var colorTermPatterns = compileColorTerms(colorFamilies)

func compileColorTerms(families []colorFamily) map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	add := func(term string) {
		if _, ok := patterns[term]; ok {
			return
		}
		patterns[term] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
	}
	for _, f := range families {
		for _, v := range f.variants {
			add(v)
		}
		for _, c := range f.conflicts {
			add(c)
		}
	}
	return patterns
}

// AttributeExtractor derives hard constraints from an item's free-text
// description. Only colour is extracted today.
type AttributeExtractor struct{}

// NewAttributeExtractor creates a new attribute extractor
func NewAttributeExtractor() *AttributeExtractor {
	return &AttributeExtractor{}
}

// ExtractColorConstraint returns the constraint of the first colour family
// mentioned in description, or an empty constraint when none is.
func (e *AttributeExtractor) ExtractColorConstraint(description string) domain.ColorConstraint {
	for _, f := range colorFamilies {
		for _, v := range f.variants {
			if colorTermPatterns[v].MatchString(description) {
				return domain.ColorConstraint{
					Family:    f.name,
					Required:  append([]string(nil), f.variants...),
					Forbidden: append([]string(nil), f.conflicts...),
				}
			}
		}
	}
	return domain.ColorConstraint{Required: []string{}, Forbidden: []string{}}
}

// ForbiddenHit returns the first forbidden term found in text, if any
func (e *AttributeExtractor) ForbiddenHit(constraint domain.ColorConstraint, text string) (string, bool) {
	for _, term := range constraint.Forbidden {
		if termMatches(term, text) {
			return term, true
		}
	}
	return "", false
}

// termMatches matches term as a whole word, case-insensitively
func termMatches(term, text string) bool {
	if p, ok := colorTermPatterns[term]; ok {
		return p.MatchString(text)
	}
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(strings.TrimSpace(term)) + `\b`).MatchString(text)
}
