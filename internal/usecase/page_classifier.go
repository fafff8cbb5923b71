package usecase

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// URL shapes that are always listings
var (
	// Marketplace and site search endpoints ("/s?k=", "/search?q=", "?text=")
	siteSearchURLPattern = regexp.MustCompile(`/s\?k=|/search(/|\?|$)|[?&](q|k|query|text|search)=`)

	// Plural static pages such as "/sofas.html"
	pluralStaticPagePattern = regexp.MustCompile(`/(tables|coffee-tables|side-tables|sofas|chairs|armchairs|furniture|beds|rugs|lamps|cabinets|sideboards|shelves|ottomans|stools|desks|wardrobes)\.html?(\?|#|$)`)

	// Taxonomy directories
	taxonomyURLPattern = regexp.MustCompile(`/(category|categories)/`)

	// Bare plural directories such as "/sofas" or "/living-room/armchairs/"
	genericCategoryURLPattern = regexp.MustCompile(`/(coffee-tables|side-tables|tables|sofas|armchairs|chairs|furniture|sofa-and-love-seats|living-room|bedroom|beds|rugs|lamps)/?$`)
)

// Product-ID shapes that mark a deep path as a single product
var (
	numericIDPattern     = regexp.MustCompile(`(/|-|_)\d{5,}(/|\.|-|$)`)
	productSlugIDPattern = regexp.MustCompile(`/products?/[\w-]+-\d+`)
	shortProductPattern  = regexp.MustCompile(`/p/[\w-]*\d+`)
)

// Explicit single-product path forms used by the acceptance override
var singleProductURLPattern = regexp.MustCompile(`/p/|/product/\d+|/products?/[\w-]+-\d+|/products/[\w-]+/\d+`)

// Locale and country tokens that do not add depth to a path
var pathNoiseSegments = map[string]bool{
	"en": true, "ar": true, "kw": true, "ae": true, "sa": true, "qa": true, "bh": true, "om": true,
	"en-kw": true, "ar-kw": true, "en-ae": true, "ar-ae": true, "en-sa": true, "ar-sa": true,
	"kuwait": true, "uae": true, "saudi": true, "ksa": true,
}

// fileNameSegment matches bare file names like "index.html"
var fileNameSegment = regexp.MustCompile(`^\w+\.\w+$`)

// pluralCategoryNoun matches plural furniture nouns in titles. Whether the
// match is a category is decided by what surrounds it.
var pluralCategoryNoun = regexp.MustCompile(`(?i)\b(coffee tables|side tables|dining tables|tables|sofas|armchairs|chairs|beds|rugs|lamps|cabinets|sideboards|ottomans|stools|desks|wardrobes)\b`)

// Title fragments that only appear on listing pages
var titleCategoryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\+ side`),
	regexp.MustCompile(`(?i)coffee & `),
	regexp.MustCompile(`(?i)tables set$`),
	regexp.MustCompile(`(?i)\bfurniture\b`),
	regexp.MustCompile(`(?i)living room$`),
	regexp.MustCompile(`(?i)bedroom$`),
	regexp.MustCompile(`(?i)\bby category\b`),
}

// aggregatorFragments are case-sensitive title fragments of aggregator pages
var aggregatorFragments = []string{
	"Kuwait | Best Price",
	"| Every Style",
	"| Find Your",
	"| Shop All",
}

// productIndicatorPattern matches seat counts, dimensions and piece counts
var productIndicatorPattern = regexp.MustCompile(`(?i)\d+\s*-?\s*(cm|mm|seats?|seater|pieces?|pcs?|inch(es)?|"|in\.)`)

// PageClassifier separates single-product pages from category and listing
// pages using URL-shape and title rules. It holds no state.
type PageClassifier struct {
	logger zerolog.Logger
}

// NewPageClassifier creates a new page classifier
func NewPageClassifier() *PageClassifier {
	return &PageClassifier{
		logger: log.With().Str("component", "classifier").Logger(),
	}
}

// IsCategoryPage reports whether (title, rawURL) looks like a listing page.
//
// Rules run in a fixed order. URL shape and path depth decide first; title
// rejections can then be overridden by a numeric product indicator or an
// explicit product path; finally short titles without digits are rejected.
func (c *PageClassifier) IsCategoryPage(title, rawURL string) bool {
	reason, category := c.classify(title, rawURL)
	if category {
		c.logger.Debug().Str("reason", reason).Str("title", truncate(title, 60)).Msg("category page")
	}
	return category
}

// Explain returns the rule that decided the page together with the
// decision. Reason is empty for pages accepted without any rule firing.
func (c *PageClassifier) Explain(title, rawURL string) (reason string, category bool) {
	return c.classify(title, rawURL)
}

// classify returns the decision together with the rule that made it
func (c *PageClassifier) classify(title, rawURL string) (string, bool) {
	urlLower := strings.ToLower(rawURL)
	title = strings.TrimSpace(title)

	// 1. URL shape
	if siteSearchURLPattern.MatchString(urlLower) {
		return "site-search-url", true
	}
	if pluralStaticPagePattern.MatchString(urlLower) {
		return "plural-static-page", true
	}
	if taxonomyURLPattern.MatchString(urlLower) {
		return "taxonomy-url", true
	}
	if strings.Contains(urlLower, "/collections/") && !strings.Contains(urlLower, "/products/") {
		return "collection-url", true
	}
	path := urlPath(urlLower)
	if genericCategoryURLPattern.MatchString(path) {
		return "generic-category-url", true
	}

	// 2. Path depth
	if len(meaningfulSegments(path)) >= 3 && !hasProductID(path) {
		return "deep-path-without-id", true
	}

	// 3. Title patterns
	titleReason := titleRejection(title)

	// 4. Numeric specificity and explicit product paths override title rejections
	if productIndicatorPattern.MatchString(title) || singleProductURLPattern.MatchString(path) {
		return "", false
	}
	if titleReason != "" {
		return titleReason, true
	}

	// 5. Short generic titles
	if wordCount(title) <= 4 && !hasDigit(title) {
		return "short-generic-title", true
	}

	return "", false
}

// titleRejection returns the name of the first title rule that marks the
// title as a listing, or "" if none does.
func titleRejection(title string) string {
	titleLower := strings.ToLower(title)

	if hasPluralCategoryNoun(title) {
		return "plural-category-title"
	}
	for _, p := range titleCategoryPatterns {
		if p.MatchString(title) {
			return "category-title-fragment"
		}
	}

	if strings.HasPrefix(titleLower, "buy ") && strings.Contains(titleLower, "online") {
		return "call-to-action-title"
	}
	if strings.HasPrefix(titleLower, "shop ") && !hasDigit(titleLower) {
		return "call-to-action-title"
	}
	if strings.HasPrefix(titleLower, "find ") {
		return "call-to-action-title"
	}

	for _, frag := range aggregatorFragments {
		if strings.Contains(title, frag) {
			return "aggregator-title"
		}
	}

	if strings.Contains(title, " | ") && !hasDigit(title) && wordCount(title) < 7 {
		return "generic-pipe-title"
	}

	return ""
}

// hasPluralCategoryNoun reports whether title contains a plural furniture
// noun that is neither followed by a number ("Sofas 3 seater") nor preceded
// by one ("2 Armchairs").
func hasPluralCategoryNoun(title string) bool {
	for _, loc := range pluralCategoryNoun.FindAllStringIndex(title, -1) {
		after := strings.TrimLeft(title[loc[1]:], " \t")
		if after != "" && after[0] >= '0' && after[0] <= '9' {
			continue
		}
		before := strings.Fields(title[:loc[0]])
		if len(before) > 0 && hasDigit(before[len(before)-1]) {
			continue
		}
		return true
	}
	return false
}

// urlPath returns the path of rawURL, or rawURL itself when it does not parse
func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.EscapedPath()
}

// meaningfulSegments splits a path and drops locale and file-name noise
func meaningfulSegments(path string) []string {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s == "" || pathNoiseSegments[s] || fileNameSegment.MatchString(s) {
			continue
		}
		segments = append(segments, s)
	}
	return segments
}

// hasProductID reports whether the path carries a recognizable product id
func hasProductID(path string) bool {
	return numericIDPattern.MatchString(path) ||
		productSlugIDPattern.MatchString(path) ||
		shortProductPattern.MatchString(path)
}
