package usecase

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/roomscout/backend/internal/domain"
)

// selector picks an attribute (or the text when attr is empty) of the first
// element matching css.
type selector struct {
	css  string
	attr string
}

// selectorStrategy lists image and price selectors in priority order
type selectorStrategy struct {
	image []selector
	price []selector
}

var ogImage = selector{css: `meta[property="og:image"]`, attr: "content"}

// selectorStrategies are keyed by StoreEntry.Profile
var selectorStrategies = map[string]selectorStrategy{
	"abyat": {
		image: []selector{ogImage, {css: ".product-image img", attr: "src"}, {css: `img[alt*="product"]`, attr: "src"}},
		price: []selector{{css: ".price"}, {css: `[class*="price"]`}},
	},
	"ikea": {
		image: []selector{ogImage, {css: ".pip-image img", attr: "data-src"}, {css: ".pip-image img", attr: "src"}},
		price: []selector{{css: ".pip-temp-price__integer"}, {css: ".pip-price__integer"}},
	},
	"homecentre": {
		image: []selector{ogImage, {css: ".product-image img", attr: "src"}, {css: `img[class*="product"]`, attr: "src"}},
		price: []selector{{css: ".product-price"}, {css: "[data-price]"}},
	},
	"jysk": {
		image: []selector{ogImage, {css: ".product-image-photo", attr: "src"}},
		price: []selector{{css: ".price"}, {css: ".special-price"}},
	},
	"theone": {
		image: []selector{ogImage, {css: ".product-image img", attr: "src"}},
		price: []selector{{css: ".product-price"}},
	},
}

// genericStrategy is used for stores without a profile
var genericStrategy = selectorStrategy{
	image: []selector{
		ogImage,
		{css: `meta[name="og:image"]`, attr: "content"},
		{css: `img[class*="product"]`, attr: "src"},
		{css: `img[id*="product"]`, attr: "src"},
	},
	price: []selector{{css: `meta[property="product:price:amount"]`, attr: "content"}, {css: `[class*="price"]`}},
}

// localeCurrencies maps URL locale fragments to the currency shown on the page
var localeCurrencies = []struct {
	fragment string
	currency string
}{
	{"/kw/", "KD"}, {"-kw/", "KD"}, {".kw/", "KD"}, {"/kuwait", "KD"},
	{"/ae/", "AED"}, {"-ae/", "AED"}, {".ae/", "AED"}, {"/uae", "AED"},
	{"/sa/", "SAR"}, {"-sa/", "SAR"}, {".sa/", "SAR"}, {"/saudi", "SAR"},
}

var bareAmountPattern = regexp.MustCompile(`\d[\d,]*(?:\.\d{1,3})?`)

// PageDetails is what enrichment pulls out of a product page
type PageDetails struct {
	ImageURL string
	Price    string
}

// EnrichmentService adds image and price data to ranked candidates by
// fetching their product pages.
type EnrichmentService struct {
	fetcher   domain.PageFetcher
	directory *StoreDirectory
	limiter   *rate.Limiter
	logger    zerolog.Logger
}

// NewEnrichmentService creates an enrichment service. Fetches are spaced by
// interval; zero disables spacing.
func NewEnrichmentService(fetcher domain.PageFetcher, directory *StoreDirectory, interval time.Duration) *EnrichmentService {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return &EnrichmentService{
		fetcher:   fetcher,
		directory: directory,
		limiter:   limiter,
		logger:    log.With().Str("component", "enrichment").Logger(),
	}
}

// Enrich returns a copy of candidates with image and price filled in where
// the page yielded them. Failed fetches leave the candidate unchanged.
func (s *EnrichmentService) Enrich(ctx context.Context, candidates []domain.Candidate) []domain.Candidate {
	out := make([]domain.Candidate, len(candidates))
	copy(out, candidates)

	enriched := 0
	for i := range out {
		if err := s.limiter.Wait(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("enrichment interrupted")
			break
		}

		details, ok := s.EnrichOne(ctx, out[i].ProductURL)
		if !ok {
			continue
		}
		if details.ImageURL != "" {
			out[i].ImageURL = details.ImageURL
		}
		if details.Price != "" {
			out[i].Price = details.Price
		}
		out[i].Enriched = true
		enriched++
	}

	s.logger.Info().Int("enriched", enriched).Int("total", len(out)).Msg("enrichment finished")
	return out
}

// EnrichOne fetches one page and extracts its details
func (s *EnrichmentService) EnrichOne(ctx context.Context, pageURL string) (PageDetails, bool) {
	html, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil || html == "" {
		s.logger.Debug().Err(err).Str("url", truncate(pageURL, 60)).Msg("no html returned")
		return PageDetails{}, false
	}

	profile := ""
	if e, ok := s.directory.Lookup(pageURL); ok {
		profile = e.Profile
	}

	details, err := ExtractPageDetails(html, pageURL, profile)
	if err != nil {
		s.logger.Debug().Err(err).Str("url", truncate(pageURL, 60)).Msg("extract failed")
		return PageDetails{}, false
	}
	return details, details.ImageURL != "" || details.Price != ""
}

// ExtractPageDetails parses html with the selector strategy of profile,
// falling back to the generic strategy.
func ExtractPageDetails(html, pageURL, profile string) (PageDetails, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return PageDetails{}, err
	}

	strategy, ok := selectorStrategies[profile]
	if !ok {
		strategy = genericStrategy
	}

	image := firstMatch(doc, strategy.image)
	if image == "" && ok {
		image = firstMatch(doc, genericStrategy.image)
	}

	return PageDetails{
		ImageURL: resolveImageURL(image, pageURL),
		Price:    cleanPrice(firstMatch(doc, strategy.price), pageURL),
	}, nil
}

// firstMatch returns the first non-empty value produced by selectors
func firstMatch(doc *goquery.Document, selectors []selector) string {
	for _, sel := range selectors {
		node := doc.Find(sel.css).First()
		if node.Length() == 0 {
			continue
		}
		var value string
		if sel.attr == "" {
			value = node.Text()
		} else {
			value, _ = node.Attr(sel.attr)
		}
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}

// resolveImageURL makes protocol-relative and root-relative URLs absolute
func resolveImageURL(image, pageURL string) string {
	if image == "" || strings.HasPrefix(image, "http") {
		return image
	}
	if strings.HasPrefix(image, "//") {
		return "https:" + image
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(image)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// cleanPrice reduces scraped price text to a currency token. Bare amounts
// get the currency of the page's locale.
func cleanPrice(raw, pageURL string) string {
	raw = multipleSpacesRegex.ReplaceAllString(strings.TrimSpace(raw), " ")
	if raw == "" {
		return ""
	}
	if p := ExtractPrice(raw); p != "" {
		return p
	}
	amount := bareAmountPattern.FindString(raw)
	if amount == "" {
		return ""
	}
	if currency := currencyForURL(pageURL); currency != "" {
		return currency + " " + amount
	}
	return amount
}

// currencyForURL guesses the storefront currency from the URL
func currencyForURL(pageURL string) string {
	lower := strings.ToLower(pageURL)
	for _, lc := range localeCurrencies {
		if strings.Contains(lower, lc.fragment) {
			return lc.currency
		}
	}
	return ""
}
