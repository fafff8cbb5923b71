package domain

import "strings"

// RegionTier groups storefront domains into the target country and its
// nearby fallback countries.
type RegionTier string

const (
	TierPrimary  RegionTier = "primary"
	TierRegional RegionTier = "regional"
)

// Tiers lists every region tier in search order.
var Tiers = []RegionTier{TierPrimary, TierRegional}

// Valid reports whether t is a known tier.
func (t RegionTier) Valid() bool {
	return t == TierPrimary || t == TierRegional
}

// ParseRegionTier converts a case-insensitive name into a RegionTier
func ParseRegionTier(s string) (RegionTier, bool) {
	t := RegionTier(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Item is a furniture item detected in a room photo
type Item struct {
	Type           string   `json:"type"`
	Description    string   `json:"description"`
	SearchKeywords []string `json:"search_keywords"`
}

// NormalizedType returns the lowercased type with underscores replaced by spaces
// ("coffee_table" -> "coffee table").
func (i Item) NormalizedType() string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(i.Type)), "_", " ")
}

// Keywords returns the search keywords, falling back to the item type when
// the vision step produced none.
func (i Item) Keywords() []string {
	var kws []string
	for _, kw := range i.SearchKeywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			kws = append(kws, kw)
		}
	}
	if len(kws) == 0 && strings.TrimSpace(i.Type) != "" {
		kws = append(kws, i.NormalizedType())
	}
	return kws
}

// Validate rejects items that cannot enter the candidate pipeline
func (i Item) Validate() error {
	if strings.TrimSpace(i.Type) == "" {
		return ErrInvalidItem
	}
	if strings.TrimSpace(i.Description) == "" {
		return ErrInvalidItem
	}
	return nil
}

// SearchResult is one organic result returned by the search provider
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Text returns the lowercased title and snippet joined by a space
func (r SearchResult) Text() string {
	return strings.ToLower(r.Title + " " + r.Snippet)
}

// StoreEntry maps a store display name to the domain substring that
// identifies its pages.
type StoreEntry struct {
	DisplayName     string     `json:"displayName" mapstructure:"display_name"`
	DomainSubstring string     `json:"domainSubstring" mapstructure:"domain"`
	Tier            RegionTier `json:"tier" mapstructure:"tier"`
	Profile         string     `json:"profile,omitempty" mapstructure:"profile"` // enrichment selector profile
}

// Candidate is a search result matched to an item that survived filtering
type Candidate struct {
	Title      string `json:"title"`
	ProductURL string `json:"productUrl"`
	Store      string `json:"store"`
	Price      string `json:"price,omitempty"`
	Score      int    `json:"score"`
	ImageURL   string `json:"imageUrl,omitempty"`
	Enriched   bool   `json:"enriched,omitempty"`
	Snippet    string `json:"-"`
}

// NewCandidate builds an unscored candidate from a search result
func NewCandidate(r SearchResult, store, price string) Candidate {
	return Candidate{
		Title:      r.Title,
		ProductURL: r.Link,
		Store:      store,
		Price:      price,
		Snippet:    r.Snippet,
	}
}

// ColorConstraint holds the colour terms required and forbidden for an item.
// An empty constraint lets every colour through.
type ColorConstraint struct {
	Family    string   `json:"family,omitempty"`
	Required  []string `json:"required"`
	Forbidden []string `json:"forbidden"`
}

// IsEmpty reports whether the constraint imposes nothing
func (c ColorConstraint) IsEmpty() bool {
	return len(c.Required) == 0 && len(c.Forbidden) == 0
}

// ItemResult is the per-item outcome of a search across both tiers. Both
// counts are always reported, so callers can render "no results".
type ItemResult struct {
	Item             Item        `json:"item"`
	PrimaryProducts  []Candidate `json:"primaryProducts"`
	RegionalProducts []Candidate `json:"regionalProducts"`
	PrimaryCount     int         `json:"primaryCount"`
	RegionalCount    int         `json:"regionalCount"`
	FailedQueries    int         `json:"failedQueries"`
	Degraded         bool        `json:"degraded"`
}

// TierResult is the outcome of one pipeline run for one item in one tier
type TierResult struct {
	Item          Item        `json:"item"`
	Tier          RegionTier  `json:"tier"`
	Products      []Candidate `json:"products"`
	QueriesIssued int         `json:"queriesIssued"`
	FailedQueries int         `json:"failedQueries"`
	Cancelled     bool        `json:"cancelled,omitempty"`
}
