package usecase

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/roomscout/backend/internal/domain"
)

// DefaultStores is the built-in store table. Order matters: lookups return
// the first entry whose domain substring appears in the URL, so more
// specific substrings must come before broader ones.
var DefaultStores = []domain.StoreEntry{
	// Kuwait
	{DisplayName: "IKEA Kuwait", DomainSubstring: "ikea.com/kw", Tier: domain.TierPrimary, Profile: "ikea"},
	{DisplayName: "JYSK", DomainSubstring: "jysk.com.kw", Tier: domain.TierPrimary, Profile: "jysk"},
	{DisplayName: "Midas", DomainSubstring: "midas-kw.com", Tier: domain.TierPrimary},
	{DisplayName: "Midas Furniture", DomainSubstring: "midasfurniture.com", Tier: domain.TierPrimary},
	{DisplayName: "Home Centre", DomainSubstring: "homecentre.com/kw", Tier: domain.TierPrimary, Profile: "homecentre"},
	{DisplayName: "Abyat", DomainSubstring: "abyat.com/kw", Tier: domain.TierPrimary, Profile: "abyat"},
	{DisplayName: "MUJI Kuwait", DomainSubstring: "muji.com.kw", Tier: domain.TierPrimary},
	{DisplayName: "Liwan", DomainSubstring: "liwan.com.kw", Tier: domain.TierPrimary},
	{DisplayName: "Noon Kuwait", DomainSubstring: "noon.com/kuwait", Tier: domain.TierPrimary},
	{DisplayName: "Conran Shop", DomainSubstring: "theconranshop.com.kw", Tier: domain.TierPrimary},
	{DisplayName: "AAW Furniture", DomainSubstring: "aawfurniture.com", Tier: domain.TierPrimary},
	{DisplayName: "Microless Kuwait", DomainSubstring: "kuwait.microless.com", Tier: domain.TierPrimary},
	{DisplayName: "The One", DomainSubstring: "theone.com/en-kw", Tier: domain.TierPrimary, Profile: "theone"},
	{DisplayName: "Centrepoint", DomainSubstring: "centrepointstores.com/kw", Tier: domain.TierPrimary},
	{DisplayName: "Azadea Kuwait", DomainSubstring: "azadea.com/kw", Tier: domain.TierPrimary},
	{DisplayName: "Boutique Rugs", DomainSubstring: "boutiquerugs.com", Tier: domain.TierPrimary},
	{DisplayName: "Ubuy Kuwait", DomainSubstring: "ubuy.com.kw", Tier: domain.TierPrimary},
	{DisplayName: "Safat Home", DomainSubstring: "safathome.com", Tier: domain.TierPrimary},
	{DisplayName: "Marina Home", DomainSubstring: "marinahome.com", Tier: domain.TierPrimary},
	{DisplayName: "Homes R Us", DomainSubstring: "homesrus.com", Tier: domain.TierPrimary},
	{DisplayName: "Pan Home", DomainSubstring: "panhome.com", Tier: domain.TierPrimary},

	// UAE
	{DisplayName: "IKEA UAE", DomainSubstring: "ikea.com/ae", Tier: domain.TierRegional, Profile: "ikea"},
	{DisplayName: "Home Centre UAE", DomainSubstring: "homecentre.com/ae", Tier: domain.TierRegional, Profile: "homecentre"},
	{DisplayName: "The One UAE", DomainSubstring: "theone.com/en-ae", Tier: domain.TierRegional, Profile: "theone"},
	{DisplayName: "Noon UAE", DomainSubstring: "noon.com/uae", Tier: domain.TierRegional},
	{DisplayName: "Amazon UAE", DomainSubstring: "amazon.ae", Tier: domain.TierRegional},

	// Saudi Arabia
	{DisplayName: "IKEA KSA", DomainSubstring: "ikea.com/sa", Tier: domain.TierRegional, Profile: "ikea"},
	{DisplayName: "Home Centre KSA", DomainSubstring: "homecentre.com/sa", Tier: domain.TierRegional, Profile: "homecentre"},
	{DisplayName: "Noon KSA", DomainSubstring: "noon.com/saudi", Tier: domain.TierRegional},
	{DisplayName: "Amazon KSA", DomainSubstring: "amazon.sa", Tier: domain.TierRegional},
}

// DefaultTLDFallbacks are URL fragments that admit unlisted stores into a tier
var DefaultTLDFallbacks = map[domain.RegionTier][]string{
	domain.TierPrimary: {".kw/", ".com.kw"},
}

// StoreDirectory resolves URLs to stores and region tiers. It is built once
// and never mutated, so it is safe for concurrent use.
type StoreDirectory struct {
	entries      []domain.StoreEntry
	tldFallbacks map[domain.RegionTier][]string
}

// NewStoreDirectory validates entries and builds a directory. A nil
// fallbacks map disables generic TLD admission.
func NewStoreDirectory(entries []domain.StoreEntry, fallbacks map[domain.RegionTier][]string) (*StoreDirectory, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: store directory is empty", domain.ErrInvalidRequest)
	}

	normalized := make([]domain.StoreEntry, 0, len(entries))
	for i, e := range entries {
		e.DisplayName = strings.TrimSpace(e.DisplayName)
		e.DomainSubstring = strings.ToLower(strings.TrimSpace(e.DomainSubstring))
		e.Tier = domain.RegionTier(strings.ToLower(string(e.Tier)))
		if e.DisplayName == "" || e.DomainSubstring == "" {
			return nil, fmt.Errorf("%w: store entry %d needs a name and a domain", domain.ErrInvalidRequest, i)
		}
		if !e.Tier.Valid() {
			return nil, fmt.Errorf("%w: store %q has unknown tier %q", domain.ErrInvalidRequest, e.DisplayName, e.Tier)
		}
		normalized = append(normalized, e)
	}

	fb := make(map[domain.RegionTier][]string, len(fallbacks))
	for tier, patterns := range fallbacks {
		for _, p := range patterns {
			fb[tier] = append(fb[tier], strings.ToLower(p))
		}
	}

	return &StoreDirectory{entries: normalized, tldFallbacks: fb}, nil
}

// MustDefaultStoreDirectory builds the directory from the built-in tables
func MustDefaultStoreDirectory() *StoreDirectory {
	dir, err := NewStoreDirectory(DefaultStores, DefaultTLDFallbacks)
	if err != nil {
		panic(err)
	}
	return dir
}

// Entries returns a copy of the directory's store entries
func (d *StoreDirectory) Entries() []domain.StoreEntry {
	out := make([]domain.StoreEntry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Lookup returns the first store whose domain substring appears in rawURL
func (d *StoreDirectory) Lookup(rawURL string) (domain.StoreEntry, bool) {
	urlLower := strings.ToLower(rawURL)
	for _, e := range d.entries {
		if strings.Contains(urlLower, e.DomainSubstring) {
			return e, true
		}
	}
	return domain.StoreEntry{}, false
}

// IsMember reports whether rawURL belongs to a store of the given tier, or
// matches one of the tier's generic TLD fallbacks.
func (d *StoreDirectory) IsMember(rawURL string, tier domain.RegionTier) bool {
	urlLower := strings.ToLower(rawURL)
	for _, e := range d.entries {
		if e.Tier == tier && strings.Contains(urlLower, e.DomainSubstring) {
			return true
		}
	}
	for _, p := range d.tldFallbacks[tier] {
		if strings.Contains(urlLower, p) {
			return true
		}
	}
	return false
}

// StoreName resolves the display name for rawURL. Unknown stores fall back
// to the capitalized first hostname label ("www.acme.com.kw" -> "Acme").
func (d *StoreDirectory) StoreName(rawURL string) string {
	if e, ok := d.Lookup(rawURL); ok {
		return e.DisplayName
	}
	return hostnameLabel(rawURL)
}

// hostnameLabel derives a store name from the URL host
func hostnameLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "Unknown Store"
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "a.")

	label := strings.Split(host, ".")[0]
	if label == "" {
		return "Unknown Store"
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
