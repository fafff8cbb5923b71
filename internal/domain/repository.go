package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// SearchProvider runs a web search and returns organic results in
// relevance order.
type SearchProvider interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// PageFetcher returns the raw HTML of a product page
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// VisionAnalyzer detects furniture items in a room photo
type VisionAnalyzer interface {
	Detect(ctx context.Context, image []byte, mimeType string) ([]Item, error)
}

// SessionStore persists analysed photos and the products chosen for them
type SessionStore interface {
	Create(ctx context.Context, session *Session) error
	List(ctx context.Context) ([]SessionSummary, error)
	Get(ctx context.Context, id string) (*Session, error)
}
