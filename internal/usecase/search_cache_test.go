package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roomscout/backend/internal/domain"
)

// MockCacheRepository is a map-backed domain.CacheRepository
type MockCacheRepository struct {
	data     map[string][]byte
	ttls     map[string]time.Duration
	setError error
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func TestCachedSearchProvider(t *testing.T) {
	results := []domain.SearchResult{{Title: "Linen Sofa", Link: "https://store-x.com/p/1", Snippet: "KD 1"}}

	t.Run("second call is served from cache", func(t *testing.T) {
		next := &fakeSearch{fallback: results}
		cache := NewMockCacheRepository()
		p := NewCachedSearchProvider(next, cache, 0)

		for i := 0; i < 2; i++ {
			got, err := p.Search(context.Background(), "Linen Sofa Kuwait")
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(got) != 1 || got[0].Link != results[0].Link {
				t.Errorf("Search() = %+v", got)
			}
		}
		if next.calls() != 1 {
			t.Errorf("upstream calls = %d, want 1", next.calls())
		}
		if ttl := cache.ttls["search:linen sofa kuwait"]; ttl != 168*time.Hour {
			t.Errorf("ttl = %v, want 168h", ttl)
		}
	})

	t.Run("queries differing in case and punctuation share a key", func(t *testing.T) {
		next := &fakeSearch{fallback: results}
		p := NewCachedSearchProvider(next, NewMockCacheRepository(), time.Hour)

		_, _ = p.Search(context.Background(), "linen sofa, Kuwait")
		_, _ = p.Search(context.Background(), "Linen Sofa Kuwait")
		if next.calls() != 1 {
			t.Errorf("upstream calls = %d, want 1", next.calls())
		}
	})

	t.Run("empty responses are not cached", func(t *testing.T) {
		next := &fakeSearch{}
		cache := NewMockCacheRepository()
		p := NewCachedSearchProvider(next, cache, time.Hour)

		_, _ = p.Search(context.Background(), "q")
		_, _ = p.Search(context.Background(), "q")
		if next.calls() != 2 {
			t.Errorf("upstream calls = %d, want 2", next.calls())
		}
		if len(cache.data) != 0 {
			t.Errorf("cache holds %d entries, want 0", len(cache.data))
		}
	})

	t.Run("errors pass through uncached", func(t *testing.T) {
		next := &fakeSearch{errs: []error{domain.ErrUpstreamUnavailable}}
		cache := NewMockCacheRepository()
		p := NewCachedSearchProvider(next, cache, time.Hour)

		_, err := p.Search(context.Background(), "q")
		if !errors.Is(err, domain.ErrUpstreamUnavailable) {
			t.Errorf("error = %v, want ErrUpstreamUnavailable", err)
		}
		if len(cache.data) != 0 {
			t.Error("error response was cached")
		}
	})

	t.Run("undecodable entry is replaced", func(t *testing.T) {
		next := &fakeSearch{fallback: results}
		cache := NewMockCacheRepository()
		cache.data["search:q"] = []byte("{not json")
		p := NewCachedSearchProvider(next, cache, time.Hour)

		got, err := p.Search(context.Background(), "q")
		if err != nil || len(got) != 1 {
			t.Fatalf("Search() = %v, %v", got, err)
		}
		if next.calls() != 1 {
			t.Errorf("upstream calls = %d, want 1", next.calls())
		}
		if string(cache.data["search:q"]) == "{not json" {
			t.Error("bad entry kept")
		}
	})

	t.Run("cache write failure is not fatal", func(t *testing.T) {
		cache := NewMockCacheRepository()
		cache.setError = errors.New("disk full")
		p := NewCachedSearchProvider(&fakeSearch{fallback: results}, cache, time.Hour)

		if _, err := p.Search(context.Background(), "q"); err != nil {
			t.Errorf("Search() error = %v", err)
		}
	})
}
