package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomscout/backend/config"
	"github.com/roomscout/backend/internal/domain"
	"github.com/roomscout/backend/internal/usecase"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Port: "8080", MaxUploadMB: 10},
		Cache:  config.CacheConfig{Type: "memory", TTL: time.Hour},
		Pipeline: config.PipelineConfig{
			PrimaryCap:     3,
			RegionalCap:    5,
			QueryInterval:  time.Second,
			MaxRetries:     2,
			RetryBackoff:   500 * time.Millisecond,
			Workers:        2,
			BatchTimeout:   time.Minute,
			EnrichInterval: time.Second,
		},
		Storage: config.StorageConfig{SQLitePath: filepath.Join(t.TempDir(), "data", "roomscout.db")},
		Log:     config.LogConfig{Level: "error", Format: "json"},
	}
}

func TestNew(t *testing.T) {
	app, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	assert.NotNil(t, app.Finder)
	assert.NotNil(t, app.Vision)
	assert.NotNil(t, app.Classifier)
	assert.Nil(t, app.Sessions)
	assert.Len(t, app.Directory.Entries(), len(usecase.DefaultStores))
}

func TestNew_CustomStores(t *testing.T) {
	cfg := testConfig(t)
	cfg.Stores = []domain.StoreEntry{
		{DisplayName: "Store X", DomainSubstring: "store-x.com", Tier: domain.TierPrimary},
	}

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	assert.Equal(t, "Store X", app.Directory.StoreName("https://store-x.com/p/1"))
	assert.True(t, app.Directory.IsMember("https://shop.com.kw/p/1", domain.TierPrimary))
}

func TestNew_InvalidStores(t *testing.T) {
	cfg := testConfig(t)
	cfg.Stores = []domain.StoreEntry{{DisplayName: "Store X", DomainSubstring: "store-x.com", Tier: "global"}}

	_, err := New(context.Background(), cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestNew_RedisUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache = config.CacheConfig{Type: "redis", RedisURL: "not a url"}

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestOpenSessions(t *testing.T) {
	cfg := testConfig(t)
	app, err := New(context.Background(), cfg)
	require.NoError(t, err)

	require.NoError(t, app.OpenSessions(context.Background()))
	require.NotNil(t, app.Sessions)
	assert.FileExists(t, cfg.Storage.SQLitePath)

	sessions, err := app.Sessions.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)

	assert.NoError(t, app.Close())
	// closing twice is a no-op
	assert.NoError(t, app.Close())
}

func TestPipelineConfig(t *testing.T) {
	got := pipelineConfig(config.PipelineConfig{
		PrimaryCap:         4,
		RegionalCap:        6,
		PrimaryKeywords:    2,
		RegionalKeywords:   1,
		PrimaryQualifiers:  []string{"Kuwait"},
		RegionalQualifiers: []string{"UAE"},
		MinWordOverlap:     2,
		MaxRetries:         1,
		RetryBackoff:       time.Second,
	})

	assert.Equal(t, 4, got.Caps[domain.TierPrimary])
	assert.Equal(t, 6, got.Caps[domain.TierRegional])
	assert.Equal(t, 2, got.MinWordOverlap)
	assert.Equal(t, 1, got.MaxRetries)
	assert.Equal(t, time.Second, got.RetryBackoff)
	assert.Equal(t, usecase.TierQueryPlan{MaxKeywords: 2, Qualifiers: []string{"Kuwait"}}, got.QueryPlans[domain.TierPrimary])
	assert.Equal(t, []string{"UAE"}, got.QueryPlans[domain.TierRegional].Qualifiers)
}
