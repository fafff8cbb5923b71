// Package bootstrap builds the application object graph from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/roomscout/backend/config"
	"github.com/roomscout/backend/internal/domain"
	"github.com/roomscout/backend/internal/infrastructure/brightdata"
	"github.com/roomscout/backend/internal/infrastructure/cache"
	"github.com/roomscout/backend/internal/infrastructure/logging"
	"github.com/roomscout/backend/internal/infrastructure/sqlite"
	"github.com/roomscout/backend/internal/infrastructure/vision"
	"github.com/roomscout/backend/internal/usecase"
)

// App holds the wired services shared by the server and the CLI
type App struct {
	Config     *config.Config
	Directory  *usecase.StoreDirectory
	Classifier *usecase.PageClassifier
	Finder     *usecase.ProductFinder
	Vision     *vision.Analyzer
	Sessions   *usecase.SessionService // nil until OpenSessions

	closers []io.Closer
}

// Option customizes New
type Option func(*logging.Config)

// WithLogOutput sends logs to w instead of stdout
func WithLogOutput(w io.Writer) Option {
	return func(c *logging.Config) { c.Output = w }
}

// New configures logging and builds the search stack. Nothing here touches
// the network except the Redis ping when the redis cache is selected.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	logCfg := logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}
	for _, opt := range opts {
		opt(&logCfg)
	}
	logging.Setup(logCfg)

	app := &App{Config: cfg, Classifier: usecase.NewPageClassifier()}

	searchCache, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, searchCache)

	directory, err := newDirectory(cfg.Stores)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Directory = directory

	client := brightdata.NewClient(brightdata.Config{
		APIKey:         cfg.Search.APIKey,
		Zone:           cfg.Search.Zone,
		BaseURL:        cfg.Search.BaseURL,
		Country:        cfg.Search.Country,
		Language:       cfg.Search.Language,
		SearchTimeout:  cfg.Search.Timeout,
		FetchTimeout:   cfg.Search.FetchTimeout,
		DirectFallback: cfg.Search.DirectFetchFallback,
	})
	if !client.Configured() {
		log.Warn().Msg("search API key not configured - product searches will return no results")
	}

	search := usecase.NewCachedSearchProvider(client, searchCache, cfg.Cache.TTL)

	// One bucket for every pipeline so concurrent items share the query budget
	var limiter *rate.Limiter
	if cfg.Pipeline.QueryInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Pipeline.QueryInterval), 1)
	}

	pipeline := usecase.NewCandidatePipeline(search, directory, limiter, pipelineConfig(cfg.Pipeline))
	enricher := usecase.NewEnrichmentService(client, directory, cfg.Pipeline.EnrichInterval)
	app.Finder = usecase.NewProductFinder(pipeline, enricher, usecase.FinderConfig{
		Workers:      cfg.Pipeline.Workers,
		BatchTimeout: cfg.Pipeline.BatchTimeout,
	})

	app.Vision = vision.NewAnalyzer(vision.Config{
		APIKey:    cfg.Vision.APIKey,
		BaseURL:   cfg.Vision.BaseURL,
		Model:     cfg.Vision.Model,
		MaxTokens: cfg.Vision.MaxTokens,
	})

	log.Info().
		Str("cache", cfg.Cache.Type).
		Int("stores", len(directory.Entries())).
		Int("workers", cfg.Pipeline.Workers).
		Dur("query_interval", cfg.Pipeline.QueryInterval).
		Bool("search_configured", cfg.SearchConfigured()).
		Bool("vision_configured", cfg.VisionConfigured()).
		Msg("application wired")

	return app, nil
}

// OpenSessions opens the SQLite session store and builds the session service
func (a *App) OpenSessions(ctx context.Context) error {
	path := a.Config.Storage.SQLitePath
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create storage dir: %w", err)
		}
	}

	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, store)
	a.Sessions = usecase.NewSessionService(store)

	log.Info().Str("path", path).Msg("session store opened")
	return nil
}

// Close releases caches and databases in reverse order of creation
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

type closableCache interface {
	domain.CacheRepository
	io.Closer
}

func newCache(ctx context.Context, cfg config.CacheConfig) (closableCache, error) {
	switch strings.ToLower(cfg.Type) {
	case "redis":
		c, err := cache.NewRedisCache(ctx, cfg.RedisURL, "")
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, nil
	default:
		return cache.NewMemoryCache(0), nil
	}
}

func newDirectory(stores []domain.StoreEntry) (*usecase.StoreDirectory, error) {
	if len(stores) == 0 {
		return usecase.MustDefaultStoreDirectory(), nil
	}
	dir, err := usecase.NewStoreDirectory(stores, usecase.DefaultTLDFallbacks)
	if err != nil {
		return nil, fmt.Errorf("store table: %w", err)
	}
	return dir, nil
}

func pipelineConfig(cfg config.PipelineConfig) usecase.PipelineConfig {
	return usecase.PipelineConfig{
		Caps: map[domain.RegionTier]int{
			domain.TierPrimary:  cfg.PrimaryCap,
			domain.TierRegional: cfg.RegionalCap,
		},
		MinWordOverlap: cfg.MinWordOverlap,
		MaxRetries:     cfg.MaxRetries,
		RetryBackoff:   cfg.RetryBackoff,
		QueryPlans: map[domain.RegionTier]usecase.TierQueryPlan{
			domain.TierPrimary:  {MaxKeywords: cfg.PrimaryKeywords, Qualifiers: cfg.PrimaryQualifiers},
			domain.TierRegional: {MaxKeywords: cfg.RegionalKeywords, Qualifiers: cfg.RegionalQualifiers},
		},
	}
}
