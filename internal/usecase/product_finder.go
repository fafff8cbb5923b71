package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/roomscout/backend/internal/domain"
)

// FinderConfig holds configuration for the product finder
type FinderConfig struct {
	Workers      int
	BatchTimeout time.Duration
}

// ProductFinder runs the candidate pipeline over a batch of items. Items are
// processed by a bounded pool; the tiers of one item run one after the other.
type ProductFinder struct {
	pipeline     *CandidatePipeline
	enricher     *EnrichmentService
	workers      int
	batchTimeout time.Duration
	logger       zerolog.Logger
}

// NewProductFinder creates a product finder. enricher may be nil, in which
// case enrichment requests are ignored.
func NewProductFinder(pipeline *CandidatePipeline, enricher *EnrichmentService, config FinderConfig) *ProductFinder {
	workers := config.Workers
	if workers <= 0 {
		workers = 2
	}

	batchTimeout := config.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 5 * time.Minute
	}

	return &ProductFinder{
		pipeline:     pipeline,
		enricher:     enricher,
		workers:      workers,
		batchTimeout: batchTimeout,
		logger:       log.With().Str("component", "finder").Logger(),
	}
}

// FindProducts searches both tiers for every item. The result has one entry
// per item in input order, with both counts always set. Items cut off by the
// batch timeout come back empty and degraded.
func (f *ProductFinder) FindProducts(ctx context.Context, items []domain.Item, enrich bool) ([]domain.ItemResult, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	results := make([]domain.ItemResult, len(items))
	err := f.forEach(ctx, items, func(ctx context.Context, i int, item domain.Item) {
		results[i] = f.findBoth(ctx, item, enrich)
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

// FindForTier searches a single tier for every item. Items without products
// are omitted from the result.
func (f *ProductFinder) FindForTier(
	ctx context.Context,
	items []domain.Item,
	tier domain.RegionTier,
	enrich bool,
) ([]domain.TierResult, error) {
	if !tier.Valid() {
		return nil, fmt.Errorf("%w: unknown tier %q", domain.ErrInvalidRequest, tier)
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}

	all := make([]domain.TierResult, len(items))
	err := f.forEach(ctx, items, func(ctx context.Context, i int, item domain.Item) {
		all[i] = f.runTier(ctx, item, tier, enrich)
	})
	if err != nil {
		return nil, err
	}

	var results []domain.TierResult
	for _, r := range all {
		if len(r.Products) > 0 {
			results = append(results, r)
		}
	}
	return results, nil
}

// forEach runs fn for every item on the worker pool under the batch timeout.
// It only fails when the caller's own context is done.
func (f *ProductFinder) forEach(
	ctx context.Context,
	items []domain.Item,
	fn func(ctx context.Context, i int, item domain.Item),
) error {
	batchCtx, cancel := context.WithTimeout(ctx, f.batchTimeout)
	defer cancel()

	start := time.Now()
	var g errgroup.Group
	g.SetLimit(f.workers)
	for i, item := range items {
		g.Go(func() error {
			fn(batchCtx, i, item)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if batchCtx.Err() != nil {
		f.logger.Warn().Dur("timeout", f.batchTimeout).Int("items", len(items)).Msg("batch timed out")
	}

	f.logger.Info().Int("items", len(items)).Dur("elapsed", time.Since(start)).Msg("batch finished")
	return nil
}

func (f *ProductFinder) findBoth(ctx context.Context, item domain.Item, enrich bool) domain.ItemResult {
	primary := f.runTier(ctx, item, domain.TierPrimary, enrich)
	regional := f.runTier(ctx, item, domain.TierRegional, enrich)

	failed := primary.FailedQueries + regional.FailedQueries
	if primary.Cancelled || regional.Cancelled || ctx.Err() != nil {
		// A half-searched item reports no products at all
		return domain.ItemResult{
			Item:             item,
			PrimaryProducts:  []domain.Candidate{},
			RegionalProducts: []domain.Candidate{},
			FailedQueries:    failed,
			Degraded:         true,
		}
	}

	return domain.ItemResult{
		Item:             item,
		PrimaryProducts:  nonNil(primary.Products),
		RegionalProducts: nonNil(regional.Products),
		PrimaryCount:     len(primary.Products),
		RegionalCount:    len(regional.Products),
		FailedQueries:    failed,
		Degraded:         failed > 0,
	}
}

func (f *ProductFinder) runTier(ctx context.Context, item domain.Item, tier domain.RegionTier, enrich bool) domain.TierResult {
	result := f.pipeline.Run(ctx, item, tier)
	if enrich && f.enricher != nil && len(result.Products) > 0 && ctx.Err() == nil {
		result.Products = f.enricher.Enrich(ctx, result.Products)
	}
	return result
}

// validateItems rejects an empty batch and any item the pipeline cannot use
func validateItems(items []domain.Item) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: no items", domain.ErrInvalidRequest)
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

func nonNil(c []domain.Candidate) []domain.Candidate {
	if c == nil {
		return []domain.Candidate{}
	}
	return c
}
