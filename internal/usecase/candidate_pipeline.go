package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/roomscout/backend/internal/domain"
)

// PipelineState names the stages of one pipeline run
type PipelineState string

const (
	StateQueryIssued     PipelineState = "query_issued"
	StateResultsReceived PipelineState = "results_received"
	StateFiltering       PipelineState = "filtering"
	StateScored          PipelineState = "scored"
	StateTruncated       PipelineState = "truncated"
)

// Rejection reasons logged for dropped search results
const (
	rejectDuplicate    = "duplicate-url"
	rejectOutOfRegion  = "out-of-region"
	rejectCategoryPage = "category-page"
	rejectColor        = "forbidden-color"
	rejectLowOverlap   = "low-word-overlap"
	rejectMissingType  = "type-not-mentioned"
)

// PipelineConfig holds configuration for the candidate pipeline
type PipelineConfig struct {
	Caps           map[domain.RegionTier]int
	MinWordOverlap int
	MaxRetries     int
	RetryBackoff   time.Duration
	QueryPlans     map[domain.RegionTier]TierQueryPlan
	Weights        ScoreWeights
}

// DefaultCaps returns the per-tier result caps
func DefaultCaps() map[domain.RegionTier]int {
	return map[domain.RegionTier]int{
		domain.TierPrimary:  3,
		domain.TierRegional: 5,
	}
}

// CandidatePipeline finds, filters, scores and ranks products for one item
// in one region tier. Queries within a run are strictly sequential; the
// limiter may be shared with other pipelines hitting the same provider.
type CandidatePipeline struct {
	search     domain.SearchProvider
	directory  *StoreDirectory
	classifier *PageClassifier
	extractor  *AttributeExtractor
	scorer     *RelevanceScorer
	queries    *QueryBuilder
	limiter    *rate.Limiter

	caps           map[domain.RegionTier]int
	minWordOverlap int
	maxRetries     int
	retryBackoff   time.Duration
	logger         zerolog.Logger
}

// NewCandidatePipeline creates a pipeline. A nil limiter disables rate limiting.
func NewCandidatePipeline(
	search domain.SearchProvider,
	directory *StoreDirectory,
	limiter *rate.Limiter,
	config PipelineConfig,
) *CandidatePipeline {
	caps := DefaultCaps()
	for tier, c := range config.Caps {
		if c > 0 {
			caps[tier] = c
		}
	}

	minOverlap := config.MinWordOverlap
	if minOverlap <= 0 {
		minOverlap = 1
	}

	maxRetries := config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	backoff := config.RetryBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	return &CandidatePipeline{
		search:         search,
		directory:      directory,
		classifier:     NewPageClassifier(),
		extractor:      NewAttributeExtractor(),
		scorer:         NewRelevanceScorer(config.Weights),
		queries:        NewQueryBuilder(config.QueryPlans),
		limiter:        limiter,
		caps:           caps,
		minWordOverlap: minOverlap,
		maxRetries:     maxRetries,
		retryBackoff:   backoff,
		logger:         log.With().Str("component", "pipeline").Logger(),
	}
}

// Cap returns the result cap for tier
func (p *CandidatePipeline) Cap(tier domain.RegionTier) int {
	return p.caps[tier]
}

// Run executes the pipeline for item in tier. Failed queries are logged,
// counted and treated as empty. A cancelled context yields no products.
func (p *CandidatePipeline) Run(ctx context.Context, item domain.Item, tier domain.RegionTier) domain.TierResult {
	result := domain.TierResult{Item: item, Tier: tier}
	logger := p.logger.With().Str("tier", string(tier)).Str("item", item.Type).Logger()

	constraint := p.extractor.ExtractColorConstraint(item.Description)
	if !constraint.IsEmpty() {
		logger.Debug().Str("color", constraint.Family).Strs("forbidden", constraint.Forbidden).Msg("color constraint")
	}

	seen := make(map[string]bool)
	var candidates []domain.Candidate

	for _, query := range p.queries.BuildQueries(item, tier) {
		if ctx.Err() != nil {
			break
		}

		logger.Debug().Str("state", string(StateQueryIssued)).Str("query", query).Msg("searching")
		result.QueriesIssued++

		results, err := p.searchWithRetry(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			result.FailedQueries++
			logger.Warn().Err(err).Str("query", query).Msg("search failed, continuing with next query")
			continue
		}
		if len(results) == 0 {
			logger.Info().Str("query", query).Msg("no results for query")
			continue
		}

		logger.Debug().Str("state", string(StateResultsReceived)).Int("results", len(results)).Msg("filtering")
		for _, r := range results {
			candidate, reason, ok := p.consider(item, tier, constraint, r, seen)
			if !ok {
				logger.Debug().Str("state", string(StateFiltering)).Str("reason", reason).
					Str("title", truncate(r.Title, 50)).Msg("rejected")
				continue
			}
			candidates = append(candidates, candidate)
			logger.Debug().Str("state", string(StateScored)).Int("score", candidate.Score).
				Str("store", candidate.Store).Str("title", truncate(candidate.Title, 50)).Msg("kept")
		}
	}

	if ctx.Err() != nil {
		logger.Warn().Err(ctx.Err()).Msg("run cancelled, discarding partial candidates")
		result.Cancelled = true
		return result
	}

	result.Products = rankAndTruncate(candidates, p.caps[tier])
	logger.Info().Str("state", string(StateTruncated)).Int("found", len(candidates)).
		Int("kept", len(result.Products)).Msg("pipeline finished")

	return result
}

// consider applies the filters to one search result in order and scores the
// survivor. The URL is marked seen before any filter runs.
func (p *CandidatePipeline) consider(
	item domain.Item,
	tier domain.RegionTier,
	constraint domain.ColorConstraint,
	r domain.SearchResult,
	seen map[string]bool,
) (domain.Candidate, string, bool) {
	if seen[r.Link] {
		return domain.Candidate{}, rejectDuplicate, false
	}
	seen[r.Link] = true

	if !p.directory.IsMember(r.Link, tier) {
		return domain.Candidate{}, rejectOutOfRegion, false
	}

	if p.classifier.IsCategoryPage(r.Title, r.Link) {
		return domain.Candidate{}, rejectCategoryPage, false
	}

	text := r.Text()
	if _, hit := p.extractor.ForbiddenHit(constraint, text); hit {
		return domain.Candidate{}, rejectColor, false
	}

	if wordOverlap(item.Description, text) < p.minWordOverlap {
		return domain.Candidate{}, rejectLowOverlap, false
	}

	if itemType := item.NormalizedType(); itemType == "" || !strings.Contains(text, itemType) {
		return domain.Candidate{}, rejectMissingType, false
	}

	candidate := domain.NewCandidate(r, p.directory.StoreName(r.Link), ExtractPrice(r.Title+" "+r.Snippet))
	candidate.Score = p.scorer.Score(candidate, item)
	return candidate, "", true
}

// searchWithRetry runs one query, retrying transient failures with a fixed
// backoff. Every attempt waits on the shared limiter.
func (p *CandidatePipeline) searchWithRetry(ctx context.Context, query string) ([]domain.SearchResult, error) {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.retryBackoff):
			}
			p.logger.Debug().Str("query", query).Int("attempt", attempt+1).Msg("retrying search")
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		results, err := p.search.Search(ctx, query)
		if err == nil {
			return results, nil
		}
		lastErr = err
		if !domain.IsTransient(err) {
			break
		}
	}
	return nil, lastErr
}

// wordOverlap counts words longer than three characters shared by the item
// description and the candidate text.
func wordOverlap(description, text string) int {
	n, _ := findIntersection(significantWords(description, 3), significantWords(text, 3))
	return n
}

// rankAndTruncate sorts by score descending, keeping discovery order for
// ties, and keeps at most limit candidates.
func rankAndTruncate(candidates []domain.Candidate, limit int) []domain.Candidate {
	ranked := make([]domain.Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
