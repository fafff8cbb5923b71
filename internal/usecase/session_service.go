package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/roomscout/backend/internal/domain"
)

// SaveSessionInput is an analysed photo with the search results to keep
type SaveSessionInput struct {
	ImagePath string
	Results   []domain.ItemResult
}

// SessionService saves and reads back analysis sessions
type SessionService struct {
	store  domain.SessionStore
	now    func() time.Time
	logger zerolog.Logger
}

// NewSessionService creates a session service backed by store
func NewSessionService(store domain.SessionStore) *SessionService {
	return &SessionService{
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		logger: log.With().Str("component", "sessions").Logger(),
	}
}

// Save persists input as a new session and returns it. Products of both
// tiers are flattened, primary first.
func (s *SessionService) Save(ctx context.Context, input SaveSessionInput) (*domain.Session, error) {
	if strings.TrimSpace(input.ImagePath) == "" {
		return nil, fmt.Errorf("%w: image path required", domain.ErrInvalidRequest)
	}
	if len(input.Results) == 0 {
		return nil, fmt.Errorf("%w: no items", domain.ErrInvalidRequest)
	}

	session := &domain.Session{
		ID:        uuid.NewString(),
		ImagePath: input.ImagePath,
		CreatedAt: s.now(),
		Items:     make([]domain.SessionItem, 0, len(input.Results)),
	}

	for i, r := range input.Results {
		if err := r.Item.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		products := make([]domain.ProductRecord, 0, len(r.PrimaryProducts)+len(r.RegionalProducts))
		for _, c := range r.PrimaryProducts {
			products = append(products, domain.RecordFromCandidate(c))
		}
		for _, c := range r.RegionalProducts {
			products = append(products, domain.RecordFromCandidate(c))
		}
		session.Items = append(session.Items, domain.SessionItem{Item: r.Item, Products: products})
	}

	if err := s.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.logger.Info().Str("session", session.ID).Int("items", len(session.Items)).Msg("session saved")
	return session, nil
}

// List returns session summaries, newest first
func (s *SessionService) List(ctx context.Context) ([]domain.SessionSummary, error) {
	return s.store.List(ctx)
}

// Get returns the session with id or domain.ErrSessionNotFound
func (s *SessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrSessionNotFound
	}
	return s.store.Get(ctx, id)
}
