// Package recommend implements the hybrid tour recommender: content-based
// scoring blended with collaborative filtering over similar customers.
package recommend

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tour-workers/internal/analytics"
	"tour-workers/internal/common/logger"
	"tour-workers/internal/models"
)

// Engine is safe for concurrent use. Its only shared mutable state lives in
// the injected analytics store.
type Engine struct {
	cfg     Config
	store   analytics.Store
	now     Clock
	logger  logger.Logger
	content *ContentScorer
	collab  *CollaborativeFilter
	blender *Blender
}

type Option func(*Engine)

func WithClock(now Clock) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(log logger.Logger) Option {
	return func(e *Engine) { e.logger = log }
}

// WithInterestMatcher swaps the interest matching heuristic.
func WithInterestMatcher(match InterestMatcher) Option {
	return func(e *Engine) {
		if match != nil {
			e.content.match = match
		}
	}
}

func NewEngine(cfg Config, store analytics.Store, opts ...Option) *Engine {
	cfg = cfg.withDefaults()
	e := &Engine{
		cfg:     cfg,
		store:   store,
		now:     time.Now,
		logger:  logger.NewNoOpLogger(),
		collab:  NewCollaborativeFilter(cfg.PeerThreshold, cfg.PeerBookingPoints),
		blender: NewBlender(cfg),
	}
	e.content = NewContentScorer(SubstringMatcher, func() time.Time { return e.now() })
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = analytics.NewMemoryStore(analytics.RetentionPolicy{}, e.now)
	}
	return e
}

// Result is the recommendation response plus the ID of the analytics record
// written for it (empty if recording failed).
type Result struct {
	models.RecommendationResponse
	RecordID string `json:"recommendationId,omitempty"`
}

// GenerateRecommendations never fails: empty catalogs and unknown customers
// yield an empty, well-formed response. An analytics write failure is logged
// and leaves RecordID empty.
func (e *Engine) GenerateRecommendations(
	ctx context.Context,
	req models.RecommendationRequest,
	customers []models.Customer,
	bookings []models.Booking,
	tours []models.Tour,
) Result {
	start := e.now()

	excluded := BuildExclusionSet(findCustomer(customers, req.CustomerID), bookings)
	content := e.content.Score(req.Preferences, tours, excluded)

	var collab []Candidate
	if req.CustomerID != "" {
		collab = e.collab.Score(req.CustomerID, customers, bookings, tours, excluded)
	}

	blended := e.blender.Blend(req.Preferences, content, collab, excluded)

	recommended := make([]models.Tour, len(blended.Ranked))
	tourIDs := make([]string, len(blended.Ranked))
	for i, c := range blended.Ranked {
		recommended[i] = c.Tour
		tourIDs[i] = c.Tour.ID
	}

	record := models.AnalyticsRecord{
		ID:               uuid.NewString(),
		UserID:           req.CustomerID,
		RecommendedTours: tourIDs,
		ClickedTours:     []string{},
		BookedTours:      []string{},
		Timestamp:        e.now(),
		Confidence:       blended.Confidence,
		Algorithm:        e.cfg.Algorithm,
	}
	recordID := record.ID
	if err := e.store.Record(ctx, record); err != nil {
		e.logger.Warn("failed to record recommendation analytics", map[string]interface{}{
			"customerId": req.CustomerID,
			"error":      err,
		})
		recordID = ""
	}

	e.logger.Debug("recommendations generated", map[string]interface{}{
		"customerId":    req.CustomerID,
		"candidates":    len(content),
		"collaborative": len(collab),
		"returned":      len(recommended),
		"confidence":    blended.Confidence,
		"durationMs":    e.now().Sub(start).Milliseconds(),
	})

	return Result{
		RecommendationResponse: models.RecommendationResponse{
			Recommendations: recommended,
			Reasoning:       blended.Reasoning,
			Confidence:      blended.Confidence,
		},
		RecordID: recordID,
	}
}

// ScoreTour exposes the content score and its breakdown for a single tour.
func (e *Engine) ScoreTour(prefs models.PreferenceProfile, tour models.Tour, excluded ExclusionSet) (Candidate, Breakdown) {
	return e.content.ScoreTour(prefs, tour, excluded)
}

func (e *Engine) TrackClick(ctx context.Context, userID, tourID string) (bool, error) {
	return e.store.TrackClick(ctx, userID, tourID)
}

func (e *Engine) TrackBooking(ctx context.Context, userID, tourID string) (bool, error) {
	return e.store.TrackBooking(ctx, userID, tourID)
}

func (e *Engine) GetAnalytics(ctx context.Context) ([]models.AnalyticsRecord, error) {
	return e.store.List(ctx)
}

func (e *Engine) Config() Config {
	return e.cfg
}
