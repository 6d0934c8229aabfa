// Package analytics keeps the recommendation event log and attributes later
// clicks and bookings to a user's most recent recommendation.
package analytics

import (
	"context"
	"time"

	"tour-workers/internal/models"
)

// Store is the owned, injectable home of the analytics log.
type Store interface {
	Record(ctx context.Context, record models.AnalyticsRecord) error
	// TrackClick adds tourID to the clicked set of the user's most recent
	// record. It reports false when the user has no record.
	TrackClick(ctx context.Context, userID, tourID string) (bool, error)
	TrackBooking(ctx context.Context, userID, tourID string) (bool, error)
	List(ctx context.Context) ([]models.AnalyticsRecord, error)
}

// RetentionPolicy bounds the log. Zero values disable the corresponding limit.
type RetentionPolicy struct {
	MaxRecords int
	MaxAge     time.Duration
}

type interaction int

const (
	interactionClick interaction = iota
	interactionBooking
)

// apply adds tourID to the set for kind unless already present.
func (k interaction) apply(r *models.AnalyticsRecord, tourID string) {
	target := &r.ClickedTours
	if k == interactionBooking {
		target = &r.BookedTours
	}
	for _, id := range *target {
		if id == tourID {
			return
		}
	}
	*target = append(*target, tourID)
}

// Summary aggregates the log for reporting.
type Summary struct {
	TotalRecommendations int     `json:"totalRecommendations"`
	TotalRecommended     int     `json:"totalRecommendedTours"`
	TotalClicks          int     `json:"totalClicks"`
	TotalBookings        int     `json:"totalBookings"`
	ClickThroughRate     float64 `json:"clickThroughRate"`
	ConversionRate       float64 `json:"conversionRate"`
	AverageConfidence    float64 `json:"averageConfidence"`
}

func Summarize(records []models.AnalyticsRecord) Summary {
	var s Summary
	var confidence float64
	for _, r := range records {
		s.TotalRecommendations++
		s.TotalRecommended += len(r.RecommendedTours)
		s.TotalClicks += len(r.ClickedTours)
		s.TotalBookings += len(r.BookedTours)
		confidence += r.Confidence
	}
	if s.TotalRecommendations > 0 {
		s.AverageConfidence = confidence / float64(s.TotalRecommendations)
	}
	if s.TotalRecommended > 0 {
		s.ClickThroughRate = float64(s.TotalClicks) / float64(s.TotalRecommended)
	}
	if s.TotalClicks > 0 {
		s.ConversionRate = float64(s.TotalBookings) / float64(s.TotalClicks)
	}
	return s
}
