// internal/workers/recommendation/score-tour-match/models.go
package scoretourmatch

import (
	"tour-workers/internal/models"
	"tour-workers/internal/recommend"
)

// Input names a tour and either inline preferences or a customer whose stored
// preferences are used.
type Input struct {
	TourID      string                    `json:"tourId"`
	CustomerID  string                    `json:"customerId,omitempty"`
	Preferences *models.PreferenceProfile `json:"preferences,omitempty"`
}

type Output struct {
	TourID    string              `json:"tourId"`
	Score     float64             `json:"score"`
	Reasons   []string            `json:"reasons"`
	Breakdown recommend.Breakdown `json:"breakdown"`
	Excluded  bool                `json:"excluded"`
	// ProfileSource is "inline", "profile" or "catalog".
	ProfileSource string `json:"profileSource"`
}
