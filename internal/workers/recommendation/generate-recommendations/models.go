// internal/workers/recommendation/generate-recommendations/models.go
package generaterecommendations

import "tour-workers/internal/models"

type Input struct {
	CustomerID  string                    `json:"customerId,omitempty"`
	Preferences *models.PreferenceProfile `json:"preferences"`
}

type Output struct {
	Recommendations  []models.Tour `json:"recommendations"`
	Reasoning        string        `json:"reasoning"`
	Confidence       float64       `json:"confidence"`
	Algorithm        string        `json:"algorithm"`
	RecommendationID string        `json:"recommendationId,omitempty"`
}
