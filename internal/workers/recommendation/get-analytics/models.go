// internal/workers/recommendation/get-analytics/models.go
package getanalytics

import (
	"tour-workers/internal/analytics"
	"tour-workers/internal/models"
)

type Input struct {
	UserID string `json:"userId,omitempty"`
}

type Output struct {
	Records []models.AnalyticsRecord `json:"records"`
	Summary analytics.Summary        `json:"summary"`
}
