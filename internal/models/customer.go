// internal/models/customer.go
package models

import "time"

// PreferenceProfile is what a traveller states when asking for recommendations.
type PreferenceProfile struct {
	Budget      float64  `json:"budget"`
	Duration    float64  `json:"duration"`
	Interests   []string `json:"interests"`
	TravelStyle string   `json:"travelStyle"`
	GroupSize   int      `json:"groupSize"`
}

type Customer struct {
	ID           string            `json:"id"`
	Name         string            `json:"name,omitempty"`
	Email        string            `json:"email,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	Preferences  PreferenceProfile `json:"preferences"`
	PastBookings []string          `json:"pastBookings"` // booking IDs, oldest first
	CreatedAt    time.Time         `json:"createdAt,omitempty"`
	UpdatedAt    time.Time         `json:"updatedAt,omitempty"`
}

// RecommendationRequest identifies the requester (optional) and their preferences.
type RecommendationRequest struct {
	CustomerID  string            `json:"customerId,omitempty"`
	Preferences PreferenceProfile `json:"preferences"`
}

type RecommendationResponse struct {
	Recommendations []Tour  `json:"recommendations"`
	Reasoning       string  `json:"reasoning"`
	Confidence      float64 `json:"confidence"`
}
