// internal/models/analytics.go
package models

import "time"

// AnalyticsRecord is one recommendation event plus the clicks and bookings
// attributed to it afterwards.
type AnalyticsRecord struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId,omitempty"`
	RecommendedTours []string  `json:"recommendedTours"`
	ClickedTours     []string  `json:"clickedTours"`
	BookedTours      []string  `json:"bookedTours"`
	Timestamp        time.Time `json:"timestamp"`
	Confidence       float64   `json:"confidence"`
	Algorithm        string    `json:"algorithm"`
}

// Clone returns a deep copy so callers never share slices with a store.
func (r AnalyticsRecord) Clone() AnalyticsRecord {
	out := r
	out.RecommendedTours = append([]string{}, r.RecommendedTours...)
	out.ClickedTours = append([]string{}, r.ClickedTours...)
	out.BookedTours = append([]string{}, r.BookedTours...)
	return out
}
