// internal/workers/recommendation/track-interaction/models.go
package trackinteraction

const (
	ActionClick   = "click"
	ActionBooking = "booking"
)

type Input struct {
	Action string `json:"action"`
	UserID string `json:"userId"`
	TourID string `json:"tourId"`
}

type Output struct {
	Tracked bool   `json:"tracked"`
	Action  string `json:"action"`
}
