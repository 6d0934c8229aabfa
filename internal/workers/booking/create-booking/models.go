// internal/workers/booking/create-booking/models.go
package createbooking

import "tour-workers/internal/models"

type Input struct {
	CustomerID    string `json:"customerId"`
	TourPackageID string `json:"tourPackageId"`
	// TravelDate is either YYYY-MM-DD or RFC 3339.
	TravelDate      string `json:"travelDate"`
	NumberOfPeople  int    `json:"numberOfPeople"`
	SpecialRequests string `json:"specialRequests,omitempty"`
}

type Output struct {
	BookingID  string         `json:"bookingId"`
	Booking    models.Booking `json:"booking"`
	TotalPrice float64        `json:"totalPrice"`
	Currency   string         `json:"currency"`
}
