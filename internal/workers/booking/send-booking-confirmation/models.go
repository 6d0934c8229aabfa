// internal/workers/booking/send-booking-confirmation/models.go
package sendbookingconfirmation

type Input struct {
	BookingID string `json:"bookingId"`
	// SendSMS adds a text message when the customer has a phone number.
	SendSMS bool `json:"sendSms,omitempty"`
}

type Output struct {
	NotificationID string          `json:"notificationId"`
	Status         string          `json:"status"`
	Deliveries     []DeliveryEvent `json:"deliveries"`
	SentAt         string          `json:"sentAt"` // ISO 8601
}

type DeliveryEvent struct {
	Channel   string `json:"channel"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Statuses
const (
	StatusSent     = "sent"
	StatusPartial  = "partial"
	StatusDisabled = "disabled"
)

// Channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// confirmation is the booking joined with its customer and tour.
type confirmation struct {
	BookingID      string
	TravelDate     string
	NumberOfPeople int
	TotalPrice     float64
	Currency       string
	CustomerName   string
	Email          string
	Phone          string
	TourName       string
}
