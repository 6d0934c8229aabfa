// internal/models/booking.go
package models

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type Booking struct {
	ID              string        `json:"id"`
	CustomerID      string        `json:"customerId"`
	TourID          string        `json:"tourPackageId"`
	Status          BookingStatus `json:"status"`
	BookingDate     time.Time     `json:"bookingDate,omitempty"`
	TravelDate      time.Time     `json:"travelDate,omitempty"`
	NumberOfPeople  int           `json:"numberOfPeople,omitempty"`
	TotalPrice      float64       `json:"totalPrice,omitempty"`
	Currency        string        `json:"currency,omitempty"`
	SpecialRequests string        `json:"specialRequests,omitempty"`
	PaymentStatus   PaymentStatus `json:"paymentStatus,omitempty"`
	CreatedAt       time.Time     `json:"createdAt,omitempty"`
	UpdatedAt       time.Time     `json:"updatedAt,omitempty"`
}
