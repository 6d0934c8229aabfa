// internal/models/query_types.go
package models

type QueryType string

const (
	QueryTypeTourByID           QueryType = "tour_by_id"
	QueryTypeToursByCategory    QueryType = "tours_by_category"
	QueryTypeBookingsByCustomer QueryType = "bookings_by_customer"
	QueryTypeCustomerProfile    QueryType = "customer_profile"
)
