// internal/workers/data-access/query-catalog/models.go
package querycatalog

import "tour-workers/internal/models"

type Input struct {
	QueryType  string `json:"queryType"`
	TourID     string `json:"tourId,omitempty"`
	CustomerID string `json:"customerId,omitempty"`
	Category   string `json:"category,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}

type QueryType = models.QueryType

var (
	QueryTypeTourByID           = models.QueryTypeTourByID
	QueryTypeToursByCategory    = models.QueryTypeToursByCategory
	QueryTypeBookingsByCustomer = models.QueryTypeBookingsByCustomer
	QueryTypeCustomerProfile    = models.QueryTypeCustomerProfile
)
