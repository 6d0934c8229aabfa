// internal/workers/booking/register-customer/models.go
package registercustomer

import "tour-workers/internal/models"

type Input struct {
	Name        string                   `json:"name"`
	Email       string                   `json:"email"`
	Phone       string                   `json:"phone,omitempty"`
	Preferences models.PreferenceProfile `json:"preferences"`
}

type Output struct {
	CustomerID string          `json:"customerId"`
	Customer   models.Customer `json:"customer"`
	// Created is false when a customer with the same email already existed.
	Created bool `json:"created"`
}
