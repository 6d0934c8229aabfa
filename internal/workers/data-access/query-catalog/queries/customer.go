// internal/workers/data-access/query-catalog/queries/customer.go
package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tour-workers/internal/catalog"
	"tour-workers/internal/models"
)

func BookingsByCustomer(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	customerID, err := stringParam(params, "customerId")
	if err != nil {
		return nil, 0, 0, err
	}

	start := time.Now()

	bookings, err := loadBookings(ctx, db, customerID)
	if err != nil {
		return nil, 0, 0, err
	}

	return bookings, len(bookings), time.Since(start).Milliseconds(), nil
}

// CustomerProfile returns the customer together with their bookings.
func CustomerProfile(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	customerID, err := stringParam(params, "customerId")
	if err != nil {
		return nil, 0, 0, err
	}

	start := time.Now()

	customer, err := catalog.ScanCustomer(db.QueryRowContext(ctx, `
		SELECT `+catalog.CustomerColumns+`
		FROM customers
		WHERE id = $1`, customerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, 0, fmt.Errorf("%w: %s", catalog.ErrCustomerNotFound, customerID)
	}
	if err != nil {
		return nil, 0, 0, err
	}

	bookings, err := loadBookings(ctx, db, customerID)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"customer": customer,
		"bookings": bookings,
	}
	return result, 1, time.Since(start).Milliseconds(), nil
}

func loadBookings(ctx context.Context, db *sql.DB, customerID string) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+catalog.BookingColumns+`
		FROM bookings
		WHERE customer_id = $1
		ORDER BY booking_date, id`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		b, err := catalog.ScanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
