// internal/catalog/postgres.go
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"tour-workers/internal/models"
)

// TourColumns is the column list ScanTour expects, in order.
const TourColumns = `id, name, description, destinations, duration, price, currency, category,
	       difficulty, group_min, group_max, includes, highlights, images, rating,
	       review_count, availability, seasonality, tags`

// CustomerColumns is the column list ScanCustomer expects, in order.
const CustomerColumns = `id, name, email, COALESCE(phone, ''), budget, duration, interests, travel_style,
	       group_size, past_bookings`

// BookingColumns is the column list ScanBooking expects, in order.
const BookingColumns = `id, customer_id, tour_id, status, booking_date, travel_date,
	       number_of_people, total_price, currency, COALESCE(special_requests, ''), payment_status`

// RowScanner is satisfied by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...interface{}) error
}

// PostgresSource reads the catalog from the tours, customers and bookings tables.
// List-valued columns hold JSON text arrays.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Load(ctx context.Context) (*Snapshot, error) {
	tours, err := s.loadTours(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tours: %w", err)
	}
	customers, err := s.loadCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	bookings, err := s.loadBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	return &Snapshot{Customers: customers, Tours: tours, Bookings: bookings}, nil
}

func (s *PostgresSource) loadTours(ctx context.Context) ([]models.Tour, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+TourColumns+`
		FROM tours
		ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tours := []models.Tour{}
	for rows.Next() {
		t, err := ScanTour(rows)
		if err != nil {
			return nil, err
		}
		tours = append(tours, t)
	}
	return tours, rows.Err()
}

func (s *PostgresSource) loadCustomers(ctx context.Context) ([]models.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+CustomerColumns+`
		FROM customers
		ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		c, err := ScanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *PostgresSource) loadBookings(ctx context.Context) ([]models.Booking, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+BookingColumns+`
		FROM bookings
		ORDER BY booking_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		b, err := ScanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func ScanTour(row RowScanner) (models.Tour, error) {
	var t models.Tour
	var difficulty string
	var destinations, includes, highlights, images, seasonality, tags []byte

	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &destinations,
		&t.Duration, &t.Price, &t.Currency, &t.Category,
		&difficulty, &t.GroupSize.Min, &t.GroupSize.Max,
		&includes, &highlights, &images,
		&t.Rating, &t.ReviewCount, &t.Available,
		&seasonality, &tags,
	)
	if err != nil {
		return models.Tour{}, err
	}

	t.Difficulty = models.Difficulty(difficulty)
	t.Destinations = decodeStringList(destinations)
	t.Includes = decodeStringList(includes)
	t.Highlights = decodeStringList(highlights)
	t.Images = decodeStringList(images)
	t.Tags = decodeStringList(tags)
	for _, s := range decodeStringList(seasonality) {
		t.Seasonality = append(t.Seasonality, models.Season(s))
	}
	return t, nil
}

func ScanCustomer(row RowScanner) (models.Customer, error) {
	var c models.Customer
	var interests, pastBookings []byte

	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone,
		&c.Preferences.Budget, &c.Preferences.Duration, &interests,
		&c.Preferences.TravelStyle, &c.Preferences.GroupSize, &pastBookings,
	)
	if err != nil {
		return models.Customer{}, err
	}

	c.Preferences.Interests = decodeStringList(interests)
	c.PastBookings = decodeStringList(pastBookings)
	return c, nil
}

func ScanBooking(row RowScanner) (models.Booking, error) {
	var b models.Booking
	var status, paymentStatus string
	var travelDate sql.NullTime

	err := row.Scan(
		&b.ID, &b.CustomerID, &b.TourID, &status,
		&b.BookingDate, &travelDate,
		&b.NumberOfPeople, &b.TotalPrice, &b.Currency,
		&b.SpecialRequests, &paymentStatus,
	)
	if err != nil {
		return models.Booking{}, err
	}

	b.Status = models.BookingStatus(status)
	b.PaymentStatus = models.PaymentStatus(paymentStatus)
	if travelDate.Valid {
		b.TravelDate = travelDate.Time
	}
	return b, nil
}

// decodeStringList parses a JSON text array. Malformed or NULL values decode
// to an empty list.
func decodeStringList(raw []byte) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return []string{}
	}
	return out
}

// EncodeStringList is the inverse of decodeStringList for writes.
func EncodeStringList(values []string) string {
	if values == nil {
		values = []string{}
	}
	data, _ := json.Marshal(values)
	return string(data)
}

// SeedTours inserts tours that are not already present and returns how many
// rows were written. Existing tours are left untouched.
func SeedTours(ctx context.Context, db *sql.DB, tours []models.Tour) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seed tours: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, t := range tours {
		seasons := make([]string, len(t.Seasonality))
		for i, s := range t.Seasonality {
			seasons[i] = string(s)
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO tours (`+TourColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
			ON CONFLICT (id) DO NOTHING`,
			t.ID, t.Name, t.Description, EncodeStringList(t.Destinations),
			t.Duration, t.Price, t.Currency, t.Category,
			string(t.Difficulty), t.GroupSize.Min, t.GroupSize.Max,
			EncodeStringList(t.Includes), EncodeStringList(t.Highlights), EncodeStringList(t.Images),
			t.Rating, t.ReviewCount, t.Available,
			EncodeStringList(seasons), EncodeStringList(t.Tags),
		)
		if err != nil {
			return inserted, fmt.Errorf("seed tour %s: %w", t.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("seed tours: %w", err)
	}
	return inserted, nil
}
