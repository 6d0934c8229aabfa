// internal/catalog/profile.go
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tour-workers/internal/models"
)

const profileKeyPrefix = "customer:profile:"

// CustomerProfile is what a single-tour score needs about a customer.
type CustomerProfile struct {
	CustomerID    string                   `json:"customerId"`
	Preferences   models.PreferenceProfile `json:"preferences"`
	PastBookings  []string                 `json:"pastBookings"`
	BookedTourIDs []string                 `json:"bookedTourIds"`
}

// ProfileLookup reads customer profiles through a Redis cache backed by Postgres.
// A nil redis client disables caching.
type ProfileLookup struct {
	db    *sql.DB
	redis *redis.Client
	ttl   time.Duration
}

func NewProfileLookup(db *sql.DB, client *redis.Client, ttl time.Duration) *ProfileLookup {
	return &ProfileLookup{db: db, redis: client, ttl: ttl}
}

func ProfileCacheKey(customerID string) string {
	return profileKeyPrefix + customerID
}

func (p *ProfileLookup) Get(ctx context.Context, customerID string) (*CustomerProfile, error) {
	key := ProfileCacheKey(customerID)

	if p.redis != nil {
		if cached, err := p.redis.Get(ctx, key).Bytes(); err == nil {
			var profile CustomerProfile
			if json.Unmarshal(cached, &profile) == nil {
				return &profile, nil
			}
		}
	}

	customer, err := ScanCustomer(p.db.QueryRowContext(ctx, `
		SELECT `+CustomerColumns+`
		FROM customers
		WHERE id = $1`, customerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, customerID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT tour_id
		FROM bookings
		WHERE customer_id = $1
		ORDER BY booking_date, id`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tourIDs := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		tourIDs = append(tourIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	profile := &CustomerProfile{
		CustomerID:    customer.ID,
		Preferences:   customer.Preferences,
		PastBookings:  customer.PastBookings,
		BookedTourIDs: tourIDs,
	}

	if p.redis != nil {
		if data, err := json.Marshal(profile); err == nil {
			p.redis.Set(ctx, key, data, p.ttl)
		}
	}
	return profile, nil
}

// Invalidate drops a cached profile, e.g. after a new booking.
func (p *ProfileLookup) Invalidate(ctx context.Context, customerID string) error {
	if p.redis == nil {
		return nil
	}
	return p.redis.Del(ctx, ProfileCacheKey(customerID)).Err()
}
