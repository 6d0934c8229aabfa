// Package catalog supplies the recommender with fully materialized customers,
// tours and bookings.
package catalog

import (
	"context"
	"errors"

	"tour-workers/internal/models"
)

var (
	ErrTourNotFound     = errors.New("tour not found")
	ErrCustomerNotFound = errors.New("customer not found")
)

// Snapshot is one consistent read of the three collections.
type Snapshot struct {
	Customers []models.Customer `json:"customers"`
	Tours     []models.Tour     `json:"tours"`
	Bookings  []models.Booking  `json:"bookings"`
}

// Source loads a Snapshot.
type Source interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// StaticSource serves a fixed in-memory snapshot.
type StaticSource struct {
	snapshot Snapshot
}

func NewStaticSource(snapshot Snapshot) *StaticSource {
	return &StaticSource{snapshot: snapshot}
}

// NewSampleSource serves the seed catalog with no customers or bookings.
func NewSampleSource() *StaticSource {
	return NewStaticSource(Snapshot{
		Customers: []models.Customer{},
		Tours:     SampleTours(),
		Bookings:  []models.Booking{},
	})
}

func (s *StaticSource) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := s.snapshot
	return &snap, nil
}
