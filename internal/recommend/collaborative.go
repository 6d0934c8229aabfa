package recommend

import "tour-workers/internal/models"

// CollaborativeFilter scores tours by how many similar customers booked them.
type CollaborativeFilter struct {
	threshold float64
	points    float64
}

func NewCollaborativeFilter(threshold, pointsPerBooking float64) *CollaborativeFilter {
	return &CollaborativeFilter{threshold: threshold, points: pointsPerBooking}
}

// Score returns candidates only for tours chosen by at least one peer. A peer
// is any other customer whose similarity to the requester is strictly above
// the threshold. An unknown requester yields nothing.
func (f *CollaborativeFilter) Score(
	requesterID string,
	customers []models.Customer,
	bookings []models.Booking,
	tours []models.Tour,
	excluded ExclusionSet,
) []Candidate {
	requester := findCustomer(customers, requesterID)
	if requester == nil {
		return nil
	}

	bookingsByID := make(map[string]models.Booking, len(bookings))
	for _, b := range bookings {
		bookingsByID[b.ID] = b
	}

	counts := make(map[string]int)
	var order []string
	for _, peer := range customers {
		if peer.ID == requester.ID {
			continue
		}
		if Similarity(requester.Preferences, peer.Preferences) <= f.threshold {
			continue
		}
		for _, bookingID := range peer.PastBookings {
			booking, ok := bookingsByID[bookingID]
			if !ok || excluded.Has(bookingID) || excluded.Has(booking.TourID) {
				continue
			}
			if _, seen := counts[booking.TourID]; !seen {
				order = append(order, booking.TourID)
			}
			counts[booking.TourID]++
		}
	}

	if len(order) == 0 {
		return nil
	}

	toursByID := make(map[string]models.Tour, len(tours))
	for _, t := range tours {
		toursByID[t.ID] = t
	}

	out := make([]Candidate, 0, len(order))
	for _, tourID := range order {
		tour, ok := toursByID[tourID]
		if !ok {
			continue
		}
		out = append(out, Candidate{
			Tour:    tour,
			Score:   float64(counts[tourID]) * f.points,
			Reasons: []string{ReasonSimilarTravelers},
		})
	}
	return out
}
