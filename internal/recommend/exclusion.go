package recommend

import "tour-workers/internal/models"

// ExclusionSet holds tour IDs (and the raw booking IDs they came from) that a
// requester has already experienced.
type ExclusionSet map[string]struct{}

func (s ExclusionSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// BuildExclusionSet resolves a customer's past booking IDs to tour IDs.
// Unresolvable booking IDs are kept as-is.
func BuildExclusionSet(customer *models.Customer, bookings []models.Booking) ExclusionSet {
	set := make(ExclusionSet)
	if customer == nil || len(customer.PastBookings) == 0 {
		return set
	}

	byID := make(map[string]string, len(bookings))
	for _, b := range bookings {
		byID[b.ID] = b.TourID
	}

	for _, bookingID := range customer.PastBookings {
		set[bookingID] = struct{}{}
		if tourID, ok := byID[bookingID]; ok && tourID != "" {
			set[tourID] = struct{}{}
		}
	}
	return set
}

// ExclusionSetFor looks the customer up by ID; an unknown ID yields an empty set.
func ExclusionSetFor(customerID string, customers []models.Customer, bookings []models.Booking) ExclusionSet {
	return BuildExclusionSet(findCustomer(customers, customerID), bookings)
}

func NewExclusionSet(ids ...string) ExclusionSet {
	set := make(ExclusionSet, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

func findCustomer(customers []models.Customer, id string) *models.Customer {
	if id == "" {
		return nil
	}
	for i := range customers {
		if customers[i].ID == id {
			return &customers[i]
		}
	}
	return nil
}
