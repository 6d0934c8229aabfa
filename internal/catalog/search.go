package catalog

import (
	"strings"

	"tour-workers/internal/models"
)

// SearchTours returns the tours whose name, description, destinations or tags
// contain query, case-insensitively. An empty query returns every tour.
func SearchTours(tours []models.Tour, query string) []models.Tour {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]models.Tour(nil), tours...)
	}

	var out []models.Tour
	for _, t := range tours {
		if strings.Contains(strings.ToLower(t.Name), q) ||
			strings.Contains(strings.ToLower(t.Description), q) ||
			containsFold(t.Destinations, q) ||
			containsFold(t.Tags, q) {
			out = append(out, t)
		}
	}
	return out
}

func ToursByCategory(tours []models.Tour, category string) []models.Tour {
	var out []models.Tour
	for _, t := range tours {
		if strings.EqualFold(t.Category, category) {
			out = append(out, t)
		}
	}
	return out
}

func FindTour(tours []models.Tour, id string) (models.Tour, bool) {
	for _, t := range tours {
		if t.ID == id {
			return t, true
		}
	}
	return models.Tour{}, false
}

func containsFold(values []string, lowerNeedle string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), lowerNeedle) {
			return true
		}
	}
	return false
}
