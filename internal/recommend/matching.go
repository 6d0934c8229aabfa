package recommend

import (
	"fmt"
	"strings"

	"tour-workers/internal/models"
)

// InterestMatcher decides whether a single requested interest matches a tour.
type InterestMatcher func(interest string, tour models.Tour) bool

// SubstringMatcher matches when the lowercased interest occurs inside any tag,
// the category or the name of the tour. Blank interests never match.
func SubstringMatcher(interest string, tour models.Tour) bool {
	needle := strings.ToLower(strings.TrimSpace(interest))
	if needle == "" {
		return false
	}
	for _, tag := range tour.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(tour.Category), needle) ||
		strings.Contains(strings.ToLower(tour.Name), needle)
}

// TokenMatcher requires a case-insensitive whole-token match against a tag,
// the category or one word of the name.
func TokenMatcher(interest string, tour models.Tour) bool {
	needle := strings.TrimSpace(interest)
	if needle == "" {
		return false
	}
	for _, tag := range tour.Tags {
		if strings.EqualFold(tag, needle) {
			return true
		}
	}
	if strings.EqualFold(tour.Category, needle) {
		return true
	}
	for _, word := range strings.Fields(tour.Name) {
		if strings.EqualFold(strings.Trim(word, "&,.-"), needle) {
			return true
		}
	}
	return false
}

// MatcherByName resolves the interest_matching config value.
func MatcherByName(name string) (InterestMatcher, error) {
	switch strings.ToLower(name) {
	case "", "substring":
		return SubstringMatcher, nil
	case "token":
		return TokenMatcher, nil
	default:
		return nil, fmt.Errorf("unknown interest matcher %q", name)
	}
}

func matchedInterests(match InterestMatcher, interests []string, tour models.Tour) []string {
	var matched []string
	for _, interest := range interests {
		if match(interest, tour) {
			matched = append(matched, interest)
		}
	}
	return matched
}
