package recommend

import (
	"time"

	"tour-workers/internal/models"
)

// Clock returns the current time. Scoring never reads the wall clock directly.
type Clock func() time.Time

// SeasonOf maps a date to its northern-hemisphere season.
func SeasonOf(t time.Time) models.Season {
	switch t.Month() {
	case time.March, time.April, time.May:
		return models.SeasonSpring
	case time.June, time.July, time.August:
		return models.SeasonSummer
	case time.September, time.October, time.November:
		return models.SeasonAutumn
	default:
		return models.SeasonWinter
	}
}
