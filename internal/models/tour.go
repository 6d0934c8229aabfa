// internal/models/tour.go
package models

import "time"

type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
	SeasonAll    Season = "all"
)

type Difficulty string

const (
	DifficultyEasy        Difficulty = "easy"
	DifficultyModerate    Difficulty = "moderate"
	DifficultyChallenging Difficulty = "challenging"
)

// GroupSizeRange is an inclusive [Min, Max] range of travellers.
type GroupSizeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (g GroupSizeRange) Contains(size int) bool {
	return size >= g.Min && size <= g.Max
}

type Tour struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Destinations []string       `json:"destinations"`
	Duration     float64        `json:"duration"` // days, may be fractional
	Price        float64        `json:"price"`
	Currency     string         `json:"currency"`
	Category     string         `json:"category"`
	Difficulty   Difficulty     `json:"difficulty,omitempty"`
	GroupSize    GroupSizeRange `json:"groupSize"`
	Includes     []string       `json:"includes,omitempty"`
	Highlights   []string       `json:"highlights,omitempty"`
	Images       []string       `json:"images,omitempty"`
	Rating       float64        `json:"rating"`
	ReviewCount  int            `json:"reviewCount"`
	Available    bool           `json:"availability"`
	Seasonality  []Season       `json:"seasonality"`
	Tags         []string       `json:"tags"`
	CreatedAt    time.Time      `json:"createdAt,omitempty"`
	UpdatedAt    time.Time      `json:"updatedAt,omitempty"`
}

// InSeason reports whether the tour runs in the given season or all year round.
func (t Tour) InSeason(s Season) bool {
	for _, v := range t.Seasonality {
		if v == s || v == SeasonAll {
			return true
		}
	}
	return false
}
