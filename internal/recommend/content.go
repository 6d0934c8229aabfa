package recommend

import (
	"math"
	"strconv"
	"strings"
	"time"

	"tour-workers/internal/models"
)

const (
	budgetPoints      = 35.0
	budgetNearPoints  = 25.0
	budgetStretchPts  = 10.0
	durationPoints    = 25.0
	durationFloor     = 10.0
	interestPoints    = 30.0
	groupFitPoints    = 10.0
	groupJoinPoints   = 5.0
	qualityPoints     = 5.0
	popularityPoints  = 3.0
	seasonPoints      = 5.0
	qualityMinRating  = 4.5
	popularMinReviews = 50

	// ExcludedScore marks a tour the requester already experienced. It is
	// below any attainable positive score.
	ExcludedScore = -100.0
)

const (
	ReasonAlreadyExperienced = "Already experienced"
	ReasonPerfectBudget      = "Perfect budget match"
	ReasonWithinBudget       = "Within budget range"
	ReasonAboveBudget        = "Slightly above budget but great value"
	ReasonFitsSchedule       = "Fits your schedule"
	ReasonGroupFit           = "Perfect for your group size"
	ReasonJoinGroup          = "You can join other travelers"
	ReasonPopular            = "Popular choice"
	ReasonSeason             = "Perfect season to visit"
	ReasonSimilarTravelers   = "Loved by similar travelers"
)

// Candidate is a tour with a score and the human-readable reasons behind it.
type Candidate struct {
	Tour    models.Tour
	Score   float64
	Reasons []string
}

// Breakdown is the per-term contribution to a content score.
type Breakdown struct {
	Budget     float64 `json:"budget"`
	Duration   float64 `json:"duration"`
	Interest   float64 `json:"interest"`
	GroupSize  float64 `json:"groupSize"`
	Quality    float64 `json:"quality"`
	Popularity float64 `json:"popularity"`
	Season     float64 `json:"season"`
}

func (b Breakdown) Total() float64 {
	return b.Budget + b.Duration + b.Interest + b.GroupSize + b.Quality + b.Popularity + b.Season
}

// ContentScorer scores tours against one preference profile.
type ContentScorer struct {
	match InterestMatcher
	now   Clock
}

func NewContentScorer(match InterestMatcher, now Clock) *ContentScorer {
	if match == nil {
		match = SubstringMatcher
	}
	if now == nil {
		now = time.Now
	}
	return &ContentScorer{match: match, now: now}
}

// Score returns one candidate per tour, in catalog order.
func (s *ContentScorer) Score(prefs models.PreferenceProfile, tours []models.Tour, excluded ExclusionSet) []Candidate {
	season := SeasonOf(s.now())
	out := make([]Candidate, 0, len(tours))
	for _, tour := range tours {
		c, _ := s.scoreTour(prefs, tour, season, excluded)
		out = append(out, c)
	}
	return out
}

// ScoreTour scores a single tour and also returns the per-term breakdown.
func (s *ContentScorer) ScoreTour(prefs models.PreferenceProfile, tour models.Tour, excluded ExclusionSet) (Candidate, Breakdown) {
	return s.scoreTour(prefs, tour, SeasonOf(s.now()), excluded)
}

func (s *ContentScorer) scoreTour(prefs models.PreferenceProfile, tour models.Tour, season models.Season, excluded ExclusionSet) (Candidate, Breakdown) {
	if excluded.Has(tour.ID) {
		return Candidate{Tour: tour, Score: ExcludedScore, Reasons: []string{ReasonAlreadyExperienced}}, Breakdown{}
	}

	var b Breakdown
	reasons := make([]string, 0, 8)

	if prefs.Duration > 0 {
		if budgetPerDay := prefs.Budget / prefs.Duration; budgetPerDay > 0 {
			ratio := tour.Price / budgetPerDay
			switch {
			case ratio <= 1:
				b.Budget = budgetPoints
				reasons = append(reasons, ReasonPerfectBudget)
			case ratio <= 1.2:
				b.Budget = budgetNearPoints
				reasons = append(reasons, ReasonWithinBudget)
			case ratio <= 1.5:
				b.Budget = budgetStretchPts
				reasons = append(reasons, ReasonAboveBudget)
			}
		}

		if tour.Duration <= prefs.Duration {
			fit := durationPoints * (1 - math.Abs(tour.Duration-prefs.Duration)/prefs.Duration)
			b.Duration = math.Max(fit, durationFloor)
			reasons = append(reasons, ReasonFitsSchedule)
		}
	}

	matched := matchedInterests(s.match, prefs.Interests, tour)
	b.Interest = interestPoints * float64(len(matched)) / math.Max(float64(len(prefs.Interests)), 1)
	if len(matched) > 0 {
		reasons = append(reasons, "Matches your interests: "+strings.Join(matched, ", "))
	}

	switch {
	case tour.GroupSize.Contains(prefs.GroupSize):
		b.GroupSize = groupFitPoints
		reasons = append(reasons, ReasonGroupFit)
	case prefs.GroupSize < tour.GroupSize.Min:
		b.GroupSize = groupJoinPoints
		reasons = append(reasons, ReasonJoinGroup)
	}

	if tour.Rating >= qualityMinRating {
		b.Quality = qualityPoints
		reasons = append(reasons, "Highly rated ("+formatNumber(tour.Rating)+"★)")
	}

	if tour.ReviewCount > popularMinReviews {
		b.Popularity = popularityPoints
		reasons = append(reasons, ReasonPopular)
	}

	if tour.InSeason(season) {
		b.Season = seasonPoints
		reasons = append(reasons, ReasonSeason)
	}

	return Candidate{Tour: tour, Score: b.Total(), Reasons: reasons}, b
}

// formatNumber prints the shortest decimal form (120, 0.5, 4.8).
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
