package recommend

import (
	"math"

	"tour-workers/internal/models"
)

const (
	budgetSimilarityWeight   = 0.3
	durationSimilarityWeight = 0.2
	interestSimilarityWeight = 0.4
	styleSimilarityWeight    = 0.1
)

// Similarity compares two preference profiles and returns a value in [0,1].
// The weighted sum is divided by the weight actually applied.
func Similarity(a, b models.PreferenceProfile) float64 {
	var sum, applied float64

	sum += ratioSimilarity(a.Budget, b.Budget) * budgetSimilarityWeight
	applied += budgetSimilarityWeight

	sum += ratioSimilarity(a.Duration, b.Duration) * durationSimilarityWeight
	applied += durationSimilarityWeight

	sum += jaccardSimilarity(a.Interests, b.Interests) * interestSimilarityWeight
	applied += interestSimilarityWeight

	if a.TravelStyle == b.TravelStyle {
		sum += styleSimilarityWeight
	}
	applied += styleSimilarityWeight

	if applied == 0 {
		return 0
	}
	return sum / applied
}

// ratioSimilarity is 1 - |x-y|/max(x,y), or 0 when the max is not positive.
func ratioSimilarity(x, y float64) float64 {
	m := math.Max(x, y)
	if m <= 0 {
		return 0
	}
	return 1 - math.Abs(x-y)/m
}

// jaccardSimilarity returns |A∩B| / |A∪B|, or 0 for an empty union.
func jaccardSimilarity(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[s] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, s := range b {
		setB[s] = struct{}{}
	}

	intersection := 0
	for s := range setA {
		if _, ok := setB[s]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
