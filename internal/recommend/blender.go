package recommend

import (
	"fmt"
	"sort"
	"strings"

	"tour-workers/internal/models"
)

const reasonsInSummary = 3

// Blended is the ranked, truncated result of merging both scorers.
type Blended struct {
	Ranked     []Candidate
	Confidence float64
	Reasoning  string
}

// Blender merges content and collaborative candidates with fixed weights.
type Blender struct {
	contentWeight float64
	collabWeight  float64
	topN          int
	minConfidence float64
	maxConfidence float64
}

func NewBlender(cfg Config) *Blender {
	return &Blender{
		contentWeight: cfg.ContentWeight,
		collabWeight:  cfg.CollaborativeWeight,
		topN:          cfg.TopN,
		minConfidence: cfg.MinConfidence,
		maxConfidence: cfg.MaxConfidence,
	}
}

func (b *Blender) Blend(prefs models.PreferenceProfile, content, collab []Candidate, excluded ExclusionSet) Blended {
	index := make(map[string]int, len(content)+len(collab))
	merged := make([]Candidate, 0, len(content)+len(collab))

	for _, c := range content {
		if _, dup := index[c.Tour.ID]; dup {
			continue
		}
		index[c.Tour.ID] = len(merged)
		merged = append(merged, Candidate{
			Tour:    c.Tour,
			Score:   c.Score * b.contentWeight,
			Reasons: append([]string(nil), c.Reasons...),
		})
	}

	for _, c := range collab {
		if i, ok := index[c.Tour.ID]; ok {
			merged[i].Score += c.Score * b.collabWeight
			merged[i].Reasons = append(merged[i].Reasons, c.Reasons...)
			continue
		}
		index[c.Tour.ID] = len(merged)
		merged = append(merged, Candidate{
			Tour:    c.Tour,
			Score:   c.Score * b.collabWeight,
			Reasons: append([]string(nil), c.Reasons...),
		})
	}

	eligible := merged[:0]
	for _, c := range merged {
		if !excluded.Has(c.Tour.ID) {
			eligible = append(eligible, c)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Score > eligible[j].Score
	})

	if b.topN >= 0 && len(eligible) > b.topN {
		eligible = eligible[:b.topN]
	}

	top := 0.0
	if len(eligible) > 0 {
		top = eligible[0].Score
	}

	return Blended{
		Ranked:     eligible,
		Confidence: clamp(top, b.minConfidence, b.maxConfidence),
		Reasoning:  reasoning(prefs, eligible),
	}
}

func reasoning(prefs models.PreferenceProfile, ranked []Candidate) string {
	var topReasons []string
	if len(ranked) > 0 {
		topReasons = ranked[0].Reasons
		if len(topReasons) > reasonsInSummary {
			topReasons = topReasons[:reasonsInSummary]
		}
	}

	return fmt.Sprintf(
		"Based on your %s TND budget for %s days and interest in %s, we've selected these tours using our AI recommendation engine. %s.",
		formatNumber(prefs.Budget),
		formatNumber(prefs.Duration),
		strings.Join(prefs.Interests, ", "),
		strings.Join(topReasons, ", "),
	)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
