package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-workers/internal/analytics"
	"tour-workers/internal/catalog"
	"tour-workers/internal/common/logger"
	"tour-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func springClock() time.Time {
	return time.Date(2025, time.April, 15, 12, 0, 0, 0, time.UTC)
}

func cultureProfile() models.PreferenceProfile {
	return models.PreferenceProfile{
		Budget:      120,
		Duration:    1,
		Interests:   []string{"culture"},
		TravelStyle: "Mid-range comfort",
		GroupSize:   2,
	}
}

func newTestEngine(t *testing.T, store analytics.Store) *Engine {
	return NewEngine(DefaultConfig(), store,
		WithClock(springClock),
		WithLogger(logger.NewTestLogger(t)),
	)
}

func tourIDs(tours []models.Tour) []string {
	ids := make([]string, len(tours))
	for i, t := range tours {
		ids[i] = t.ID
	}
	return ids
}

type failingStore struct {
	analytics.Store
}

func (failingStore) Record(context.Context, models.AnalyticsRecord) error {
	return errors.New("store unavailable")
}

// ==========================
// Similarity
// ==========================

func TestSimilarity(t *testing.T) {
	base := cultureProfile()

	tests := []struct {
		name    string
		a, b    models.PreferenceProfile
		want    float64
		compare func(t *testing.T, got float64)
	}{
		{
			name: "reflexive",
			a:    base,
			b:    base,
			want: 1.0,
		},
		{
			name: "disjoint interests and different style",
			a:    base,
			b: models.PreferenceProfile{
				Budget: 120, Duration: 1, Interests: []string{"beach"}, TravelStyle: "Luxury", GroupSize: 2,
			},
			want: 0.5,
		},
		{
			name: "half budget, same everything else",
			a:    base,
			b: models.PreferenceProfile{
				Budget: 60, Duration: 1, Interests: []string{"culture"}, TravelStyle: "Mid-range comfort",
			},
			want: 0.85,
		},
		{
			name: "empty interests on both sides contribute nothing",
			a:    models.PreferenceProfile{Budget: 100, Duration: 2, TravelStyle: "Budget"},
			b:    models.PreferenceProfile{Budget: 100, Duration: 2, TravelStyle: "Budget"},
			want: 0.6,
		},
		{
			name: "zero budgets and durations are guarded",
			a:    models.PreferenceProfile{Interests: []string{"a", "b"}},
			b:    models.PreferenceProfile{Interests: []string{"b", "c"}},
			want: (0.4 / 3) + 0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0+1e-9)
			assert.InDelta(t, got, Similarity(tt.b, tt.a), 1e-12, "similarity must be symmetric")
		})
	}
}

// ==========================
// Interest Matching & Season
// ==========================

func TestInterestMatchers(t *testing.T) {
	tour := catalog.SampleTours()[0] // Sidi Bou Said & Carthage, Cultural, tags culture/history/...

	tests := []struct {
		interest  string
		substring bool
		token     bool
	}{
		{interest: "culture", substring: true, token: true},
		{interest: "CULT", substring: true, token: false},
		{interest: "cultural", substring: true, token: true},
		{interest: "carthage", substring: true, token: true},
		{interest: "hist", substring: true, token: false},
		{interest: "beach", substring: false, token: false},
		{interest: "   ", substring: false, token: false},
	}

	for _, tt := range tests {
		t.Run(tt.interest, func(t *testing.T) {
			assert.Equal(t, tt.substring, SubstringMatcher(tt.interest, tour))
			assert.Equal(t, tt.token, TokenMatcher(tt.interest, tour))
		})
	}
}

func TestMatcherByName(t *testing.T) {
	for _, name := range []string{"", "substring", "Token"} {
		m, err := MatcherByName(name)
		require.NoError(t, err, name)
		assert.NotNil(t, m)
	}

	_, err := MatcherByName("fuzzy")
	assert.Error(t, err)
}

func TestSeasonOf(t *testing.T) {
	want := map[time.Month]models.Season{
		time.January: models.SeasonWinter, time.February: models.SeasonWinter,
		time.March: models.SeasonSpring, time.April: models.SeasonSpring, time.May: models.SeasonSpring,
		time.June: models.SeasonSummer, time.July: models.SeasonSummer, time.August: models.SeasonSummer,
		time.September: models.SeasonAutumn, time.October: models.SeasonAutumn, time.November: models.SeasonAutumn,
		time.December: models.SeasonWinter,
	}
	for month, season := range want {
		assert.Equal(t, season, SeasonOf(time.Date(2025, month, 10, 0, 0, 0, 0, time.UTC)), month.String())
	}
}

// ==========================
// Content-Based Scorer
// ==========================

func TestContentScorer_SampleCatalog(t *testing.T) {
	scorer := NewContentScorer(SubstringMatcher, springClock)
	candidates := scorer.Score(cultureProfile(), catalog.SampleTours(), nil)
	require.Len(t, candidates, 5)

	want := map[string]float64{"1": 113, "2": 48, "3": 100.5, "4": 58, "5": 108}
	for _, c := range candidates {
		assert.InDelta(t, want[c.Tour.ID], c.Score, 1e-9, "tour %s", c.Tour.ID)
	}

	first := candidates[0]
	assert.Equal(t, []string{
		ReasonPerfectBudget,
		ReasonFitsSchedule,
		"Matches your interests: culture",
		ReasonGroupFit,
		"Highly rated (4.8★)",
		ReasonPopular,
		ReasonSeason,
	}, first.Reasons)
}

func TestContentScorer_Terms(t *testing.T) {
	tour := models.Tour{
		ID:          "t",
		Name:        "Test Tour",
		Category:    "Adventure",
		Duration:    2,
		Price:       100,
		GroupSize:   models.GroupSizeRange{Min: 2, Max: 15},
		Rating:      4.0,
		ReviewCount: 50,
		Seasonality: []models.Season{models.SeasonWinter},
		Tags:        []string{"desert"},
	}

	tests := []struct {
		name   string
		prefs  models.PreferenceProfile
		mutate func(tour *models.Tour)
		check  func(t *testing.T, c Candidate, b Breakdown)
	}{
		{
			name:  "within budget range",
			prefs: models.PreferenceProfile{Budget: 180, Duration: 2, GroupSize: 2},
			check: func(t *testing.T, c Candidate, b Breakdown) {
				assert.Equal(t, budgetNearPoints, b.Budget)
				assert.Contains(t, c.Reasons, ReasonWithinBudget)
			},
		},
		{
			name:  "slightly above budget",
			prefs: models.PreferenceProfile{Budget: 140, Duration: 2, GroupSize: 2},
			check: func(t *testing.T, c Candidate, b Breakdown) {
				assert.Equal(t, budgetStretchPts, b.Budget)
				assert.Contains(t, c.Reasons, ReasonAboveBudget)
			},
		},
		{
			name:  "over budget earns nothing",
			prefs: models.PreferenceProfile{Budget: 100, Duration: 2, GroupSize: 2},
			check: func(t *testing.T, c Candidate, b Breakdown) {
				assert.Zero(t, b.Budget)
				assert.NotContains(t, c.Reasons, ReasonPerfectBudget)
				assert.NotContains(t, c.Reasons, ReasonWithinBudget)
				assert.NotContains(t, c.Reasons, ReasonAboveBudget)
			},
		},
		{
			name:  "duration floored at ten",
			prefs: models.PreferenceProfile{Budget: 1000, Duration: 10, GroupSize: 2},
			check: func(t *testing.T, c Candidate, b Breakdown) {
				assert.Equal(t, durationFloor, b.Duration)
				assert.Contains(t, c.Reasons, ReasonFitsSchedule)
			},
		},
		{
			name:  "tour longer than stay earns no duration points",
			prefs: models.PreferenceProfile{Budget: 1000, Duration: 1, GroupSize: 2},
			check: func(t *testing.T, c Candidate, b Breakdown) {
				assert.Zero(t, b.Duration)
				assert.NotContains(t, c.Reasons, ReasonFitsSchedule)
			},
		},
		{
			name:  "zero duration disables budget and duration terms",
			prefs: models.PreferenceProfile{Budget: 1000, Duration: 0, GroupSize: 2},
			check: func(t *testing.T, c Candidate, b Breakdown) {
				assert.Zero(t, b.Budget)
				assert.Zero(t, b.Duration)
			},
		},
		{
			name:  "partial interest match",
			prefs: models.PreferenceProfile{Duration: 2, Interests: []string{"desert", "beach", "food"}, GroupSize: 2},
			check: func(t *testing.T, c Candidate, b Breakdown) {
				assert.InDelta(t, 10.0, b.Interest, 1e-9)
				assert.Contains(t, c.Reasons, "Matches your interests: desert")
			},
		},
		{
			name:  "small group can join",
			prefs: models.PreferenceProfile{Duration: 2, GroupSize: 1},
			check: func(t *testing.T, c Candidate, b Breakdown) {
				assert.Equal(t, groupJoinPoints, b.GroupSize)
				assert.Contains(t, c.Reasons, ReasonJoinGroup)
				assert.NotContains(t, c.Reasons, ReasonGroupFit)
			},
		},
		{
			name:  "oversized group earns nothing",
			prefs: models.PreferenceProfile{Duration: 2, GroupSize: 16},
			check: func(t *testing.T, c Candidate, b Breakdown) {
				assert.Zero(t, b.GroupSize)
			},
		},
		{
			name:  "quality, popularity and season bonuses",
			prefs: models.PreferenceProfile{Duration: 2, GroupSize: 2},
			mutate: func(tour *models.Tour) {
				tour.Rating = 4.5
				tour.ReviewCount = 51
				tour.Seasonality = []models.Season{models.SeasonAll}
			},
			check: func(t *testing.T, c Candidate, b Breakdown) {
				assert.Equal(t, qualityPoints, b.Quality)
				assert.Equal(t, popularityPoints, b.Popularity)
				assert.Equal(t, seasonPoints, b.Season)
				assert.Contains(t, c.Reasons, "Highly rated (4.5★)")
			},
		},
		{
			name:  "no bonuses at the boundaries",
			prefs: models.PreferenceProfile{Duration: 2, GroupSize: 2},
			check: func(t *testing.T, c Candidate, b Breakdown) {
				assert.Zero(t, b.Quality)
				assert.Zero(t, b.Popularity)
				assert.Zero(t, b.Season)
			},
		},
	}

	scorer := NewContentScorer(SubstringMatcher, springClock)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := tour
			if tt.mutate != nil {
				tt.mutate(&tr)
			}
			c, b := scorer.ScoreTour(tt.prefs, tr, nil)
			assert.InDelta(t, b.Total(), c.Score, 1e-9)
			tt.check(t, c, b)
		})
	}
}

func TestContentScorer_Excluded(t *testing.T) {
	scorer := NewContentScorer(nil, springClock)
	tour := catalog.SampleTours()[0]

	c, b := scorer.ScoreTour(cultureProfile(), tour, ExclusionSet{tour.ID: {}})
	assert.Equal(t, ExcludedScore, c.Score)
	assert.Equal(t, []string{ReasonAlreadyExperienced}, c.Reasons)
	assert.Zero(t, b.Total())
}

// ==========================
// Collaborative Filter
// ==========================

func collaborativeFixture() ([]models.Customer, []models.Booking) {
	prefs := cultureProfile()
	customers := []models.Customer{
		{ID: "c1", Preferences: prefs, PastBookings: []string{"b1"}},
		{ID: "c2", Preferences: prefs, PastBookings: []string{"b2", "b3", "missing"}},
		{ID: "c3", Preferences: prefs, PastBookings: []string{"b4", "b5"}},
		{ID: "c4", Preferences: models.PreferenceProfile{
			Budget: 2000, Duration: 10, Interests: []string{"beach"}, TravelStyle: "Luxury",
		}, PastBookings: []string{"b6"}},
	}
	bookings := []models.Booking{
		{ID: "b1", CustomerID: "c1", TourID: "1"},
		{ID: "b2", CustomerID: "c2", TourID: "4"},
		{ID: "b3", CustomerID: "c2", TourID: "1"},
		{ID: "b4", CustomerID: "c3", TourID: "4"},
		{ID: "b5", CustomerID: "c3", TourID: "ghost-tour"},
		{ID: "b6", CustomerID: "c4", TourID: "2"},
	}
	return customers, bookings
}

func TestCollaborativeFilter_Score(t *testing.T) {
	customers, bookings := collaborativeFixture()
	tours := catalog.SampleTours()
	excluded := BuildExclusionSet(&customers[0], bookings)

	got := NewCollaborativeFilter(0.6, 20).Score("c1", customers, bookings, tours, excluded)

	require.Len(t, got, 1, "excluded, unknown and dissimilar-peer tours are dropped")
	assert.Equal(t, "4", got[0].Tour.ID)
	assert.Equal(t, 40.0, got[0].Score)
	assert.Equal(t, []string{ReasonSimilarTravelers}, got[0].Reasons)
}

func TestCollaborativeFilter_Edges(t *testing.T) {
	customers, bookings := collaborativeFixture()
	tours := catalog.SampleTours()

	t.Run("unknown requester", func(t *testing.T) {
		assert.Empty(t, NewCollaborativeFilter(0.6, 20).Score("nobody", customers, bookings, tours, nil))
	})

	t.Run("threshold is strict", func(t *testing.T) {
		// Identical profiles have similarity exactly 1.0.
		assert.Empty(t, NewCollaborativeFilter(1.0, 20).Score("c1", customers, bookings, tours, nil))
	})
}

// ==========================
// Blender
// ==========================

func TestBlender_MergeAndRank(t *testing.T) {
	tours := catalog.SampleTours()
	content := []Candidate{
		{Tour: tours[0], Score: 100, Reasons: []string{"a"}},
		{Tour: tours[1], Score: 50, Reasons: []string{"b"}},
		{Tour: tours[2], Score: 10, Reasons: []string{"c"}},
	}
	collab := []Candidate{
		{Tour: tours[1], Score: 200, Reasons: []string{ReasonSimilarTravelers}},
		{Tour: tours[3], Score: 20, Reasons: []string{ReasonSimilarTravelers}},
	}

	got := NewBlender(DefaultConfig()).Blend(cultureProfile(), content, collab, nil)

	require.Len(t, got.Ranked, 3)
	assert.Equal(t, "2", got.Ranked[0].Tour.ID)
	assert.InDelta(t, 95.0, got.Ranked[0].Score, 1e-9)
	assert.Equal(t, []string{"b", ReasonSimilarTravelers}, got.Ranked[0].Reasons)
	assert.Equal(t, "1", got.Ranked[1].Tour.ID)
	assert.Equal(t, "3", got.Ranked[2].Tour.ID)
	assert.InDelta(t, 95.0, got.Confidence, 1e-9)

	// Inputs must not be mutated.
	assert.Equal(t, []string{"b"}, content[1].Reasons)
}

func TestBlender_StableTies(t *testing.T) {
	a := models.Tour{ID: "a"}
	b := models.Tour{ID: "b"}
	blender := NewBlender(DefaultConfig())

	got := blender.Blend(cultureProfile(), []Candidate{{Tour: a, Score: 10}, {Tour: b, Score: 10}}, nil, nil)
	assert.Equal(t, "a", got.Ranked[0].Tour.ID)
	assert.Equal(t, "b", got.Ranked[1].Tour.ID)

	got = blender.Blend(cultureProfile(), []Candidate{{Tour: b, Score: 10}, {Tour: a, Score: 10}}, nil, nil)
	assert.Equal(t, "b", got.Ranked[0].Tour.ID)
	assert.Equal(t, "a", got.Ranked[1].Tour.ID)
}

func TestBlender_ConfidenceClamp(t *testing.T) {
	blender := NewBlender(DefaultConfig())
	tour := models.Tour{ID: "x"}

	tests := []struct {
		name  string
		score float64
		want  float64
	}{
		{name: "below floor", score: 10, want: 60},
		{name: "inside range", score: 100, want: 70},
		{name: "above ceiling", score: 500, want: 95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := blender.Blend(cultureProfile(), []Candidate{{Tour: tour, Score: tt.score}}, nil, nil)
			assert.InDelta(t, tt.want, got.Confidence, 1e-9)
		})
	}
}

func TestBlender_EmptyCatalog(t *testing.T) {
	got := NewBlender(DefaultConfig()).Blend(cultureProfile(), nil, nil, nil)
	assert.Empty(t, got.Ranked)
	assert.Equal(t, 60.0, got.Confidence)
	assert.Contains(t, got.Reasoning, "Based on your 120 TND budget for 1 days and interest in culture")
}

// ==========================
// Engine
// ==========================

func TestEngine_GenerateRecommendations_Scenario(t *testing.T) {
	store := analytics.NewMemoryStore(analytics.RetentionPolicy{}, springClock)
	engine := newTestEngine(t, store)

	res := engine.GenerateRecommendations(context.Background(),
		models.RecommendationRequest{Preferences: cultureProfile()},
		nil, nil, catalog.SampleTours())

	assert.Equal(t, []string{"1", "5", "3"}, tourIDs(res.Recommendations))
	assert.InDelta(t, 79.1, res.Confidence, 1e-9)
	assert.Equal(t,
		"Based on your 120 TND budget for 1 days and interest in culture, we've selected these tours "+
			"using our AI recommendation engine. Perfect budget match, Fits your schedule, Matches your interests: culture.",
		res.Reasoning)
	assert.NotEmpty(t, res.RecordID)

	records, err := engine.GetAnalytics(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, res.RecordID, records[0].ID)
	assert.Equal(t, []string{"1", "5", "3"}, records[0].RecommendedTours)
	assert.Empty(t, records[0].ClickedTours)
	assert.Equal(t, "hybrid", records[0].Algorithm)
	assert.Equal(t, springClock(), records[0].Timestamp)
}

func TestEngine_GenerateRecommendations_ExcludesPastBookings(t *testing.T) {
	engine := newTestEngine(t, nil)
	customers, bookings := collaborativeFixture()

	res := engine.GenerateRecommendations(context.Background(),
		models.RecommendationRequest{CustomerID: "c1", Preferences: cultureProfile()},
		customers, bookings, catalog.SampleTours())

	ids := tourIDs(res.Recommendations)
	assert.NotContains(t, ids, "1")
	assert.Equal(t, []string{"5", "3", "4"}, ids)
}

func TestEngine_GenerateRecommendations_AllExcluded(t *testing.T) {
	engine := newTestEngine(t, nil)
	tours := catalog.SampleTours()[:2]
	customers := []models.Customer{{ID: "c1", Preferences: cultureProfile(), PastBookings: []string{"b1", "b2"}}}
	bookings := []models.Booking{
		{ID: "b1", CustomerID: "c1", TourID: tours[0].ID},
		{ID: "b2", CustomerID: "c1", TourID: tours[1].ID},
	}

	res := engine.GenerateRecommendations(context.Background(),
		models.RecommendationRequest{CustomerID: "c1", Preferences: cultureProfile()},
		customers, bookings, tours)

	assert.Empty(t, res.Recommendations)
	assert.Equal(t, 60.0, res.Confidence)
}

func TestEngine_GenerateRecommendations_Deterministic(t *testing.T) {
	engine := newTestEngine(t, nil)
	customers, bookings := collaborativeFixture()
	req := models.RecommendationRequest{CustomerID: "c2", Preferences: cultureProfile()}

	first := engine.GenerateRecommendations(context.Background(), req, customers, bookings, catalog.SampleTours())
	second := engine.GenerateRecommendations(context.Background(), req, customers, bookings, catalog.SampleTours())

	assert.Equal(t, tourIDs(first.Recommendations), tourIDs(second.Recommendations))
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Reasoning, second.Reasoning)
	assert.NotEqual(t, first.RecordID, second.RecordID)
}

func TestEngine_GenerateRecommendations_StoreFailure(t *testing.T) {
	engine := newTestEngine(t, failingStore{})

	res := engine.GenerateRecommendations(context.Background(),
		models.RecommendationRequest{Preferences: cultureProfile()},
		nil, nil, catalog.SampleTours())

	assert.Len(t, res.Recommendations, 3)
	assert.Empty(t, res.RecordID)
}

func TestEngine_TokenMatcherOption(t *testing.T) {
	engine := NewEngine(DefaultConfig(), nil, WithClock(springClock), WithInterestMatcher(TokenMatcher))
	prefs := cultureProfile()
	prefs.Interests = []string{"cult"}

	_, b := engine.ScoreTour(prefs, catalog.SampleTours()[0], nil)
	assert.Zero(t, b.Interest)

	_, b = NewEngine(DefaultConfig(), nil, WithClock(springClock)).ScoreTour(prefs, catalog.SampleTours()[0], nil)
	assert.Equal(t, interestPoints, b.Interest)
}

func TestEngine_Tracking(t *testing.T) {
	store := analytics.NewMemoryStore(analytics.RetentionPolicy{}, springClock)
	engine := newTestEngine(t, store)
	ctx := context.Background()

	updated, err := engine.TrackClick(ctx, "stranger", "1")
	require.NoError(t, err)
	assert.False(t, updated)
	assert.Equal(t, 0, store.Len())

	engine.GenerateRecommendations(ctx,
		models.RecommendationRequest{CustomerID: "u1", Preferences: cultureProfile()},
		nil, nil, catalog.SampleTours())

	updated, err = engine.TrackClick(ctx, "u1", "1")
	require.NoError(t, err)
	assert.True(t, updated)
	_, _ = engine.TrackClick(ctx, "u1", "1")
	updated, err = engine.TrackBooking(ctx, "u1", "1")
	require.NoError(t, err)
	assert.True(t, updated)

	records, err := engine.GetAnalytics(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"1"}, records[0].ClickedTours)
	assert.Equal(t, []string{"1"}, records[0].BookedTours)
}

func TestEngine_ConcurrentUse(t *testing.T) {
	store := analytics.NewMemoryStore(analytics.RetentionPolicy{}, springClock)
	engine := newTestEngine(t, store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("u%d", i%4)
			engine.GenerateRecommendations(ctx,
				models.RecommendationRequest{CustomerID: user, Preferences: cultureProfile()},
				nil, nil, catalog.SampleTours())
			_, _ = engine.TrackClick(ctx, user, "1")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, store.Len())
}

func TestConfig_WithDefaults(t *testing.T) {
	assert.Equal(t, DefaultConfig(), Config{}.withDefaults())

	custom := Config{TopN: 5, PeerThreshold: 0.8}.withDefaults()
	assert.Equal(t, 5, custom.TopN)
	assert.Equal(t, 0.8, custom.PeerThreshold)
	assert.Equal(t, 0.7, custom.ContentWeight)
	assert.Equal(t, "hybrid", NewEngine(Config{}, nil).Config().Algorithm)
}

func TestExclusionSetFor(t *testing.T) {
	customers, bookings := collaborativeFixture()

	set := ExclusionSetFor("c1", customers, bookings)
	assert.True(t, set.Has("1"))
	assert.Empty(t, ExclusionSetFor("missing", customers, bookings))
	assert.Empty(t, ExclusionSetFor("", customers, bookings))

	manual := NewExclusionSet("b1", "", "1")
	assert.Len(t, manual, 2)
	assert.True(t, manual.Has("b1"))
}
