package scoretourmatch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"tour-workers/internal/catalog"
	"tour-workers/internal/common/errors"
	"tour-workers/internal/common/logger"
	"tour-workers/internal/models"
	"tour-workers/internal/recommend"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func springClock() time.Time {
	return time.Date(2025, time.April, 15, 12, 0, 0, 0, time.UTC)
}

func testEngine() *recommend.Engine {
	return recommend.NewEngine(recommend.DefaultConfig(), nil, recommend.WithClock(springClock))
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

func snapshotSource() catalog.Source {
	return catalog.NewStaticSource(catalog.Snapshot{
		Tours: catalog.SampleTours(),
		Customers: []models.Customer{
			{ID: "c1", Preferences: cultureProfile(), PastBookings: []string{"b1"}},
		},
		Bookings: []models.Booking{{ID: "b1", CustomerID: "c1", TourID: "1"}},
	})
}

var customerCols = []string{
	"id", "name", "email", "phone", "budget", "duration", "interests", "travel_style",
	"group_size", "past_bookings",
}

type staticProfiles struct {
	profile *catalog.CustomerProfile
	err     error
}

func (s staticProfiles) Get(context.Context, string) (*catalog.CustomerProfile, error) {
	return s.profile, s.err
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, code, stdErr.Code)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_InlinePreferences(t *testing.T) {
	h := NewHandler(createTestConfig(), snapshotSource(), nil, testEngine(), createTestLogger(t))
	prefs := cultureProfile()

	output, err := h.Execute(context.Background(), &Input{TourID: "1", Preferences: &prefs})

	require.NoError(t, err)
	assert.Equal(t, "1", output.TourID)
	assert.InDelta(t, 113.0, output.Score, 1e-9)
	assert.Equal(t, recommend.Breakdown{
		Budget: 35, Duration: 25, Interest: 30, GroupSize: 10, Quality: 5, Popularity: 3, Season: 5,
	}, output.Breakdown)
	assert.InDelta(t, output.Score, output.Breakdown.Total(), 1e-9)
	assert.Contains(t, output.Reasons, "Perfect budget match")
	assert.False(t, output.Excluded)
	assert.Equal(t, "inline", output.ProfileSource)
}

func TestHandler_Execute_InlinePreferencesWithKnownCustomer(t *testing.T) {
	h := NewHandler(createTestConfig(), snapshotSource(), nil, testEngine(), createTestLogger(t))
	prefs := cultureProfile()

	output, err := h.Execute(context.Background(), &Input{TourID: "1", CustomerID: "c1", Preferences: &prefs})

	require.NoError(t, err)
	assert.True(t, output.Excluded)
	assert.Equal(t, -100.0, output.Score)
	assert.Equal(t, []string{"Already experienced"}, output.Reasons)
}

func TestHandler_Execute_CatalogCustomer(t *testing.T) {
	h := NewHandler(createTestConfig(), snapshotSource(), nil, testEngine(), createTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{TourID: "5", CustomerID: "c1"})

	require.NoError(t, err)
	assert.Equal(t, "catalog", output.ProfileSource)
	assert.False(t, output.Excluded)
	assert.InDelta(t, 108.0, output.Score, 1e-9)
}

func TestHandler_Execute_ProfileLookup(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM customers WHERE id = \$1`).
		WithArgs("c9").
		WillReturnRows(sqlmock.NewRows(customerCols).AddRow(
			"c9", "Youssef", "youssef@example.tn", "", 1200.0, 3.0,
			`["desert"]`, "Adventure", 4, `["b7"]`,
		))
	mock.ExpectQuery(`SELECT tour_id FROM bookings WHERE customer_id = \$1`).
		WithArgs("c9").
		WillReturnRows(sqlmock.NewRows([]string{"tour_id"}).AddRow("4"))

	lookup := catalog.NewProfileLookup(db, nil, time.Minute)
	h := NewHandler(createTestConfig(), catalog.NewSampleSource(), lookup, testEngine(), createTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{TourID: "2", CustomerID: "c9"})
	require.NoError(t, err)
	assert.Equal(t, "profile", output.ProfileSource)
	assert.Contains(t, output.Reasons, "Matches your interests: desert")
	assert.Contains(t, output.Reasons, "Perfect for your group size")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ProfileLookupExcludesBookedTour(t *testing.T) {
	profiles := staticProfiles{profile: &catalog.CustomerProfile{
		CustomerID:    "c9",
		Preferences:   cultureProfile(),
		PastBookings:  []string{"b7"},
		BookedTourIDs: []string{"3"},
	}}
	h := NewHandler(createTestConfig(), catalog.NewSampleSource(), profiles, testEngine(), createTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{TourID: "3", CustomerID: "c9"})

	require.NoError(t, err)
	assert.True(t, output.Excluded)
	assert.Equal(t, recommend.Breakdown{}, output.Breakdown)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	prefs := cultureProfile()

	tests := []struct {
		name     string
		profiles ProfileGetter
		input    *Input
		wantCode errors.ErrorCode
	}{
		{name: "nil input", input: nil, wantCode: errors.ErrCodeInvalidPreferences},
		{name: "missing tour id", input: &Input{Preferences: &prefs}, wantCode: errors.ErrCodeInvalidPreferences},
		{name: "no profile source", input: &Input{TourID: "1"}, wantCode: errors.ErrCodeInvalidPreferences},
		{name: "unknown tour", input: &Input{TourID: "99", Preferences: &prefs}, wantCode: errors.ErrCodeTourNotFound},
		{name: "unknown catalog customer", input: &Input{TourID: "1", CustomerID: "ghost"}, wantCode: errors.ErrCodeCustomerNotFound},
		{
			name:     "lookup not found",
			profiles: staticProfiles{err: fmt.Errorf("%w: ghost", catalog.ErrCustomerNotFound)},
			input:    &Input{TourID: "1", CustomerID: "ghost"},
			wantCode: errors.ErrCodeCustomerNotFound,
		},
		{
			name:     "lookup failure",
			profiles: staticProfiles{err: fmt.Errorf("pq: connection refused")},
			input:    &Input{TourID: "1", CustomerID: "c1"},
			wantCode: errors.ErrCodeQueryExecutionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(createTestConfig(), snapshotSource(), tt.profiles, testEngine(), createTestLogger(t))
			output, err := h.Execute(context.Background(), tt.input)
			assert.Nil(t, output)
			requireCode(t, err, tt.wantCode)
		})
	}
}
