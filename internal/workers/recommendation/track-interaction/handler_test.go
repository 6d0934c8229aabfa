package trackinteraction

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"tour-workers/internal/analytics"
	"tour-workers/internal/common/errors"
	"tour-workers/internal/common/logger"
	"tour-workers/internal/models"
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

type mockTracker struct {
	mock.Mock
}

func (m *mockTracker) TrackClick(ctx context.Context, userID, tourID string) (bool, error) {
	args := m.Called(ctx, userID, tourID)
	return args.Bool(0), args.Error(1)
}

func (m *mockTracker) TrackBooking(ctx context.Context, userID, tourID string) (bool, error) {
	args := m.Called(ctx, userID, tourID)
	return args.Bool(0), args.Error(1)
}

func seededStore(t *testing.T) *analytics.MemoryStore {
	now := time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC)
	store := analytics.NewMemoryStore(analytics.RetentionPolicy{}, func() time.Time { return now })
	require.NoError(t, store.Record(context.Background(), models.AnalyticsRecord{
		ID:               "r1",
		UserID:           "c1",
		RecommendedTours: []string{"1", "5", "3"},
		ClickedTours:     []string{},
		BookedTours:      []string{},
		Timestamp:        now,
		Confidence:       79.1,
		Algorithm:        "hybrid",
	}))
	return store
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_TracksAgainstStore(t *testing.T) {
	store := seededStore(t)
	h := NewHandler(createTestConfig(), store, createTestLogger(t))

	tests := []struct {
		name        string
		input       *Input
		wantTracked bool
	}{
		{name: "click", input: &Input{Action: ActionClick, UserID: "c1", TourID: "5"}, wantTracked: true},
		{name: "duplicate click", input: &Input{Action: ActionClick, UserID: "c1", TourID: "5"}, wantTracked: true},
		{name: "booking", input: &Input{Action: ActionBooking, UserID: "c1", TourID: "5"}, wantTracked: true},
		{name: "unknown user", input: &Input{Action: ActionClick, UserID: "nobody", TourID: "5"}, wantTracked: false},
		{name: "anonymous", input: &Input{Action: ActionClick, TourID: "5"}, wantTracked: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := h.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTracked, output.Tracked)
			assert.Equal(t, tt.input.Action, output.Action)
		})
	}

	records, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"5"}, records[0].ClickedTours)
	assert.Equal(t, []string{"5"}, records[0].BookedTours)
}

func TestHandler_Execute_DispatchesByAction(t *testing.T) {
	tracker := new(mockTracker)
	tracker.On("TrackBooking", mock.Anything, "c2", "4").Return(true, nil).Once()
	h := NewHandler(createTestConfig(), tracker, createTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{Action: ActionBooking, UserID: "c2", TourID: "4"})

	require.NoError(t, err)
	assert.True(t, output.Tracked)
	tracker.AssertExpectations(t)
	tracker.AssertNotCalled(t, "TrackClick", mock.Anything, mock.Anything, mock.Anything)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_InvalidInteraction(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
	}{
		{name: "nil", input: nil},
		{name: "unknown action", input: &Input{Action: "view", UserID: "c1", TourID: "1"}},
		{name: "empty action", input: &Input{UserID: "c1", TourID: "1"}},
		{name: "missing tour", input: &Input{Action: ActionClick, UserID: "c1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(createTestConfig(), new(mockTracker), createTestLogger(t))
			_, err := h.Execute(context.Background(), tt.input)

			var stdErr *errors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, errors.ErrCodeInvalidInteraction, stdErr.Code)
			assert.False(t, stdErr.Retryable)
		})
	}
}

func TestHandler_Execute_StoreFailure(t *testing.T) {
	tracker := new(mockTracker)
	tracker.On("TrackClick", mock.Anything, "c1", "1").Return(false, fmt.Errorf("redis: connection refused"))
	h := NewHandler(createTestConfig(), tracker, createTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{Action: ActionClick, UserID: "c1", TourID: "1"})

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeAnalyticsStoreFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}
