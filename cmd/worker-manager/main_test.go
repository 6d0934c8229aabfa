package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tour-workers/internal/analytics"
	"tour-workers/internal/catalog"
	"tour-workers/internal/common/config"
	"tour-workers/internal/common/database"
	"tour-workers/internal/common/logger"
	"tour-workers/internal/models"
)

type stubCheck struct{ err error }

func (s stubCheck) Ping(context.Context) error        { return s.err }
func (s stubCheck) HealthCheck(context.Context) error { return s.err }

type stubReader struct {
	records []models.AnalyticsRecord
	err     error
}

func (s stubReader) GetAnalytics(context.Context) ([]models.AnalyticsRecord, error) {
	return s.records, s.err
}

// ==========================
// HTTP endpoints
// ==========================

func TestHealthEndpoint(t *testing.T) {
	mux := newMux(nil, nil, stubReader{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestReadyEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		zeebe      healthChecker
		checks     map[string]pinger
		wantStatus int
		wantFailed []string
	}{
		{
			name:       "all services up",
			zeebe:      stubCheck{},
			checks:     map[string]pinger{"postgres": stubCheck{}, "redis": stubCheck{}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "zeebe down",
			zeebe:      stubCheck{err: stderrors.New("unavailable")},
			checks:     map[string]pinger{"postgres": stubCheck{}},
			wantStatus: http.StatusServiceUnavailable,
			wantFailed: []string{"zeebe"},
		},
		{
			name:  "one dependency down",
			zeebe: stubCheck{},
			checks: map[string]pinger{
				"postgres":      stubCheck{},
				"elasticsearch": stubCheck{err: stderrors.New("connection refused")},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantFailed: []string{"elasticsearch"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newMux(tt.zeebe, tt.checks, stubReader{})
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body struct {
				Status   string            `json:"status"`
				Failures map[string]string `json:"failures"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Len(t, body.Failures, len(tt.wantFailed))
			for _, name := range tt.wantFailed {
				assert.Contains(t, body.Failures, name)
			}
		})
	}
}

func TestAnalyticsSummaryEndpoint(t *testing.T) {
	records := []models.AnalyticsRecord{
		{ID: "r1", UserID: "u1", RecommendedTours: []string{"t1", "t2"}, ClickedTours: []string{"t1"}, Confidence: 0.8},
		{ID: "r2", UserID: "u2", RecommendedTours: []string{"t3", "t4"}, BookedTours: []string{"t3"}, Confidence: 0.6},
	}

	t.Run("all users", func(t *testing.T) {
		mux := newMux(nil, nil, stubReader{records: append([]models.AnalyticsRecord(nil), records...)})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analytics/summary", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var summary analytics.Summary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
		assert.Equal(t, 2, summary.TotalRecommendations)
		assert.Equal(t, 4, summary.TotalRecommended)
		assert.Equal(t, 1, summary.TotalClicks)
		assert.Equal(t, 1, summary.TotalBookings)
		assert.InDelta(t, 0.7, summary.AverageConfidence, 1e-9)
	})

	t.Run("filtered by user", func(t *testing.T) {
		mux := newMux(nil, nil, stubReader{records: append([]models.AnalyticsRecord(nil), records...)})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analytics/summary?userId=u2", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var summary analytics.Summary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
		assert.Equal(t, 1, summary.TotalRecommendations)
		assert.Equal(t, 0, summary.TotalClicks)
		assert.Equal(t, 1, summary.TotalBookings)
	})

	t.Run("store error", func(t *testing.T) {
		mux := newMux(nil, nil, stubReader{err: stderrors.New("redis down")})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analytics/summary", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		mux := newMux(nil, nil, stubReader{})
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analytics/summary", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

// ==========================
// Wiring helpers
// ==========================

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	err := retryWithBackoff(func() error {
		calls++
		if calls < 3 {
			return stderrors.New("not yet")
		}
		return nil
	}, 5, time.Millisecond, zap.NewNop(), "test op")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = retryWithBackoff(func() error {
		calls++
		return stderrors.New("always")
	}, 2, time.Millisecond, zap.NewNop(), "test op")
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "test op failed after 2 attempts")
}

func TestWorkerTimeout(t *testing.T) {
	cfg := &config.Config{Workers: map[string]config.WorkerConfig{
		"score-tour-match": {Enabled: true, Timeout: 2500},
	}}
	assert.Equal(t, 2500*time.Millisecond, workerTimeout(cfg, "score-tour-match", time.Second))
	assert.Equal(t, time.Second, workerTimeout(cfg, "get-analytics", time.Second))
}

func TestBuildCatalogSource(t *testing.T) {
	log := logger.NewTestLogger(t)

	t.Run("static by default", func(t *testing.T) {
		source, name, err := buildCatalogSource(&config.Config{}, &dependencies{}, log)
		require.NoError(t, err)
		assert.Equal(t, "static", name)
		assert.IsType(t, &catalog.StaticSource{}, source)
	})

	t.Run("postgres without database", func(t *testing.T) {
		cfg := &config.Config{Catalog: config.CatalogConfig{Source: "postgres"}}
		_, _, err := buildCatalogSource(cfg, &dependencies{}, log)
		assert.Error(t, err)
	})

	t.Run("unknown source", func(t *testing.T) {
		cfg := &config.Config{Catalog: config.CatalogConfig{Source: "csv"}}
		_, _, err := buildCatalogSource(cfg, &dependencies{}, log)
		assert.Error(t, err)
	})

	t.Run("cached when redis is available", func(t *testing.T) {
		mr := miniredis.RunT(t)
		deps := &dependencies{redis: &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}}
		cfg := &config.Config{Catalog: config.CatalogConfig{Source: "static", CacheTTL: 60000}}

		source, name, err := buildCatalogSource(cfg, deps, log)
		require.NoError(t, err)
		assert.Equal(t, "static", name)
		assert.IsType(t, &catalog.CachedSource{}, source)
	})
}

func TestBuildAnalyticsStore(t *testing.T) {
	store, err := buildAnalyticsStore(config.AnalyticsConfig{MaxRecords: 10}, &dependencies{})
	require.NoError(t, err)
	assert.IsType(t, &analytics.MemoryStore{}, store)

	_, err = buildAnalyticsStore(config.AnalyticsConfig{Backend: "redis"}, &dependencies{})
	assert.Error(t, err)

	_, err = buildAnalyticsStore(config.AnalyticsConfig{Backend: "kafka"}, &dependencies{})
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	deps := &dependencies{redis: &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}}
	store, err = buildAnalyticsStore(config.AnalyticsConfig{Backend: "redis", MaxAgeHours: 24}, deps)
	require.NoError(t, err)
	assert.IsType(t, &analytics.RedisStore{}, store)
}

func TestBuildEngine(t *testing.T) {
	store := analytics.NewMemoryStore(analytics.RetentionPolicy{}, nil)

	engine, err := buildEngine(config.RecommendationConfig{TopN: 3, InterestMatching: "token"}, store, logger.NewNoOpLogger())
	require.NoError(t, err)
	assert.Equal(t, 3, engine.Config().TopN)

	_, err = buildEngine(config.RecommendationConfig{InterestMatching: "fuzzy"}, store, logger.NewNoOpLogger())
	assert.Error(t, err)
}
