package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newRecord(id, user string, at time.Time, tours ...string) models.AnalyticsRecord {
	return models.AnalyticsRecord{
		ID:               id,
		UserID:           user,
		RecommendedTours: tours,
		ClickedTours:     []string{},
		BookedTours:      []string{},
		Timestamp:        at,
		Confidence:       80,
		Algorithm:        "hybrid",
	}
}

func setupRedisStore(t *testing.T, retention RetentionPolicy) (*miniredis.Miniredis, *RedisStore) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisStore(client, retention)
}

// storeFactories runs the shared contract against both backends.
func storeFactories(t *testing.T, clock *fakeClock) map[string]Store {
	_, redisStore := setupRedisStore(t, RetentionPolicy{})
	return map[string]Store{
		"memory": NewMemoryStore(RetentionPolicy{}, clock.Now),
		"redis":  redisStore,
	}
}

// ==========================
// Store Contract
// ==========================

func TestStore_TrackUnknownUserIsNoop(t *testing.T) {
	clock := newFakeClock()
	for name, store := range storeFactories(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			updated, err := store.TrackClick(ctx, "nobody", "1")
			require.NoError(t, err)
			assert.False(t, updated)

			updated, err = store.TrackBooking(ctx, "", "1")
			require.NoError(t, err)
			assert.False(t, updated)

			records, err := store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestStore_TrackUpdatesMostRecentRecord(t *testing.T) {
	clock := newFakeClock()
	for name, store := range storeFactories(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := clock.Now()

			require.NoError(t, store.Record(ctx, newRecord("r1", "u1", base, "1", "2")))
			require.NoError(t, store.Record(ctx, newRecord("r2", "u1", base.Add(time.Minute), "3")))
			// Recorded later but timestamped earlier: must not become the target.
			require.NoError(t, store.Record(ctx, newRecord("r0", "u1", base.Add(-time.Hour), "4")))
			require.NoError(t, store.Record(ctx, newRecord("r3", "u2", base.Add(time.Hour), "5")))

			updated, err := store.TrackClick(ctx, "u1", "3")
			require.NoError(t, err)
			assert.True(t, updated)
			_, err = store.TrackClick(ctx, "u1", "3")
			require.NoError(t, err)
			updated, err = store.TrackBooking(ctx, "u1", "3")
			require.NoError(t, err)
			assert.True(t, updated)

			records, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, records, 4)

			byID := map[string]models.AnalyticsRecord{}
			for _, r := range records {
				byID[r.ID] = r
			}
			assert.Equal(t, []string{"3"}, byID["r2"].ClickedTours)
			assert.Equal(t, []string{"3"}, byID["r2"].BookedTours)
			assert.Empty(t, byID["r1"].ClickedTours)
			assert.Empty(t, byID["r0"].ClickedTours)
			assert.Empty(t, byID["r3"].ClickedTours)
		})
	}
}

func TestStore_RecordAssignsID(t *testing.T) {
	clock := newFakeClock()
	for name, store := range storeFactories(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Record(ctx, newRecord("", "u1", clock.Now(), "1")))

			records, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.NotEmpty(t, records[0].ID)
			assert.Equal(t, []string{"1"}, records[0].RecommendedTours)
		})
	}
}

func TestStore_ConcurrentTracking(t *testing.T) {
	clock := newFakeClock()
	for name, store := range storeFactories(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Record(ctx, newRecord("r1", "u1", clock.Now(), "1", "2", "3")))

			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, err := store.TrackClick(ctx, "u1", fmt.Sprintf("t%d", i%5))
					assert.NoError(t, err)
				}(i)
			}
			wg.Wait()

			records, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Len(t, records[0].ClickedTours, 5)
		})
	}
}

// ==========================
// Memory Store
// ==========================

func TestMemoryStore_Retention(t *testing.T) {
	tests := []struct {
		name      string
		retention RetentionPolicy
		advance   time.Duration
		want      []string
	}{
		{
			name:      "unbounded keeps everything",
			retention: RetentionPolicy{},
			want:      []string{"r1", "r2", "r3", "r4"},
		},
		{
			name:      "max records keeps the newest",
			retention: RetentionPolicy{MaxRecords: 2},
			want:      []string{"r3", "r4"},
		},
		{
			name:      "max age drops old records",
			retention: RetentionPolicy{MaxAge: 90 * time.Minute},
			advance:   time.Hour,
			want:      []string{"r3", "r4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			store := NewMemoryStore(tt.retention, clock.Now)
			ctx := context.Background()
			base := clock.Now()

			for i := 1; i <= 4; i++ {
				at := base.Add(time.Duration(i) * 30 * time.Minute)
				require.NoError(t, store.Record(ctx, newRecord(fmt.Sprintf("r%d", i), "u1", at)))
			}
			clock.Advance(2*time.Hour + tt.advance)

			records, err := store.List(ctx)
			require.NoError(t, err)
			var got []string
			for _, r := range records {
				got = append(got, r.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryStore_TrackIgnoresExpiredRecords(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(RetentionPolicy{MaxAge: time.Hour}, clock.Now)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, newRecord("r1", "u1", clock.Now(), "1")))
	clock.Advance(2 * time.Hour)

	updated, err := store.TrackClick(ctx, "u1", "1")
	require.NoError(t, err)
	assert.False(t, updated)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_ListReturnsCopies(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(RetentionPolicy{}, clock.Now)
	ctx := context.Background()

	rec := newRecord("r1", "u1", clock.Now(), "1")
	require.NoError(t, store.Record(ctx, rec))
	rec.RecommendedTours[0] = "mutated"

	records, err := store.List(ctx)
	require.NoError(t, err)
	records[0].ClickedTours = append(records[0].ClickedTours, "x")

	again, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, again[0].RecommendedTours)
	assert.Empty(t, again[0].ClickedTours)
}

// ==========================
// Redis Store
// ==========================

func TestRedisStore_Retention(t *testing.T) {
	mr, store := setupRedisStore(t, RetentionPolicy{MaxRecords: 2, MaxAge: time.Hour})
	ctx := context.Background()
	now := time.Now()

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Record(ctx, newRecord(fmt.Sprintf("r%d", i), "u1", now.Add(time.Duration(i)*time.Second))))
	}

	ids, err := mr.List(logKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"r2", "r3"}, ids)
	assert.False(t, mr.Exists(recordKey("r1")))
	assert.Equal(t, time.Hour, mr.TTL(recordKey("r3")))

	latest, err := mr.Get(userLatestKey("u1"))
	require.NoError(t, err)
	assert.Equal(t, "r3", latest)

	mr.FastForward(2 * time.Hour)

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records, "expired records are skipped")

	updated, err := store.TrackClick(ctx, "u1", "1")
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestRedisStore_TrimDeletesEvictedRecords(t *testing.T) {
	mr, store := setupRedisStore(t, RetentionPolicy{MaxRecords: 1})
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Record(ctx, newRecord("r1", "u1", now, "1")))
	require.NoError(t, store.Record(ctx, newRecord("r2", "u2", now.Add(time.Second), "2")))

	assert.False(t, mr.Exists(recordKey("r1")))
	assert.True(t, mr.Exists(recordKey("r2")))

	updated, err := store.TrackClick(ctx, "u1", "1")
	require.NoError(t, err)
	assert.False(t, updated)

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "r2", records[0].ID)
	assert.Empty(t, records[0].ClickedTours)

	updated, err = store.TrackClick(ctx, "u2", "2")
	require.NoError(t, err)
	assert.True(t, updated)
}

func TestRedisStore_TrackKeepsTTL(t *testing.T) {
	mr, store := setupRedisStore(t, RetentionPolicy{MaxAge: time.Hour})
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, newRecord("r1", "u1", time.Now(), "1")))
	mr.FastForward(10 * time.Minute)

	updated, err := store.TrackClick(ctx, "u1", "1")
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, 50*time.Minute, mr.TTL(recordKey("r1")))
}

func TestRedisStore_RedisDown(t *testing.T) {
	mr, store := setupRedisStore(t, RetentionPolicy{})
	mr.Close()
	ctx := context.Background()

	assert.Error(t, store.Record(ctx, newRecord("r1", "u1", time.Now())))
	_, err := store.TrackClick(ctx, "u1", "1")
	assert.Error(t, err)
	_, err = store.List(ctx)
	assert.Error(t, err)
}

func TestRedisStore_CommandErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")

	t.Run("log read fails", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectLRange(logKey, 0, -1).SetErr(boom)

		_, err := NewRedisStore(client, RetentionPolicy{}).List(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read analytics log")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("record read fails", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectLRange(logKey, 0, -1).SetVal([]string{"r1"})
		mock.ExpectMGet(recordKey("r1")).SetErr(boom)

		_, err := NewRedisStore(client, RetentionPolicy{}).List(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read analytics records")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("expired records are skipped", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectLRange(logKey, 0, -1).SetVal([]string{"r1", "r2"})
		mock.ExpectMGet(recordKey("r1"), recordKey("r2")).SetVal([]interface{}{nil, `{"id":"r2","userId":"u1"}`})

		records, err := NewRedisStore(client, RetentionPolicy{}).List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "r2", records[0].ID)
	})

	t.Run("latest lookup fails", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectGet(userLatestKey("u1")).SetErr(boom)

		updated, err := NewRedisStore(client, RetentionPolicy{}).TrackClick(ctx, "u1", "1")
		require.Error(t, err)
		assert.False(t, updated)
		assert.Contains(t, err.Error(), "lookup latest analytics record")
	})

	t.Run("no latest record", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectGet(userLatestKey("u1")).RedisNil()

		updated, err := NewRedisStore(client, RetentionPolicy{}).TrackBooking(ctx, "u1", "1")
		require.NoError(t, err)
		assert.False(t, updated)
	})
}

// ==========================
// Summary
// ==========================

func TestSummarize(t *testing.T) {
	at := time.Now()
	records := []models.AnalyticsRecord{
		{RecommendedTours: []string{"1", "2", "3"}, ClickedTours: []string{"1", "2"}, BookedTours: []string{"1"}, Confidence: 80, Timestamp: at},
		{RecommendedTours: []string{"4"}, Confidence: 60, Timestamp: at},
	}

	s := Summarize(records)
	assert.Equal(t, 2, s.TotalRecommendations)
	assert.Equal(t, 4, s.TotalRecommended)
	assert.Equal(t, 2, s.TotalClicks)
	assert.Equal(t, 1, s.TotalBookings)
	assert.InDelta(t, 0.5, s.ClickThroughRate, 1e-9)
	assert.InDelta(t, 0.5, s.ConversionRate, 1e-9)
	assert.InDelta(t, 70.0, s.AverageConfidence, 1e-9)

	assert.Equal(t, Summary{}, Summarize(nil))
}
