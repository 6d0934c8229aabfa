package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"tour-workers/internal/models"
)

// MemoryStore is a process-local Store guarded by a single mutex.
type MemoryStore struct {
	mu        sync.Mutex
	records   []models.AnalyticsRecord
	retention RetentionPolicy
	now       func() time.Time
}

func NewMemoryStore(retention RetentionPolicy, now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{retention: retention, now: now}
}

func (s *MemoryStore) Record(_ context.Context, record models.AnalyticsRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record.Clone())
	s.prune()
	return nil
}

func (s *MemoryStore) TrackClick(_ context.Context, userID, tourID string) (bool, error) {
	return s.track(userID, tourID, interactionClick), nil
}

func (s *MemoryStore) TrackBooking(_ context.Context, userID, tourID string) (bool, error) {
	return s.track(userID, tourID, interactionBooking), nil
}

func (s *MemoryStore) List(_ context.Context) ([]models.AnalyticsRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune()
	out := make([]models.AnalyticsRecord, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out, nil
}

// Len returns the number of retained records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *MemoryStore) track(userID, tourID string, kind interaction) bool {
	if userID == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune()
	latest := -1
	for i := range s.records {
		if s.records[i].UserID != userID {
			continue
		}
		// later entries win ties
		if latest < 0 || !s.records[i].Timestamp.Before(s.records[latest].Timestamp) {
			latest = i
		}
	}
	if latest < 0 {
		return false
	}

	kind.apply(&s.records[latest], tourID)
	return true
}

// prune must be called with mu held.
func (s *MemoryStore) prune() {
	if s.retention.MaxAge > 0 {
		cutoff := s.now().Add(-s.retention.MaxAge)
		kept := s.records[:0]
		for _, r := range s.records {
			if !r.Timestamp.Before(cutoff) {
				kept = append(kept, r)
			}
		}
		s.records = kept
	}

	if limit := s.retention.MaxRecords; limit > 0 && len(s.records) > limit {
		drop := len(s.records) - limit
		s.records = append([]models.AnalyticsRecord(nil), s.records[drop:]...)
	}
}
