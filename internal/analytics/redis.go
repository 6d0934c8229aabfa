package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tour-workers/internal/models"
)

const (
	logKey          = "analytics:log"
	recordKeyPrefix = "analytics:record:"
	maxTxRetries    = 100
)

var ErrTrackConflict = errors.New("analytics record changed concurrently")

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore keeps the log in Redis so several worker processes share it.
// Records expire after MaxAge and the log list is trimmed to MaxRecords.
type RedisStore struct {
	client    *redis.Client
	retention RetentionPolicy
}

func NewRedisStore(client *redis.Client, retention RetentionPolicy) *RedisStore {
	return &RedisStore{client: client, retention: retention}
}

func recordKey(id string) string {
	return recordKeyPrefix + id
}

func userLatestKey(userID string) string {
	return fmt.Sprintf("analytics:user:%s:latest", userID)
}

func (s *RedisStore) Record(ctx context.Context, record models.AnalyticsRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	data, err := json.Marshal(record.Clone())
	if err != nil {
		return fmt.Errorf("marshal analytics record: %w", err)
	}

	if err := s.appendToLog(ctx, record.ID, data); err != nil {
		return fmt.Errorf("store analytics record: %w", err)
	}

	if record.UserID == "" {
		return nil
	}
	return s.advanceLatest(ctx, record)
}

// appendToLog stores the record and pushes it onto the log. With MaxRecords set,
// the records trimmed off the head of the log are deleted in the same
// transaction.
func (s *RedisStore) appendToLog(ctx context.Context, id string, data []byte) error {
	limit := s.retention.MaxRecords
	if limit <= 0 {
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, recordKey(id), data, s.retention.MaxAge)
			pipe.RPush(ctx, logKey, id)
			return nil
		})
		return err
	}

	txf := func(tx *redis.Tx) error {
		// after the push the list keeps its last limit entries, so the
		// current entries up to index -limit are dropped
		dropped, err := tx.LRange(ctx, logKey, 0, int64(-limit)).Result()
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, recordKey(id), data, s.retention.MaxAge)
			pipe.RPush(ctx, logKey, id)
			pipe.LTrim(ctx, logKey, int64(-limit), -1)
			keys := make([]string, 0, len(dropped))
			for _, d := range dropped {
				if d != id {
					keys = append(keys, recordKey(d))
				}
			}
			if len(keys) > 0 {
				pipe.Del(ctx, keys...)
			}
			return nil
		})
		return err
	}
	return s.watch(ctx, txf, logKey)
}

// advanceLatest points the user's latest key at record unless a newer one is
// already there.
func (s *RedisStore) advanceLatest(ctx context.Context, record models.AnalyticsRecord) error {
	key := userLatestKey(record.UserID)

	txf := func(tx *redis.Tx) error {
		currentID, err := tx.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if currentID != "" {
			if current, ok, err := s.load(ctx, tx, currentID); err != nil {
				return err
			} else if ok && current.Timestamp.After(record.Timestamp) {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, record.ID, s.retention.MaxAge)
			return nil
		})
		return err
	}

	return s.watch(ctx, txf, key)
}

func (s *RedisStore) TrackClick(ctx context.Context, userID, tourID string) (bool, error) {
	return s.track(ctx, userID, tourID, interactionClick)
}

func (s *RedisStore) TrackBooking(ctx context.Context, userID, tourID string) (bool, error) {
	return s.track(ctx, userID, tourID, interactionBooking)
}

func (s *RedisStore) track(ctx context.Context, userID, tourID string, kind interaction) (bool, error) {
	if userID == "" {
		return false, nil
	}

	id, err := s.client.Get(ctx, userLatestKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup latest analytics record: %w", err)
	}

	key := recordKey(id)
	updated := false
	txf := func(tx *redis.Tx) error {
		record, ok, err := s.load(ctx, tx, id)
		if err != nil || !ok {
			updated = false
			return err
		}
		kind.apply(&record, tourID)
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, redis.KeepTTL)
			return nil
		})
		updated = err == nil
		return err
	}

	if err := s.watch(ctx, txf, key); err != nil {
		return false, err
	}
	return updated, nil
}

func (s *RedisStore) List(ctx context.Context) ([]models.AnalyticsRecord, error) {
	ids, err := s.client.LRange(ctx, logKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read analytics log: %w", err)
	}
	if len(ids) == 0 {
		return []models.AnalyticsRecord{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read analytics records: %w", err)
	}

	out := make([]models.AnalyticsRecord, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// expired
			continue
		}
		var record models.AnalyticsRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("decode analytics record: %w", err)
		}
		out = append(out, record)
	}
	return out, nil
}

func (s *RedisStore) load(ctx context.Context, c getter, id string) (models.AnalyticsRecord, bool, error) {
	var record models.AnalyticsRecord
	raw, err := c.Get(ctx, recordKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return record, false, nil
	}
	if err != nil {
		return record, false, err
	}
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return record, false, fmt.Errorf("decode analytics record %s: %w", id, err)
	}
	return record, true, nil
}

func (s *RedisStore) watch(ctx context.Context, txf func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, keys...)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrTrackConflict
}
