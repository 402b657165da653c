package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"persona-quiz-service/internal/domain"
)

// ProgressStore persists progress records as one JSON value per (user, quiz)
// key. Writes are last-write-wins: every upsert carries the full answers
// snapshot, so a retried or late-arriving write simply replaces the value
// with an equally complete one. Keys carry a TTL so abandoned sessions age
// out of Redis on their own.
type ProgressStore struct {
	client *redis.Client
	ttl    time.Duration
	clock  func() time.Time
}

func NewProgressStore(client *redis.Client, ttl time.Duration) *ProgressStore {
	return &ProgressStore{client: client, ttl: ttl, clock: time.Now}
}

func (s *ProgressStore) Get(ctx context.Context, userID, quizID string) (domain.ProgressRecord, bool, error) {
	raw, err := s.client.Get(ctx, s.key(userID, quizID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ProgressRecord{}, false, nil
	}
	if err != nil {
		return domain.ProgressRecord{}, false, fmt.Errorf("%w: get progress: %v", domain.ErrStorageUnavailable, err)
	}
	var record domain.ProgressRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return domain.ProgressRecord{}, false, fmt.Errorf("unmarshal progress: %w", err)
	}
	return record, true, nil
}

// upsertTxRetries bounds the optimistic-lock retries when concurrent writers
// race on the same key.
const upsertTxRetries = 8

func (s *ProgressStore) Upsert(ctx context.Context, userID, quizID string, currentQuestion int, answers map[string]domain.Answer) (domain.ProgressRecord, error) {
	now := s.clock()
	key := s.key(userID, quizID)

	record := domain.ProgressRecord{
		UserID:          userID,
		QuizID:          quizID,
		CurrentQuestion: currentQuestion,
		Answers:         answers,
		LastUpdated:     now,
	}

	// CreatedAt is set once. WATCH makes the read-preserve-write atomic so
	// two concurrent first writes cannot each restart the record's history.
	write := func(tx *redis.Tx) error {
		record.CreatedAt = now
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			var existing domain.ProgressRecord
			if unmarshalErr := json.Unmarshal(raw, &existing); unmarshalErr == nil && !existing.CreatedAt.IsZero() {
				record.CreatedAt = existing.CreatedAt
			}
		}

		payload, err := json.Marshal(record)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}

	var err error
	for attempt := 0; attempt < upsertTxRetries; attempt++ {
		err = s.client.Watch(ctx, write, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return domain.ProgressRecord{}, fmt.Errorf("%w: set progress: %v", domain.ErrStorageUnavailable, err)
	}
	return record, nil
}

func (s *ProgressStore) key(userID, quizID string) string {
	return "quiz:progress:" + userID + ":" + quizID
}
