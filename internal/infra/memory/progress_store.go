package memory

import (
	"context"
	"sync"
	"time"

	"persona-quiz-service/internal/domain"
)

// ProgressStore is an in-memory implementation of app.ProgressStore (useful
// for tests and single-instance demos). Writes are last-write-wins: each
// upsert replaces the whole record except CreatedAt, so retrying an identical
// call leaves the stored state unchanged.
type ProgressStore struct {
	mu      sync.RWMutex
	clock   func() time.Time
	records map[progressKey]domain.ProgressRecord
}

type progressKey struct {
	userID string
	quizID string
}

func NewProgressStore() *ProgressStore {
	return NewProgressStoreWithClock(time.Now)
}

// NewProgressStoreWithClock is test-only for deterministic timestamps.
func NewProgressStoreWithClock(clock func() time.Time) *ProgressStore {
	return &ProgressStore{
		clock:   clock,
		records: make(map[progressKey]domain.ProgressRecord),
	}
}

func (s *ProgressStore) Get(_ context.Context, userID, quizID string) (domain.ProgressRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[progressKey{userID, quizID}]
	return record, ok, nil
}

func (s *ProgressStore) Upsert(_ context.Context, userID, quizID string, currentQuestion int, answers map[string]domain.Answer) (domain.ProgressRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	key := progressKey{userID, quizID}

	record, ok := s.records[key]
	if !ok {
		record = domain.ProgressRecord{
			UserID:    userID,
			QuizID:    quizID,
			CreatedAt: now,
		}
	}
	record.CurrentQuestion = currentQuestion
	record.Answers = copyAnswers(answers)
	record.LastUpdated = now

	s.records[key] = record
	return record, nil
}

// Len reports how many distinct (user, quiz) records exist.
func (s *ProgressStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func copyAnswers(answers map[string]domain.Answer) map[string]domain.Answer {
	out := make(map[string]domain.Answer, len(answers))
	for id, a := range answers {
		out[id] = a
	}
	return out
}
