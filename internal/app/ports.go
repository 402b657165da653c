package app

import (
	"context"

	"persona-quiz-service/internal/domain"
)

// ProgressStore persists in-flight quiz progress keyed by (user, quiz).
// Upsert must be idempotent under retry; concurrent writers resolve by
// last-write-wins on LastUpdated, which is safe because every call carries
// the full answers snapshot rather than a delta.
type ProgressStore interface {
	Get(ctx context.Context, userID, quizID string) (domain.ProgressRecord, bool, error)
	Upsert(ctx context.Context, userID, quizID string, currentQuestion int, answers map[string]domain.Answer) (domain.ProgressRecord, error)
}

// LeadStore persists quiz outcomes. SaveProvisional is best-effort and safe
// to repeat; Finalize happens exactly once per session key and returns
// domain.ErrAlreadyFinalized (with the existing record) on a duplicate.
type LeadStore interface {
	SaveProvisional(ctx context.Context, lead domain.LeadRecord) error
	Finalize(ctx context.Context, lead domain.LeadRecord) (domain.LeadRecord, error)
}

// DefinitionSource resolves a quiz definition by version identifier.
type DefinitionSource interface {
	Definition(ctx context.Context, version string) (domain.QuizDefinition, error)
}

// Recommender maps a personality type to offer data. The results are
// pass-through; the session core never interprets them.
type Recommender interface {
	Recommendations(ctx context.Context, personalityType string) ([]domain.Recommendation, error)
}

// EventSink receives analytics events. Implementations must be best-effort:
// Emit never blocks the session and never surfaces an error.
type EventSink interface {
	Emit(ctx context.Context, event domain.Event)
}
