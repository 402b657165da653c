package memory

import (
	"context"
	"errors"
	"testing"

	"persona-quiz-service/internal/domain"
)

func TestLeadFinalizeExactlyOnce(t *testing.T) {
	ctx := context.Background()
	store := NewLeadStore(true)
	draft := leadDraft()

	first, err := store.Finalize(ctx, draft)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if !first.Finalized || first.ID == "" {
		t.Fatalf("unexpected finalized record: %+v", first)
	}

	second, err := store.Finalize(ctx, draft)
	if !errors.Is(err, domain.ErrAlreadyFinalized) {
		t.Fatalf("expected ErrAlreadyFinalized, got %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("duplicate finalize must return the existing record, got %q vs %q", second.ID, first.ID)
	}

	finalized, _ := store.Finalized(ctx)
	if len(finalized) != 1 {
		t.Fatalf("expected one finalized record, got %d", len(finalized))
	}
}

func TestLeadFinalizeValidatesContact(t *testing.T) {
	store := NewLeadStore(true)
	draft := leadDraft()
	draft.Email = "nope"

	_, err := store.Finalize(context.Background(), draft)
	if !errors.Is(err, domain.ErrInvalidContact) {
		t.Fatalf("expected ErrInvalidContact, got %v", err)
	}

	finalized, _ := store.Finalized(context.Background())
	if len(finalized) != 0 {
		t.Fatalf("invalid contact must not finalize anything, got %d", len(finalized))
	}
}

func TestLeadProvisionalIsRepeatSafe(t *testing.T) {
	ctx := context.Background()
	store := NewLeadStore(false)
	draft := leadDraft()
	draft.Email = ""

	if err := store.SaveProvisional(ctx, draft); err != nil {
		t.Fatalf("provisional: %v", err)
	}
	draft.Answers = append(draft.Answers, domain.Pick(1))
	if err := store.SaveProvisional(ctx, draft); err != nil {
		t.Fatalf("provisional repeat: %v", err)
	}

	// Finalize keeps the provisional identity.
	record, err := store.Finalize(ctx, draft)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if record.ID == "" {
		t.Fatalf("expected generated id")
	}

	// Further provisional saves after finalization are no-ops.
	if err := store.SaveProvisional(ctx, draft); err != nil {
		t.Fatalf("provisional after finalize: %v", err)
	}
	finalized, _ := store.Finalized(ctx)
	if len(finalized) != 1 || !finalized[0].Finalized {
		t.Fatalf("finalized record mutated: %+v", finalized)
	}
}

func leadDraft() domain.LeadRecord {
	return domain.LeadRecord{
		SessionKey:  domain.SessionKey("u1", "quiz-1", "v1"),
		UserID:      "u1",
		QuizID:      "quiz-1",
		QuizVersion: "v1",
		Answers:     []domain.Answer{domain.Pick(0), domain.Pick(0)},
		Result:      "Explorer",
		Email:       "a@b.com",
	}
}
