package memory

import (
	"context"
	"errors"
	"testing"

	"persona-quiz-service/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	created := 0
	create := func() (*app.Session, error) {
		created++
		return app.NewSession("u1", "quiz-1", sampleDefinition(), app.Config{CollectContact: false}, NewProgressStore(), NewLeadStore(false), nil), nil
	}

	session, err := store.GetOrCreate("u1|quiz-1", create)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	again, err := store.GetOrCreate("u1|quiz-1", create)
	if err != nil {
		t.Fatalf("get or create again: %v", err)
	}
	if session != again || created != 1 {
		t.Fatalf("expected one live session, created=%d", created)
	}

	// An in-flight session is not evicted.
	store.DeleteIfCompleted("u1|quiz-1")
	if _, ok := store.Get("u1|quiz-1"); !ok {
		t.Fatalf("in-flight session must stay registered")
	}

	if err := session.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := session.Answer(ctx, "q1", 0); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if session.State() != app.StateCompleted {
		t.Fatalf("expected Completed, got %s", session.State())
	}

	store.DeleteIfCompleted("u1|quiz-1")
	if _, ok := store.Get("u1|quiz-1"); ok {
		t.Fatalf("completed session must be dropped")
	}
}

func TestSessionStorePropagatesCreateError(t *testing.T) {
	store := NewSessionStore()
	wantErr := errors.New("no such quiz")
	_, err := store.GetOrCreate("u1|quiz-404", func() (*app.Session, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected create error, got %v", err)
	}
	if _, ok := store.Get("u1|quiz-404"); ok {
		t.Fatalf("failed create must not register a session")
	}
}
