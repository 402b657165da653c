package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"persona-quiz-service/internal/app"
	"persona-quiz-service/internal/domain"
	"persona-quiz-service/internal/infra/memory"
)

func TestOpenSessionFallsBackToDefaultVersion(t *testing.T) {
	ctx := context.Background()
	definitions := memory.NewDefinitionSource(memory.NewStaticDefinitionLoader(map[string]domain.QuizDefinition{
		"v1": twoQuestionQuiz(),
	}), time.Minute)
	service := app.NewQuizService(definitions, memory.NewProgressStore(), memory.NewLeadStore(true), nil, nil, contactConfig(), "v1")

	session, err := service.OpenSession(ctx, "u1", "quiz-1", "v9-missing")
	if err != nil {
		t.Fatalf("expected fallback to default version, got %v", err)
	}
	if session.Definition().Version != "v1" {
		t.Fatalf("expected default definition, got %q", session.Definition().Version)
	}

	// Empty version goes straight to the default.
	session, err = service.OpenSession(ctx, "u1", "quiz-1", "")
	if err != nil {
		t.Fatalf("open with empty version: %v", err)
	}
	if session.Definition().Version != "v1" {
		t.Fatalf("expected default definition, got %q", session.Definition().Version)
	}
}

func TestOpenSessionUnknownDefaultFails(t *testing.T) {
	definitions := memory.NewDefinitionSource(memory.NewStaticDefinitionLoader(nil), time.Minute)
	service := app.NewQuizService(definitions, memory.NewProgressStore(), memory.NewLeadStore(true), nil, nil, contactConfig(), "v1")

	_, err := service.OpenSession(context.Background(), "u1", "quiz-1", "")
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}
