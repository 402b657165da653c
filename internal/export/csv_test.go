package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"persona-quiz-service/internal/domain"
	"persona-quiz-service/internal/infra/memory"
)

func TestWriteCSVOnlyFinalizedLeads(t *testing.T) {
	ctx := context.Background()
	store := memory.NewLeadStore(true)

	// A provisional lead must never appear in the export.
	provisional := domain.LeadRecord{
		SessionKey: domain.SessionKey("u2", "quiz-1", "v1"),
		UserID:     "u2",
		QuizID:     "quiz-1",
		Answers:    []domain.Answer{domain.Pick(1)},
	}
	if err := store.SaveProvisional(ctx, provisional); err != nil {
		t.Fatalf("provisional: %v", err)
	}

	lead := domain.LeadRecord{
		SessionKey:  domain.SessionKey("u1", "quiz-1", "v1"),
		UserID:      "u1",
		QuizID:      "quiz-1",
		QuizVersion: "v1",
		Answers:     []domain.Answer{domain.Pick(0), domain.Skip(), domain.Pick(2)},
		Result:      "Explorer",
		Email:       "a@b.com",
	}
	if _, err := store.Finalize(ctx, lead); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(ctx, store, &buf); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus one row, got %d rows", len(rows))
	}
	header, row := rows[0], rows[1]
	if header[0] != "id" || header[5] != "result" {
		t.Fatalf("unexpected header: %v", header)
	}
	if row[1] != "u1" || row[4] != "a@b.com" || row[5] != "Explorer" {
		t.Fatalf("unexpected row: %v", row)
	}
	if row[6] != "0;skip;2" {
		t.Fatalf("unexpected packed answers: %q", row[6])
	}
}
