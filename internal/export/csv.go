// Package export projects finalized leads into flat formats for marketing
// tools. It only ever reads finalized records.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"persona-quiz-service/internal/domain"
)

// FinalizedLeads is the read-only slice of a lead store the exporter needs.
type FinalizedLeads interface {
	Finalized(ctx context.Context) ([]domain.LeadRecord, error)
}

// WriteCSV streams every finalized lead as one CSV row. Answers are packed
// into a single semicolon-separated column (option index, or "skip").
func WriteCSV(ctx context.Context, store FinalizedLeads, w io.Writer) error {
	leads, err := store.Finalized(ctx)
	if err != nil {
		return fmt.Errorf("export leads: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "user_id", "quiz_id", "quiz_version", "email", "result", "answers", "submitted_at"}); err != nil {
		return err
	}
	for _, lead := range leads {
		row := []string{
			lead.ID,
			lead.UserID,
			lead.QuizID,
			lead.QuizVersion,
			lead.Email,
			lead.Result,
			packAnswers(lead.Answers),
			lead.SubmittedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func packAnswers(answers []domain.Answer) string {
	out := ""
	for i, a := range answers {
		if i > 0 {
			out += ";"
		}
		if a.Skipped {
			out += "skip"
		} else {
			out += strconv.Itoa(a.OptionIndex)
		}
	}
	return out
}
