package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"persona-quiz-service/internal/domain"
)

// LeadStore persists leads in Postgres via bun. A session's provisional and
// finalized lead share one row keyed by session_key; finalization is a
// conditional UPDATE, so the finalized=true transition happens exactly once
// no matter how many callers race it.
type LeadStore struct {
	db             *bun.DB
	requireContact bool
	clock          func() time.Time
}

type leadRow struct {
	bun.BaseModel `bun:"table:leads,alias:l"`

	ID          string          `bun:"id,pk"`
	SessionKey  string          `bun:"session_key"`
	UserID      string          `bun:"user_id"`
	QuizID      string          `bun:"quiz_id"`
	QuizVersion string          `bun:"quiz_version"`
	Answers     json.RawMessage `bun:"answers,type:jsonb"`
	Result      string          `bun:"result"`
	Email       string          `bun:"email"`
	SubmittedAt time.Time       `bun:"submitted_at"`
	Finalized   bool            `bun:"finalized"`
}

func NewLeadStore(db *bun.DB, requireContact bool) *LeadStore {
	return &LeadStore{db: db, requireContact: requireContact, clock: time.Now}
}

// SaveProvisional inserts or refreshes the partial lead row. Rows that were
// already finalized are left untouched.
func (s *LeadStore) SaveProvisional(ctx context.Context, lead domain.LeadRecord) error {
	row, err := s.toRow(lead)
	if err != nil {
		return err
	}
	_, err = s.db.NewInsert().
		Model(row).
		On("CONFLICT (session_key) DO UPDATE").
		Set("answers = EXCLUDED.answers").
		Set("email = EXCLUDED.email").
		Set("submitted_at = EXCLUDED.submitted_at").
		Where("l.finalized = FALSE").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: save provisional lead: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Finalize promotes the session's lead row to finalized exactly once. If no
// provisional row exists one is inserted directly in finalized form. A
// duplicate call returns the stored record with domain.ErrAlreadyFinalized.
func (s *LeadStore) Finalize(ctx context.Context, lead domain.LeadRecord) (domain.LeadRecord, error) {
	if s.requireContact {
		if err := domain.ValidateEmail(lead.Email); err != nil {
			return domain.LeadRecord{}, err
		}
	}

	row, err := s.toRow(lead)
	if err != nil {
		return domain.LeadRecord{}, err
	}
	row.Finalized = true

	res, err := s.db.NewUpdate().
		Model(row).
		Column("answers", "result", "email", "submitted_at", "finalized").
		Where("l.session_key = ?", lead.SessionKey).
		Where("l.finalized = FALSE").
		Exec(ctx)
	if err != nil {
		return domain.LeadRecord{}, fmt.Errorf("%w: finalize lead: %v", domain.ErrStorageUnavailable, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return s.bySessionKey(ctx, lead.SessionKey)
	}

	// No live provisional row. Either nothing exists yet, or a finalized row
	// already won the race.
	_, err = s.db.NewInsert().
		Model(row).
		On("CONFLICT (session_key) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return domain.LeadRecord{}, fmt.Errorf("%w: insert finalized lead: %v", domain.ErrStorageUnavailable, err)
	}

	stored, err := s.bySessionKey(ctx, lead.SessionKey)
	if err != nil {
		return domain.LeadRecord{}, err
	}
	if stored.ID != row.ID {
		return stored, fmt.Errorf("%w: session %s", domain.ErrAlreadyFinalized, lead.SessionKey)
	}
	return stored, nil
}

// Finalized returns every finalized lead, oldest first, for export.
func (s *LeadStore) Finalized(ctx context.Context) ([]domain.LeadRecord, error) {
	var rows []leadRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("l.finalized = TRUE").
		Order("submitted_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list finalized leads: %v", domain.ErrStorageUnavailable, err)
	}
	out := make([]domain.LeadRecord, 0, len(rows))
	for i := range rows {
		lead, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	return out, nil
}

func (s *LeadStore) bySessionKey(ctx context.Context, sessionKey string) (domain.LeadRecord, error) {
	row := new(leadRow)
	err := s.db.NewSelect().
		Model(row).
		Where("l.session_key = ?", sessionKey).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LeadRecord{}, fmt.Errorf("lead for session %s not found", sessionKey)
	}
	if err != nil {
		return domain.LeadRecord{}, fmt.Errorf("%w: load lead: %v", domain.ErrStorageUnavailable, err)
	}
	return fromRow(row)
}

func (s *LeadStore) toRow(lead domain.LeadRecord) (*leadRow, error) {
	answers, err := json.Marshal(lead.Answers)
	if err != nil {
		return nil, fmt.Errorf("marshal answers: %w", err)
	}
	id := lead.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &leadRow{
		ID:          id,
		SessionKey:  lead.SessionKey,
		UserID:      lead.UserID,
		QuizID:      lead.QuizID,
		QuizVersion: lead.QuizVersion,
		Answers:     answers,
		Result:      lead.Result,
		Email:       lead.Email,
		SubmittedAt: s.clock(),
		Finalized:   lead.Finalized,
	}, nil
}

func fromRow(row *leadRow) (domain.LeadRecord, error) {
	var answers []domain.Answer
	if len(row.Answers) > 0 {
		if err := json.Unmarshal(row.Answers, &answers); err != nil {
			return domain.LeadRecord{}, fmt.Errorf("unmarshal answers: %w", err)
		}
	}
	return domain.LeadRecord{
		ID:          row.ID,
		SessionKey:  row.SessionKey,
		UserID:      row.UserID,
		QuizID:      row.QuizID,
		QuizVersion: row.QuizVersion,
		Answers:     answers,
		Result:      row.Result,
		Email:       row.Email,
		SubmittedAt: row.SubmittedAt,
		Finalized:   row.Finalized,
	}, nil
}
