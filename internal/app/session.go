package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"persona-quiz-service/internal/domain"
)

// State is the session's position in the quiz lifecycle.
type State int

const (
	StateLoading State = iota
	StateInProgress
	StateScoring
	StateAwaitingContact
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateInProgress:
		return "in_progress"
	case StateScoring:
		return "scoring"
	case StateAwaitingContact:
		return "awaiting_contact"
	case StateCompleted:
		return "completed"
	}
	return "unknown"
}

// Config carries the widget feature flags that shape a session.
type Config struct {
	AllowSkip           bool
	CollectContact      bool
	PartialLeadCapture  bool
	ClassificationOrder []string
}

// Session drives one user through one quiz: restore saved progress, record
// answers and skips, score the finished sequence, and capture the lead.
// Storage failures on progress writes are absorbed: the in-memory state keeps
// advancing and the error is reported so the caller may retry or warn.
type Session struct {
	userID string
	quizID string
	def    domain.QuizDefinition
	cfg    Config

	progress ProgressStore
	leads    LeadStore
	events   EventSink
	now      func() time.Time

	mu          sync.Mutex
	state       State
	current     int
	answers     map[string]domain.Answer
	result      string
	lastSaveErr error
}

// NewSession builds a session in the Loading state. Start must be called
// before any answer or skip.
func NewSession(userID, quizID string, def domain.QuizDefinition, cfg Config, progress ProgressStore, leads LeadStore, events EventSink) *Session {
	return NewSessionWithClock(userID, quizID, def, cfg, progress, leads, events, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(userID, quizID string, def domain.QuizDefinition, cfg Config, progress ProgressStore, leads LeadStore, events EventSink, now func() time.Time) *Session {
	return &Session{
		userID:   userID,
		quizID:   quizID,
		def:      def,
		cfg:      cfg,
		progress: progress,
		leads:    leads,
		events:   events,
		now:      now,
		state:    StateLoading,
		answers:  make(map[string]domain.Answer),
	}
}

// Start restores saved progress (if any) and enters InProgress. On a storage
// failure the session stays in Loading so the caller can retry Start.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoading {
		return fmt.Errorf("%w: start in state %s", domain.ErrInvalidTransition, s.state)
	}

	record, found, err := s.progress.Get(ctx, s.userID, s.quizID)
	if err != nil {
		return fmt.Errorf("%w: load progress: %v", domain.ErrStorageUnavailable, err)
	}
	if found {
		s.current = record.CurrentQuestion
		if s.current < 0 {
			s.current = 0
		}
		if s.current > len(s.def.Questions) {
			s.current = len(s.def.Questions)
		}
		for id, answer := range record.Answers {
			s.answers[id] = answer
		}
	}

	s.state = StateInProgress
	s.emit(ctx, "quiz_start", map[string]any{"resumed": found, "currentQuestion": s.current})

	// A restored session may already have every question answered but no
	// recorded submission; score it right away.
	if s.current >= len(s.def.Questions) {
		return s.finishLocked(ctx)
	}
	return nil
}

// Answer records the chosen option for questionID, advances the cursor, and
// persists the full snapshot. A non-nil error wrapping ErrStorageUnavailable
// means the answer was kept locally but the write failed.
func (s *Session) Answer(ctx context.Context, questionID string, optionIndex int) error {
	return s.record(ctx, questionID, domain.Pick(optionIndex))
}

// Skip records a skip for questionID. Only legal when the configuration
// allows skipping.
func (s *Session) Skip(ctx context.Context, questionID string) error {
	if !s.cfg.AllowSkip {
		return fmt.Errorf("%w: skipping disabled", domain.ErrInvalidTransition)
	}
	return s.record(ctx, questionID, domain.Skip())
}

func (s *Session) record(ctx context.Context, questionID string, answer domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return fmt.Errorf("%w: answer in state %s", domain.ErrInvalidTransition, s.state)
	}

	pos := s.questionIndex(questionID)
	if pos < 0 {
		return fmt.Errorf("%w: unknown question %q", domain.ErrInvalidAnswerIndex, questionID)
	}
	if pos > s.current {
		// Answers land on the cursor or behind it (re-answer after Goto).
		// Jumping ahead would silently skip the questions in between.
		return fmt.Errorf("%w: question %q is ahead of the cursor", domain.ErrInvalidTransition, questionID)
	}
	question := s.def.Questions[pos]
	if !answer.Skipped && (answer.OptionIndex < 0 || answer.OptionIndex >= len(question.Options)) {
		// Reject before any state changes; the cursor must not advance.
		return fmt.Errorf("%w: option %d of question %q", domain.ErrInvalidAnswerIndex, answer.OptionIndex, questionID)
	}

	s.answers[questionID] = answer
	s.current = pos + 1

	saveErr := s.persistLocked(ctx)

	name := "question_answered"
	if answer.Skipped {
		name = "question_skipped"
	}
	s.emit(ctx, name, map[string]any{"questionId": questionID, "position": pos})

	if s.current >= len(s.def.Questions) {
		if err := s.finishLocked(ctx); err != nil {
			// Keep the save failure visible alongside the scoring error.
			return errors.Join(saveErr, err)
		}
	}
	return saveErr
}

// Goto moves the cursor to a previously reachable question so the caller can
// re-answer it. Other recorded answers are untouched and scoring does not
// re-run.
func (s *Session) Goto(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return fmt.Errorf("%w: goto in state %s", domain.ErrInvalidTransition, s.state)
	}
	if index < 0 || index > s.current || index >= len(s.def.Questions) {
		return fmt.Errorf("%w: question index %d", domain.ErrInvalidAnswerIndex, index)
	}
	s.current = index
	return nil
}

// Submit validates the contact and finalizes the lead exactly once. On
// ErrInvalidContact the session stays in AwaitingContact; a duplicate
// finalize is treated as already done and completes the session.
func (s *Session) Submit(ctx context.Context, email string) (domain.LeadRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingContact {
		return domain.LeadRecord{}, fmt.Errorf("%w: submit in state %s", domain.ErrInvalidTransition, s.state)
	}
	if s.cfg.CollectContact {
		if err := domain.ValidateEmail(email); err != nil {
			return domain.LeadRecord{}, err
		}
	}

	lead, err := s.leads.Finalize(ctx, s.leadDraftLocked(email))
	switch {
	case err == nil:
		s.state = StateCompleted
		s.emit(ctx, "lead_submitted", map[string]any{"result": s.result})
		return lead, nil
	case errors.Is(err, domain.ErrAlreadyFinalized):
		// Benign duplicate: someone (a retry, another tab) got there first.
		s.state = StateCompleted
		return lead, nil
	case errors.Is(err, domain.ErrInvalidContact):
		return domain.LeadRecord{}, err
	default:
		return domain.LeadRecord{}, fmt.Errorf("%w: finalize lead: %v", domain.ErrStorageUnavailable, err)
	}
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentQuestion reports the cursor position.
func (s *Session) CurrentQuestion() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Result returns the computed personality type once scoring has run.
func (s *Session) Result() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.result != ""
}

// LastSaveErr reports whether the most recent progress write succeeded, so a
// caller can decide to retry.
func (s *Session) LastSaveErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaveErr
}

// Snapshot returns the answers positionally aligned to the definition, up to
// the cursor. Unvisited trailing questions are excluded.
func (s *Session) Snapshot() []domain.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Definition exposes the quiz content the session was built with.
func (s *Session) Definition() domain.QuizDefinition {
	return s.def
}

func (s *Session) questionIndex(questionID string) int {
	for i := range s.def.Questions {
		if s.def.Questions[i].ID == questionID {
			return i
		}
	}
	return -1
}

func (s *Session) snapshotLocked() []domain.Answer {
	n := 0
	for i, q := range s.def.Questions {
		if _, ok := s.answers[q.ID]; ok {
			n = i + 1
		}
	}
	snapshot := make([]domain.Answer, 0, n)
	for i := 0; i < n; i++ {
		answer, ok := s.answers[s.def.Questions[i].ID]
		if !ok {
			answer = domain.Skip()
		}
		snapshot = append(snapshot, answer)
	}
	return snapshot
}

// persistLocked writes the full snapshot and records the outcome for
// LastSaveErr. Storage failures never roll back in-memory state.
func (s *Session) persistLocked(ctx context.Context) error {
	answers := make(map[string]domain.Answer, len(s.answers))
	for id, a := range s.answers {
		answers[id] = a
	}
	if _, err := s.progress.Upsert(ctx, s.userID, s.quizID, s.current, answers); err != nil {
		s.lastSaveErr = err
		return fmt.Errorf("%w: save progress: %v", domain.ErrStorageUnavailable, err)
	}
	s.lastSaveErr = nil

	if s.cfg.PartialLeadCapture {
		if err := s.leads.SaveProvisional(ctx, s.leadDraftLocked("")); err != nil {
			log.Printf("provisional lead save failed for %s/%s: %v", s.userID, s.quizID, err)
		}
	}
	return nil
}

// finishLocked runs scoring and moves to contact capture or completion.
func (s *Session) finishLocked(ctx context.Context) error {
	s.state = StateScoring
	result, err := Score(s.def, s.snapshotLocked(), s.cfg.ClassificationOrder)
	if err != nil {
		s.state = StateInProgress
		return err
	}
	s.result = result
	s.emit(ctx, "quiz_completed", map[string]any{"result": result})

	if s.cfg.CollectContact {
		s.state = StateAwaitingContact
	} else {
		s.state = StateCompleted
	}
	return nil
}

func (s *Session) leadDraftLocked(email string) domain.LeadRecord {
	return domain.LeadRecord{
		SessionKey:  domain.SessionKey(s.userID, s.quizID, s.def.Version),
		UserID:      s.userID,
		QuizID:      s.quizID,
		QuizVersion: s.def.Version,
		Answers:     s.snapshotLocked(),
		Result:      s.result,
		Email:       email,
	}
}

func (s *Session) emit(ctx context.Context, name string, data map[string]any) {
	if s.events == nil {
		return
	}
	s.events.Emit(ctx, domain.Event{
		Name:      name,
		QuizTitle: s.def.Title,
		Data:      data,
	})
}
