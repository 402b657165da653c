package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"persona-quiz-service/internal/domain"
)

// LeadStore is an in-memory implementation of app.LeadStore. Finalization is
// a check-and-set under the store mutex, so at most one finalized record ever
// exists per session key.
type LeadStore struct {
	requireContact bool
	clock          func() time.Time

	mu          sync.RWMutex
	finalized   map[string]domain.LeadRecord
	provisional map[string]domain.LeadRecord
}

func NewLeadStore(requireContact bool) *LeadStore {
	return NewLeadStoreWithClock(requireContact, time.Now)
}

// NewLeadStoreWithClock is test-only for deterministic timestamps.
func NewLeadStoreWithClock(requireContact bool, clock func() time.Time) *LeadStore {
	return &LeadStore{
		requireContact: requireContact,
		clock:          clock,
		finalized:      make(map[string]domain.LeadRecord),
		provisional:    make(map[string]domain.LeadRecord),
	}
}

// SaveProvisional records or replaces the partial lead for the session. It
// is safe to call on every answer; nothing here is ever finalized.
func (s *LeadStore) SaveProvisional(_ context.Context, lead domain.LeadRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, done := s.finalized[lead.SessionKey]; done {
		// A finalized session no longer accepts partial snapshots.
		return nil
	}
	existing, ok := s.provisional[lead.SessionKey]
	if ok {
		lead.ID = existing.ID
	} else {
		lead.ID = uuid.NewString()
	}
	lead.SubmittedAt = s.clock()
	s.provisional[lead.SessionKey] = lead
	return nil
}

// Finalize promotes the session's lead to its immutable finalized form,
// exactly once. A second call returns the existing record with
// domain.ErrAlreadyFinalized.
func (s *LeadStore) Finalize(_ context.Context, lead domain.LeadRecord) (domain.LeadRecord, error) {
	if s.requireContact {
		if err := domain.ValidateEmail(lead.Email); err != nil {
			return domain.LeadRecord{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, done := s.finalized[lead.SessionKey]; done {
		return existing, fmt.Errorf("%w: session %s", domain.ErrAlreadyFinalized, lead.SessionKey)
	}

	if prov, ok := s.provisional[lead.SessionKey]; ok {
		lead.ID = prov.ID
		delete(s.provisional, lead.SessionKey)
	} else {
		lead.ID = uuid.NewString()
	}
	lead.SubmittedAt = s.clock()
	lead.Finalized = true
	s.finalized[lead.SessionKey] = lead
	return lead, nil
}

// Finalized returns a snapshot of all finalized leads, for export.
func (s *LeadStore) Finalized(_ context.Context) ([]domain.LeadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.LeadRecord, 0, len(s.finalized))
	for _, lead := range s.finalized {
		out = append(out, lead)
	}
	return out, nil
}
