package memory

import (
	"sync"

	"persona-quiz-service/internal/app"
)

// SessionStore keeps live session controllers keyed by (user, quiz) so a
// reconnecting client resumes the same in-memory state instead of racing a
// second controller against the stores.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

// GetOrCreate returns the live session for key, building one with create on
// first use. The create error is returned as-is and nothing is stored.
func (s *SessionStore) GetOrCreate(key string, create func() (*app.Session, error)) (*app.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[key]; ok {
		return session, nil
	}
	session, err := create()
	if err != nil {
		return nil, err
	}
	s.sessions[key] = session
	return session, nil
}

func (s *SessionStore) Get(key string) (*app.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[key]
	return session, ok
}

// DeleteIfCompleted drops a finished session; progress for unfinished ones
// stays durable in the ProgressStore, so nothing is lost either way.
func (s *SessionStore) DeleteIfCompleted(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[key]
	if !ok {
		return
	}
	if session.State() == app.StateCompleted {
		delete(s.sessions, key)
	}
}
