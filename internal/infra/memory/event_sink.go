package memory

import (
	"context"
	"log"
	"sync"

	"persona-quiz-service/internal/domain"
)

// EventLog is an in-process analytics sink: events are logged and retained in
// a ring so tests and the demo server can inspect what fired.
type EventLog struct {
	limit int

	mu     sync.Mutex
	events []domain.Event
}

func NewEventLog(limit int) *EventLog {
	if limit <= 0 {
		limit = 256
	}
	return &EventLog{limit: limit}
}

func (l *EventLog) Emit(_ context.Context, event domain.Event) {
	log.Printf("event %s quiz=%q data=%v", event.Name, event.QuizTitle, event.Data)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	if len(l.events) > l.limit {
		l.events = l.events[len(l.events)-l.limit:]
	}
}

// Events returns a copy of the retained events in emission order.
func (l *EventLog) Events() []domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Event, len(l.events))
	copy(out, l.events)
	return out
}
