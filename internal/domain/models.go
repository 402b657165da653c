package domain

import "time"

// Option is a selectable answer tagged with the personality type it counts toward.
type Option struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Question models a single quiz step with an ordered option list.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// QuizDefinition is one published version of a quiz.
type QuizDefinition struct {
	Version   string     `json:"version"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Answer records the user's choice for one question. A skipped question
// carries no option index and contributes nothing to scoring.
type Answer struct {
	OptionIndex int  `json:"optionIndex"`
	Skipped     bool `json:"skipped,omitempty"`
}

// Skip is the marker value for a skipped question.
func Skip() Answer {
	return Answer{Skipped: true}
}

// Pick wraps an option index in an Answer.
func Pick(optionIndex int) Answer {
	return Answer{OptionIndex: optionIndex}
}

// ProgressRecord is the durable snapshot of a user's in-flight answers for
// one quiz. At most one record exists per (UserID, QuizID) pair.
type ProgressRecord struct {
	UserID          string            `json:"userId"`
	QuizID          string            `json:"quizId"`
	CurrentQuestion int               `json:"currentQuestion"`
	Answers         map[string]Answer `json:"answers"`
	CreatedAt       time.Time         `json:"createdAt"`
	LastUpdated     time.Time         `json:"lastUpdated"`
}

// LeadRecord is the durable outcome of a completed quiz: the answers
// snapshot, the computed type, and the contact captured for follow-up.
// Once Finalized is set the record never changes again.
type LeadRecord struct {
	ID          string    `json:"id"`
	SessionKey  string    `json:"sessionKey"`
	UserID      string    `json:"userId"`
	QuizID      string    `json:"quizId"`
	QuizVersion string    `json:"quizVersion"`
	Answers     []Answer  `json:"answers"`
	Result      string    `json:"result"`
	Email       string    `json:"email,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
	Finalized   bool      `json:"finalized"`
}

// Recommendation is pass-through offer data matched to a personality type.
type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Event is a named analytics signal emitted at state transitions.
type Event struct {
	Name      string         `json:"name"`
	QuizTitle string         `json:"quizTitle"`
	Data      map[string]any `json:"data,omitempty"`
}
