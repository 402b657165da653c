package domain

import (
	"strings"
	"testing"
)

func TestValidateDefinition(t *testing.T) {
	def := QuizDefinition{
		Version: "v1",
		Questions: []Question{
			{ID: "q1", Options: []Option{{Text: "a", Type: "Explorer"}}},
			{ID: "q2", Options: []Option{{Text: "b", Type: "Connector"}}},
		},
	}
	if err := def.Validate([]string{"Explorer", "Connector"}); err != nil {
		t.Fatalf("expected valid definition, got %v", err)
	}
	// Without a classification set only structure is checked.
	if err := def.Validate(nil); err != nil {
		t.Fatalf("expected valid definition without set, got %v", err)
	}
}

func TestValidateRejectsDuplicateQuestionIDs(t *testing.T) {
	def := QuizDefinition{
		Version: "v1",
		Questions: []Question{
			{ID: "q1", Options: []Option{{Text: "a", Type: "Explorer"}}},
			{ID: "q1", Options: []Option{{Text: "b", Type: "Explorer"}}},
		},
	}
	err := def.Validate(nil)
	if err == nil || !strings.Contains(err.Error(), "duplicate question id") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestValidateRejectsUnknownType(t *testing.T) {
	def := QuizDefinition{
		Version: "v1",
		Questions: []Question{
			{ID: "q1", Options: []Option{{Text: "a", Type: "Wanderer"}}},
		},
	}
	err := def.Validate([]string{"Explorer", "Connector"})
	if err == nil || !strings.Contains(err.Error(), "unknown type") {
		t.Fatalf("expected unknown type error, got %v", err)
	}
}
