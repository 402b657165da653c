package domain

import (
	"errors"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{"a@b.com", "user.name+tag@example.co.uk"}
	for _, email := range valid {
		if err := ValidateEmail(email); err != nil {
			t.Fatalf("expected %q to validate, got %v", email, err)
		}
	}

	invalid := []string{"", "nope", "@example.com", "a@", "Bob <a@b.com>", "two@at@signs"}
	for _, email := range invalid {
		err := ValidateEmail(email)
		if !errors.Is(err, ErrInvalidContact) {
			t.Fatalf("expected %q to fail with ErrInvalidContact, got %v", email, err)
		}
	}
}
