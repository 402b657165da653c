package domain

import (
	"fmt"
	"net/mail"
	"strings"
)

// SessionKey identifies one quiz-taking session for lead finalization.
func SessionKey(userID, quizID, quizVersion string) string {
	return userID + "|" + quizID + "|" + quizVersion
}

// ValidateEmail checks that the contact is a plain, syntactically valid
// email address. Display names ("Bob <b@x.com>") are rejected.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidContact, email)
	}
	if addr.Name != "" || !strings.EqualFold(addr.Address, strings.TrimSpace(email)) {
		return fmt.Errorf("%w: %q", ErrInvalidContact, email)
	}
	return nil
}
