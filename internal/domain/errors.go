package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz definition could not be loaded.
	ErrQuizNotFound = errors.New("quiz definition not found")
	// ErrInvalidAnswerIndex is returned when an answer index is out of range for its question.
	ErrInvalidAnswerIndex = errors.New("answer index out of range")
	// ErrAnswerCountMismatch is returned when an answers slice is longer than the question list.
	ErrAnswerCountMismatch = errors.New("answer count does not match question sequence")
	// ErrInvalidTransition is returned when a call is not legal in the session's current state.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrInvalidContact is returned when a submitted contact fails validation.
	ErrInvalidContact = errors.New("invalid contact")
	// ErrAlreadyFinalized is returned when a lead has already been finalized for the session.
	ErrAlreadyFinalized = errors.New("lead already finalized")
	// ErrStorageUnavailable wraps transport or backing-store failures; the
	// in-memory session survives it and the caller may retry.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
