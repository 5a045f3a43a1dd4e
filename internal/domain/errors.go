package domain

import "errors"

var (
	// ErrQuestionNotFound is returned when a question id does not resolve to
	// active content.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrProfileNotFound means the user has no provisioned profile row; the
	// recording engine does not repair this precondition.
	ErrProfileNotFound = errors.New("user profile not found")
	// ErrReportNotFound is returned when a dismissed report id is unknown.
	ErrReportNotFound = errors.New("report not found")
	// ErrCorruptQuestion means stored content violates the one-correct-option
	// invariant; the question is excluded from serving until content is fixed.
	ErrCorruptQuestion = errors.New("question content violates correct-option invariant")
	// ErrInvalidInput flags malformed request input. Not retryable.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSessionNotRecorded wraps any failure inside the session-recording
	// transaction. Nothing partial was committed, so a retry with the same
	// payload is safe.
	ErrSessionNotRecorded = errors.New("session not recorded")
	// ErrUnauthorized is returned when the bearer token is missing or invalid.
	ErrUnauthorized = errors.New("unauthorized")
)
