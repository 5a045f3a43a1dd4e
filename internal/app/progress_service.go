package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vocab-quiz-service/internal/domain"
)

// ProgressStore persists the five session aggregates. RecordSession MUST be
// atomic: either the session row, its answer log, and all three aggregate
// updates commit together, or none of them do.
type ProgressStore interface {
	RecordSession(ctx context.Context, userID int64, in domain.SessionInput, today time.Time) (int64, domain.Profile, error)
	Overview(ctx context.Context, userID int64, today time.Time) (domain.Overview, error)
}

// ProgressService orchestrates session recording and dashboard reads.
type ProgressService struct {
	store ProgressStore
	feed  *ProgressFeed
	now   func() time.Time
}

func NewProgressService(store ProgressStore, feed *ProgressFeed) *ProgressService {
	return NewProgressServiceWithClock(store, feed, time.Now)
}

// NewProgressServiceWithClock is test-only for deterministic dates.
func NewProgressServiceWithClock(store ProgressStore, feed *ProgressFeed, now func() time.Time) *ProgressService {
	return &ProgressService{store: store, feed: feed, now: now}
}

// RecordSession validates the finished-session payload and applies it in one
// store transaction. On success the new session id is returned and feed
// subscribers are notified; on failure nothing was committed and the caller
// may retry with the identical payload.
func (s *ProgressService) RecordSession(ctx context.Context, userID int64, in domain.SessionInput) (int64, error) {
	if err := validateSessionInput(in); err != nil {
		return 0, err
	}

	today := s.now()
	sessionID, profile, err := s.store.RecordSession(ctx, userID, in, today)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			// Precondition violation, not a transient failure: retrying the
			// same payload cannot succeed until the profile is provisioned.
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", domain.ErrSessionNotRecorded, err)
	}

	if s.feed != nil {
		s.feed.Publish(domain.ProgressUpdate{
			UserID:       userID,
			SessionID:    sessionID,
			TotalPoints:  profile.TotalPoints,
			Streak:       profile.Streak,
			LastActivity: domain.Midnight(today),
		})
	}
	return sessionID, nil
}

// Overview returns the dashboard aggregates for a user.
func (s *ProgressService) Overview(ctx context.Context, userID int64) (domain.Overview, error) {
	return s.store.Overview(ctx, userID, s.now())
}

func validateSessionInput(in domain.SessionInput) error {
	switch {
	case in.CourseTag == "":
		return fmt.Errorf("%w: course tag required", domain.ErrInvalidInput)
	case in.TotalCount < 0:
		return fmt.Errorf("%w: negative total count", domain.ErrInvalidInput)
	case in.CorrectCount < 0 || in.CorrectCount > in.TotalCount:
		return fmt.Errorf("%w: correct count %d out of range for total %d", domain.ErrInvalidInput, in.CorrectCount, in.TotalCount)
	case in.DurationSeconds < 0:
		return fmt.Errorf("%w: negative duration", domain.ErrInvalidInput)
	}
	for i, a := range in.Answers {
		if a.QuestionID <= 0 {
			return fmt.Errorf("%w: answer %d missing question id", domain.ErrInvalidInput, i)
		}
		if !domain.ValidLabel(a.ChosenLabel) {
			return fmt.Errorf("%w: answer %d has label %q", domain.ErrInvalidInput, i, a.ChosenLabel)
		}
	}
	return nil
}
