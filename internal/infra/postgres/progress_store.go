package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"vocab-quiz-service/internal/domain"
)

// ProgressStore persists session results and the derived aggregates.
type ProgressStore struct {
	db *bun.DB
}

func NewProgressStore(db *bun.DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// RecordSession applies one finished session inside a single transaction:
// session row, answer log, profile, course progress, and daily stat commit
// together or not at all. Aggregate rows are read FOR UPDATE so two
// concurrent sessions for the same user serialize instead of losing
// updates.
func (s *ProgressStore) RecordSession(ctx context.Context, userID int64, in domain.SessionInput, today time.Time) (int64, domain.Profile, error) {
	// DATE columns round-trip as UTC midnight; keep streak math in the same frame.
	today = today.UTC()
	day := domain.Midnight(today)

	var sessionID int64
	var profile domain.Profile

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		session := &QuizSessionRow{
			UserID:          userID,
			CourseTag:       in.CourseTag,
			CorrectCount:    in.CorrectCount,
			TotalCount:      in.TotalCount,
			DurationSeconds: in.DurationSeconds,
			CreatedAt:       today,
		}
		if _, err := tx.NewInsert().Model(session).Exec(ctx); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		sessionID = session.ID

		if len(in.Answers) > 0 {
			logs := make([]AnswerLogRow, 0, len(in.Answers))
			for _, a := range in.Answers {
				if a.QuestionID <= 0 || !domain.ValidLabel(a.ChosenLabel) {
					return fmt.Errorf("malformed answer for question %d", a.QuestionID)
				}
				logs = append(logs, AnswerLogRow{
					SessionID:   sessionID,
					UserID:      userID,
					QuestionID:  a.QuestionID,
					ChosenLabel: a.ChosenLabel,
					Correct:     a.Correct(),
				})
			}
			if _, err := tx.NewInsert().Model(&logs).Exec(ctx); err != nil {
				return fmt.Errorf("insert answer log: %w", err)
			}
		}

		user := new(UserRow)
		err := tx.NewSelect().Model(user).Where("u.id = ?", userID).For("UPDATE").Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrProfileNotFound
		}
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}

		user.TotalPoints += in.CorrectCount
		user.Streak = domain.NextStreak(user.Streak, user.LastActivityDate, today)
		user.LastActivityDate = &day
		if _, err := tx.NewUpdate().Model(user).
			Column("total_points", "streak", "last_activity_date").
			WherePK().
			Exec(ctx); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}

		if err := upsertCourseProgress(ctx, tx, userID, in, today); err != nil {
			return err
		}
		if err := upsertDailyStat(ctx, tx, userID, in, day); err != nil {
			return err
		}

		profile = domain.Profile{
			UserID:           user.ID,
			TotalPoints:      user.TotalPoints,
			Streak:           user.Streak,
			LastActivityDate: user.LastActivityDate,
		}
		return nil
	})
	if err != nil {
		return 0, domain.Profile{}, err
	}
	return sessionID, profile, nil
}

func upsertCourseProgress(ctx context.Context, tx bun.Tx, userID int64, in domain.SessionInput, today time.Time) error {
	accuracy := domain.Accuracy(in.CorrectCount, in.TotalCount)

	course := new(CourseProgressRow)
	err := tx.NewSelect().Model(course).
		Where("cp.user_id = ? AND cp.course_tag = ?", userID, in.CourseTag).
		For("UPDATE").
		Scan(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		course = &CourseProgressRow{
			UserID:          userID,
			CourseTag:       in.CourseTag,
			Attempted:       in.TotalCount,
			Correct:         in.CorrectCount,
			HighestAccuracy: accuracy,
			TimesCompleted:  1,
			LastPlayedAt:    today,
		}
		if _, err := tx.NewInsert().Model(course).Exec(ctx); err != nil {
			return fmt.Errorf("insert course progress: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("load course progress: %w", err)
	}

	course.Attempted += in.TotalCount
	course.Correct += in.CorrectCount
	if accuracy > course.HighestAccuracy {
		course.HighestAccuracy = accuracy
	}
	course.TimesCompleted++
	course.LastPlayedAt = today
	if _, err := tx.NewUpdate().Model(course).
		Column("attempted", "correct", "highest_accuracy", "times_completed", "last_played_at").
		WherePK().
		Exec(ctx); err != nil {
		return fmt.Errorf("update course progress: %w", err)
	}
	return nil
}

func upsertDailyStat(ctx context.Context, tx bun.Tx, userID int64, in domain.SessionInput, day time.Time) error {
	stat := new(DailyStatRow)
	err := tx.NewSelect().Model(stat).
		Where("ds.user_id = ? AND ds.day = ?", userID, day).
		For("UPDATE").
		Scan(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		stat = &DailyStatRow{
			UserID:        userID,
			Day:           day,
			Answered:      in.TotalCount,
			Correct:       in.CorrectCount,
			CompletedQuiz: true,
		}
		if _, err := tx.NewInsert().Model(stat).Exec(ctx); err != nil {
			return fmt.Errorf("insert daily stat: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("load daily stat: %w", err)
	}

	stat.Answered += in.TotalCount
	stat.Correct += in.CorrectCount
	stat.CompletedQuiz = true
	if _, err := tx.NewUpdate().Model(stat).
		Column("answered", "correct", "completed_quiz").
		Where("ds.user_id = ? AND ds.day = ?", userID, day).
		Exec(ctx); err != nil {
		return fmt.Errorf("update daily stat: %w", err)
	}
	return nil
}

// Overview reads the dashboard aggregates outside any transaction.
func (s *ProgressStore) Overview(ctx context.Context, userID int64, today time.Time) (domain.Overview, error) {
	today = today.UTC()

	user := new(UserRow)
	err := s.db.NewSelect().Model(user).Where("u.id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Overview{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Overview{}, fmt.Errorf("load profile: %w", err)
	}

	overview := domain.Overview{Profile: domain.Profile{
		UserID:           user.ID,
		TotalPoints:      user.TotalPoints,
		Streak:           user.Streak,
		LastActivityDate: user.LastActivityDate,
	}}

	var courses []CourseProgressRow
	if err := s.db.NewSelect().Model(&courses).
		Where("cp.user_id = ?", userID).
		Order("course_tag ASC").
		Scan(ctx); err != nil {
		return domain.Overview{}, fmt.Errorf("load course progress: %w", err)
	}
	for _, c := range courses {
		overview.Courses = append(overview.Courses, domain.CourseProgress{
			UserID:          c.UserID,
			CourseTag:       c.CourseTag,
			Attempted:       c.Attempted,
			Correct:         c.Correct,
			HighestAccuracy: c.HighestAccuracy,
			TimesCompleted:  c.TimesCompleted,
			LastPlayedAt:    c.LastPlayedAt,
		})
	}

	stat := new(DailyStatRow)
	err = s.db.NewSelect().Model(stat).
		Where("ds.user_id = ? AND ds.day = ?", userID, domain.Midnight(today)).
		Scan(ctx)
	if err == nil {
		overview.Today = &domain.DailyStat{
			UserID:        stat.UserID,
			Day:           stat.Day,
			Answered:      stat.Answered,
			Correct:       stat.Correct,
			CompletedQuiz: stat.CompletedQuiz,
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return domain.Overview{}, fmt.Errorf("load daily stat: %w", err)
	}
	return overview, nil
}
