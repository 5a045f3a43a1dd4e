package postgres

import (
	"time"

	"github.com/uptrace/bun"
)

// QuestionRow mirrors the questions table. Option A is the canonical-correct
// slot; the engine only reads this table.
type QuestionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID         int64  `bun:"id,pk,autoincrement"`
	Headword   string `bun:"headword,notnull"`
	Definition string `bun:"definition,notnull,default:''"`
	Example    string `bun:"example,notnull,default:''"`
	OptionA    string `bun:"option_a,notnull"`
	OptionB    string `bun:"option_b,notnull,default:''"`
	OptionC    string `bun:"option_c,notnull,default:''"`
	OptionD    string `bun:"option_d,notnull,default:''"`
	Difficulty string `bun:"difficulty,notnull,default:'medium'"`
	Active     bool   `bun:"active,notnull,default:true"`
}

// UserRow is the per-user profile aggregate. Provisioned externally; this
// engine only updates points, streak and last activity.
type UserRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID               int64      `bun:"id,pk,autoincrement"`
	TotalPoints      int        `bun:"total_points,notnull,default:0"`
	Streak           int        `bun:"streak,notnull,default:0"`
	LastActivityDate *time.Time `bun:"last_activity_date"`
	CreatedAt        time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// QuizSessionRow is one completed quiz attempt. Immutable after insert.
type QuizSessionRow struct {
	bun.BaseModel `bun:"table:quiz_sessions,alias:qs"`

	ID              int64     `bun:"id,pk,autoincrement"`
	UserID          int64     `bun:"user_id,notnull"`
	CourseTag       string    `bun:"course_tag,notnull"`
	CorrectCount    int       `bun:"correct_count,notnull"`
	TotalCount      int       `bun:"total_count,notnull"`
	DurationSeconds int       `bun:"duration_seconds,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
}

// AnswerLogRow is one answered question within a session. Bulk-inserted
// alongside its session; immutable.
type AnswerLogRow struct {
	bun.BaseModel `bun:"table:answer_logs,alias:al"`

	ID          int64  `bun:"id,pk,autoincrement"`
	SessionID   int64  `bun:"session_id,notnull"`
	UserID      int64  `bun:"user_id,notnull"`
	QuestionID  int64  `bun:"question_id,notnull"`
	ChosenLabel string `bun:"chosen_label,notnull"`
	Correct     bool   `bun:"correct,notnull"`
}

// CourseProgressRow aggregates per (user, course tag).
type CourseProgressRow struct {
	bun.BaseModel `bun:"table:course_progress,alias:cp"`

	UserID          int64     `bun:"user_id,pk"`
	CourseTag       string    `bun:"course_tag,pk"`
	Attempted       int       `bun:"attempted,notnull,default:0"`
	Correct         int       `bun:"correct,notnull,default:0"`
	HighestAccuracy float64   `bun:"highest_accuracy,notnull,default:0"`
	TimesCompleted  int       `bun:"times_completed,notnull,default:0"`
	LastPlayedAt    time.Time `bun:"last_played_at,notnull"`
}

// DailyStatRow aggregates per (user, calendar day).
type DailyStatRow struct {
	bun.BaseModel `bun:"table:daily_stats,alias:ds"`

	UserID        int64     `bun:"user_id,pk"`
	Day           time.Time `bun:"day,pk"`
	Answered      int       `bun:"answered,notnull,default:0"`
	Correct       int       `bun:"correct,notnull,default:0"`
	CompletedQuiz bool      `bun:"completed_quiz,notnull,default:false"`
}

// WeaknessItemRow is per (user, question) weak-word state, upsert-managed.
type WeaknessItemRow struct {
	bun.BaseModel `bun:"table:weakness_items,alias:wi"`

	UserID     int64     `bun:"user_id,pk"`
	QuestionID int64     `bun:"question_id,pk"`
	Status     string    `bun:"status,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

// ReportRow is an append-only question report.
type ReportRow struct {
	bun.BaseModel `bun:"table:reports,alias:r"`

	ID         int64     `bun:"id,pk,autoincrement"`
	QuestionID int64     `bun:"question_id,notnull"`
	Reason     string    `bun:"reason,notnull"`
	Detail     string    `bun:"detail,notnull,default:''"`
	ReporterID int64     `bun:"reporter_id"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}

// ReportDismissalRow hides one report from one user. Insert-once; duplicate
// inserts resolve through the primary-key conflict.
type ReportDismissalRow struct {
	bun.BaseModel `bun:"table:report_dismissals,alias:rd"`

	UserID    int64     `bun:"user_id,pk"`
	ReportID  int64     `bun:"report_id,pk"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
