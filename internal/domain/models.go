package domain

import "time"

// OptionCount is the fixed number of answer options per question.
const OptionCount = 4

// CorrectLabel is the letter of the canonical-correct slot. Correctness is
// tracked by original slot label, never by presented position, so the
// validator does not need to know the shuffle permutation.
const CorrectLabel = "A"

// Labels maps an option slot index to its letter.
var Labels = [OptionCount]string{"A", "B", "C", "D"}

// Question is vocabulary-quiz content. Slot 0 always holds the correct
// option text; slots 1-3 are distractors. Content is authored elsewhere and
// read-only here.
type Question struct {
	ID         int64               `json:"id"`
	Headword   string              `json:"headword"`
	Definition string              `json:"definition"`
	Example    string              `json:"example"`
	Options    [OptionCount]string `json:"options"`
	Difficulty string              `json:"difficulty"`
	Active     bool                `json:"active"`
}

// Validate reports whether the question is servable: the canonical option
// must be present and at least two options must have text.
func (q Question) Validate() error {
	if q.Options[0] == "" {
		return ErrCorruptQuestion
	}
	filled := 0
	for _, opt := range q.Options {
		if opt != "" {
			filled++
		}
	}
	if filled < 2 {
		return ErrCorruptQuestion
	}
	return nil
}

// PresentedOption is one answer choice as shown to the client. Label is the
// letter of the option's ORIGINAL slot, not its shuffled position.
type PresentedOption struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// PresentedQuestion is the per-request view of a question: prompt material
// plus options in shuffled order. It is never persisted and carries no
// correct-answer indicator.
type PresentedQuestion struct {
	QuestionID int64             `json:"questionId"`
	Headword   string            `json:"headword"`
	Definition string            `json:"definition"`
	Example    string            `json:"example"`
	Options    []PresentedOption `json:"options"`
}

// ValidationResult explains the outcome of checking one answer.
type ValidationResult struct {
	Correct      bool   `json:"correct"`
	CorrectLabel string `json:"correctLabel"`
	CorrectText  string `json:"correctText"`
	Explanation  string `json:"explanation"`
}

// SessionAnswer is one answered question inside a finished session.
type SessionAnswer struct {
	QuestionID  int64  `json:"questionId"`
	ChosenLabel string `json:"chosenLabel"`
}

// Correct reports whether the answer picked the canonical slot.
func (a SessionAnswer) Correct() bool {
	return a.ChosenLabel == CorrectLabel
}

// SessionInput is everything the client reports when a quiz finishes.
type SessionInput struct {
	CourseTag       string          `json:"courseTag"`
	CorrectCount    int             `json:"correctCount"`
	TotalCount      int             `json:"totalCount"`
	DurationSeconds int             `json:"durationSeconds"`
	Answers         []SessionAnswer `json:"answers"`
}

// Profile holds per-user running totals, mutated only by session recording.
type Profile struct {
	UserID           int64      `json:"userId"`
	TotalPoints      int        `json:"totalPoints"`
	Streak           int        `json:"streak"`
	LastActivityDate *time.Time `json:"lastActivityDate,omitempty"`
}

// CourseProgress aggregates results per (user, course tag).
type CourseProgress struct {
	UserID          int64     `json:"userId"`
	CourseTag       string    `json:"courseTag"`
	Attempted       int       `json:"attempted"`
	Correct         int       `json:"correct"`
	HighestAccuracy float64   `json:"highestAccuracy"`
	TimesCompleted  int       `json:"timesCompleted"`
	LastPlayedAt    time.Time `json:"lastPlayedAt"`
}

// DailyStat aggregates results per (user, calendar day).
type DailyStat struct {
	UserID        int64     `json:"userId"`
	Day           time.Time `json:"day"`
	Answered      int       `json:"answered"`
	Correct       int       `json:"correct"`
	CompletedQuiz bool      `json:"completedQuiz"`
}

// Weakness item statuses. An item is never hard-deleted; removal is a
// status transition so re-adding stays a plain upsert.
const (
	WeaknessManualAdd     = "active_manual_add"
	WeaknessRemovedManual = "removed_manual"
	// WeaknessAutoAdd is reserved for system-detected weak words.
	WeaknessAutoAdd = "active_auto_add"
)

// WeaknessItem is per (user, question) override state for the personal
// weak-words set.
type WeaknessItem struct {
	UserID     int64     `json:"userId"`
	QuestionID int64     `json:"questionId"`
	Status     string    `json:"status"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Active reports whether the item belongs in the weak-words training set.
func (w WeaknessItem) Active() bool {
	return w.Status == WeaknessManualAdd || w.Status == WeaknessAutoAdd
}

// Report is a user's flag on a question. Append-only.
type Report struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"questionId"`
	Reason     string    `json:"reason"`
	Detail     string    `json:"detail,omitempty"`
	ReporterID int64     `json:"reporterId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ProgressUpdate is pushed to feed subscribers after a session commits.
type ProgressUpdate struct {
	UserID       int64     `json:"userId"`
	SessionID    int64     `json:"sessionId,omitempty"`
	TotalPoints  int       `json:"totalPoints"`
	Streak       int       `json:"streak"`
	LastActivity time.Time `json:"lastActivity"`
}

// Overview is the dashboard read model: profile plus per-course and
// today's aggregates.
type Overview struct {
	Profile Profile          `json:"profile"`
	Courses []CourseProgress `json:"courses"`
	Today   *DailyStat       `json:"today,omitempty"`
}

// Accuracy computes correct/total, treating an empty session as 0 rather
// than dividing by zero.
func Accuracy(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total)
}
