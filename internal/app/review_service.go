package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"vocab-quiz-service/internal/domain"
)

// ReviewStore persists weakness items, reports, and dismissals. All write
// operations are idempotent: re-adding an active item, re-removing an absent
// one, and re-dismissing a report are all success no-ops.
type ReviewStore interface {
	UpsertWeakness(ctx context.Context, userID, questionID int64, status string, at time.Time) error
	ActiveWeaknessQuestionIDs(ctx context.Context, userID int64) ([]int64, error)
	CreateReport(ctx context.Context, report domain.Report) (int64, error)
	// DismissReport hides one report from one user. Unknown report ids return
	// domain.ErrReportNotFound; duplicate dismissals return nil.
	DismissReport(ctx context.Context, userID, reportID int64) error
	// OpenReports returns the user's own non-dismissed reports, oldest first.
	OpenReports(ctx context.Context, userID int64) ([]domain.Report, error)
}

// ReportedQuestion pairs a review-mode question with the report that makes
// it dismissable.
type ReportedQuestion struct {
	ReportID int64                    `json:"reportId"`
	Question domain.PresentedQuestion `json:"question"`
}

// ReviewService manages the personal weak-words set and question reports,
// and builds the question sets for the two review quiz modes.
type ReviewService struct {
	store     ReviewStore
	questions QuestionRepository
	quiz      *QuizService
	now       func() time.Time
}

func NewReviewService(store ReviewStore, questions QuestionRepository, quiz *QuizService) *ReviewService {
	return NewReviewServiceWithClock(store, questions, quiz, time.Now)
}

// NewReviewServiceWithClock is test-only for deterministic timestamps.
func NewReviewServiceWithClock(store ReviewStore, questions QuestionRepository, quiz *QuizService, now func() time.Time) *ReviewService {
	return &ReviewService{store: store, questions: questions, quiz: quiz, now: now}
}

// AddWeakness marks a question as a personal weak word. Idempotent.
func (s *ReviewService) AddWeakness(ctx context.Context, userID, questionID int64) error {
	if questionID <= 0 {
		return fmt.Errorf("%w: question id required", domain.ErrInvalidInput)
	}
	// The question must exist; a weak-word entry for deleted content would
	// never surface in training anyway.
	if _, err := s.questions.GetQuestion(ctx, questionID); err != nil {
		return err
	}
	return s.store.UpsertWeakness(ctx, userID, questionID, domain.WeaknessManualAdd, s.now())
}

// RemoveWeakness transitions an item to removed_manual. Removing an absent
// or already-removed item succeeds: the end state is indistinguishable.
func (s *ReviewService) RemoveWeakness(ctx context.Context, userID, questionID int64) error {
	if questionID <= 0 {
		return fmt.Errorf("%w: question id required", domain.ErrInvalidInput)
	}
	return s.store.UpsertWeakness(ctx, userID, questionID, domain.WeaknessRemovedManual, s.now())
}

// WeaknessQuestions builds the weakness-training set: active weak items
// resolved to full content, shuffled, invalid content dropped.
func (s *ReviewService) WeaknessQuestions(ctx context.Context, userID int64) ([]domain.PresentedQuestion, error) {
	ids, err := s.store.ActiveWeaknessQuestionIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.PresentedQuestion{}, nil
	}
	questions, err := s.questions.GetQuestions(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.quiz.present(questions), nil
}

// SubmitReport files a new report. Append-only: the same user reporting the
// same question twice produces two rows.
func (s *ReviewService) SubmitReport(ctx context.Context, userID, questionID int64, reason, detail string) (int64, error) {
	if questionID <= 0 {
		return 0, fmt.Errorf("%w: question id required", domain.ErrInvalidInput)
	}
	if reason == "" {
		return 0, fmt.Errorf("%w: reason required", domain.ErrInvalidInput)
	}
	if _, err := s.questions.GetQuestion(ctx, questionID); err != nil {
		return 0, err
	}
	return s.store.CreateReport(ctx, domain.Report{
		QuestionID: questionID,
		Reason:     reason,
		Detail:     detail,
		ReporterID: userID,
		CreatedAt:  s.now(),
	})
}

// DismissReport hides a report from the user's review view. Dismissing the
// same report twice succeeds both times.
func (s *ReviewService) DismissReport(ctx context.Context, userID, reportID int64) error {
	if reportID <= 0 {
		return fmt.Errorf("%w: report id required", domain.ErrInvalidInput)
	}
	return s.store.DismissReport(ctx, userID, reportID)
}

// ReportedQuestions builds the reported-question review set. A question
// reported more than once collapses to a single entry keyed by the first
// matching report id, so one dismissal clears it from the set.
func (s *ReviewService) ReportedQuestions(ctx context.Context, userID int64) ([]ReportedQuestion, error) {
	reports, err := s.store.OpenReports(ctx, userID)
	if err != nil {
		return nil, err
	}

	firstReport := make(map[int64]int64, len(reports))
	ids := make([]int64, 0, len(reports))
	for _, r := range reports {
		if _, seen := firstReport[r.QuestionID]; seen {
			continue
		}
		firstReport[r.QuestionID] = r.ID
		ids = append(ids, r.QuestionID)
	}
	if len(ids) == 0 {
		return []ReportedQuestion{}, nil
	}

	questions, err := s.questions.GetQuestions(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]ReportedQuestion, 0, len(questions))
	for _, q := range questions {
		presented := s.quiz.present([]domain.Question{q})
		if len(presented) == 0 {
			log.Printf("excluding reported question %d from review: invalid content", q.ID)
			continue
		}
		entries = append(entries, ReportedQuestion{
			ReportID: firstReport[q.ID],
			Question: presented[0],
		})
	}
	return entries, nil
}
