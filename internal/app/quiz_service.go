package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"vocab-quiz-service/internal/domain"
)

// QuestionRepository loads question content (from cache/backing store).
type QuestionRepository interface {
	// ListServable returns up to limit active questions, optionally filtered
	// by difficulty. Content validity is NOT guaranteed; callers filter.
	ListServable(ctx context.Context, difficulty string, limit int) ([]domain.Question, error)
	// GetQuestion returns one active question or domain.ErrQuestionNotFound.
	GetQuestion(ctx context.Context, id int64) (domain.Question, error)
	// GetQuestions returns the active questions among ids, preserving order.
	GetQuestions(ctx context.Context, ids []int64) ([]domain.Question, error)
}

const (
	defaultQuestionLimit = 10
	maxQuestionLimit     = 50
)

// QuizService serves shuffled questions and validates answers.
type QuizService struct {
	questions QuestionRepository

	// rand.Rand is not safe for concurrent use; requests share one source.
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuizService(questions QuestionRepository) *QuizService {
	return NewQuizServiceWithRand(questions, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewQuizServiceWithRand is test-only for deterministic shuffles.
func NewQuizServiceWithRand(questions QuestionRepository, rnd *rand.Rand) *QuizService {
	return &QuizService{questions: questions, rnd: rnd}
}

// Questions returns up to limit presentable questions with shuffled options.
// Questions whose content violates the correct-option invariant are logged
// and dropped, never served.
func (s *QuizService) Questions(ctx context.Context, difficulty string, limit int) ([]domain.PresentedQuestion, error) {
	if limit <= 0 {
		limit = defaultQuestionLimit
	}
	if limit > maxQuestionLimit {
		limit = maxQuestionLimit
	}

	questions, err := s.questions.ListServable(ctx, difficulty, limit)
	if err != nil {
		return nil, err
	}
	return s.present(questions), nil
}

// present shuffles each valid question and drops the rest.
func (s *QuizService) present(questions []domain.Question) []domain.PresentedQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()

	presented := make([]domain.PresentedQuestion, 0, len(questions))
	for _, q := range questions {
		p, err := domain.Shuffle(q, s.rnd)
		if err != nil {
			log.Printf("excluding question %d from serving: %v", q.ID, err)
			continue
		}
		presented = append(presented, p)
	}
	return presented
}

// ValidateAnswer checks a chosen label against the canonical answer. Pure
// read: nothing is persisted here, answers are recorded in bulk when the
// session finishes.
func (s *QuizService) ValidateAnswer(ctx context.Context, questionID int64, chosenLabel string) (domain.ValidationResult, error) {
	if !domain.ValidLabel(chosenLabel) {
		return domain.ValidationResult{}, fmt.Errorf("%w: label %q", domain.ErrInvalidInput, chosenLabel)
	}

	q, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.ValidationResult{}, err
	}
	if q.Options[0] == "" {
		// Content-authoring defect: surfaced, not silently patched.
		return domain.ValidationResult{}, fmt.Errorf("question %d: %w", q.ID, domain.ErrCorruptQuestion)
	}

	return domain.ValidationResult{
		Correct:      chosenLabel == domain.CorrectLabel,
		CorrectLabel: domain.CorrectLabel,
		CorrectText:  q.Options[0],
		Explanation:  explain(q),
	}, nil
}

func explain(q domain.Question) string {
	if q.Example != "" {
		return fmt.Sprintf("%q means %s, as in: %s", q.Headword, q.Definition, q.Example)
	}
	return fmt.Sprintf("%q means %s", q.Headword, q.Definition)
}

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrQuestionNotFound) ||
		errors.Is(err, domain.ErrProfileNotFound) ||
		errors.Is(err, domain.ErrReportNotFound)
}
