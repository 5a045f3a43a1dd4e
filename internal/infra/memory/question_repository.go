package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"vocab-quiz-service/internal/domain"
)

// QuestionLoader fetches question content from a backing store.
type QuestionLoader interface {
	// LoadServable returns every active question for a difficulty ("" = all).
	LoadServable(ctx context.Context, difficulty string) ([]domain.Question, error)
	LoadQuestion(ctx context.Context, id int64) (domain.Question, error)
	LoadQuestions(ctx context.Context, ids []int64) ([]domain.Question, error)
}

// QuestionRepository caches servable question lists with TTL to avoid
// repeated store hits, and samples random subsets for serving.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	lists map[string]cachedList
}

type cachedList struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		lists:  make(map[string]cachedList),
	}
}

func (r *QuestionRepository) ListServable(ctx context.Context, difficulty string, limit int) ([]domain.Question, error) {
	questions, err := r.servable(ctx, difficulty)
	if err != nil {
		return nil, err
	}
	return r.sample(questions, limit), nil
}

func (r *QuestionRepository) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	return r.loader.LoadQuestion(ctx, id)
}

func (r *QuestionRepository) GetQuestions(ctx context.Context, ids []int64) ([]domain.Question, error) {
	return r.loader.LoadQuestions(ctx, ids)
}

func (r *QuestionRepository) servable(ctx context.Context, difficulty string) ([]domain.Question, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.lists[difficulty]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.questions, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(difficulty, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.lists[difficulty]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.questions, nil
		}
		r.mu.RUnlock()

		questions, err := r.loader.LoadServable(ctx, difficulty)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.lists[difficulty] = cachedList{
			questions: questions,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// sample picks up to limit questions without repeats, in random order.
func (r *QuestionRepository) sample(questions []domain.Question, limit int) []domain.Question {
	r.mu.Lock()
	perm := r.rnd.Perm(len(questions))
	r.mu.Unlock()

	if limit > len(questions) {
		limit = len(questions)
	}
	picked := make([]domain.Question, 0, limit)
	for _, idx := range perm[:limit] {
		picked = append(picked, questions[idx])
	}
	return picked
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader is a loader backed by an in-memory map (useful for
// tests/demos).
type StaticQuestionLoader struct {
	questions map[int64]domain.Question
}

func NewStaticQuestionLoader(questions map[int64]domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadServable(_ context.Context, difficulty string) ([]domain.Question, error) {
	matched := make([]domain.Question, 0, len(l.questions))
	for _, q := range l.questions {
		if !q.Active {
			continue
		}
		if difficulty != "" && q.Difficulty != difficulty {
			continue
		}
		matched = append(matched, q)
	}
	return matched, nil
}

func (l *StaticQuestionLoader) LoadQuestion(_ context.Context, id int64) (domain.Question, error) {
	if q, ok := l.questions[id]; ok && q.Active {
		return q, nil
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context, ids []int64) ([]domain.Question, error) {
	matched := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := l.questions[id]; ok && q.Active {
			matched = append(matched, q)
		}
	}
	return matched, nil
}
