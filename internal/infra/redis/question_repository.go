package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"vocab-quiz-service/internal/domain"
)

// QuestionLoader fetches question content from a backing store.
type QuestionLoader interface {
	LoadServable(ctx context.Context, difficulty string) ([]domain.Question, error)
	LoadQuestion(ctx context.Context, id int64) (domain.Question, error)
	LoadQuestions(ctx context.Context, ids []int64) ([]domain.Question, error)
}

// QuestionRepository caches question content in Redis and falls back to a
// loader on cache miss. Layout:
//
//	SET questions:servable:{difficulty} -> JSON array of questions
//	SET question:{id}                   -> JSON question
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) ListServable(ctx context.Context, difficulty string, limit int) ([]domain.Question, error) {
	key := r.servableKey(difficulty)

	if questions, ok := r.cachedList(ctx, key); ok {
		return r.sample(questions, limit), nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := r.cachedList(ctx, key); ok {
			return questions, nil
		}

		questions, err := r.loader.LoadServable(ctx, difficulty)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(questions)
		if err != nil {
			return nil, fmt.Errorf("marshal servable list: %w", err)
		}
		_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return r.sample(result.([]domain.Question), limit), nil
}

func (r *QuestionRepository) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	key := r.questionKey(id)

	if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err == nil {
			return q, nil
		}
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		q, err := r.loader.LoadQuestion(ctx, id)
		if err != nil {
			return domain.Question{}, err
		}
		if data, err := json.Marshal(q); err == nil {
			_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		}
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (r *QuestionRepository) GetQuestions(ctx context.Context, ids []int64) ([]domain.Question, error) {
	questions := make([]domain.Question, 0, len(ids))
	missing := make([]int64, 0)
	for _, id := range ids {
		raw, err := r.client.Get(ctx, r.questionKey(id)).Bytes()
		if err != nil {
			missing = append(missing, id)
			continue
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			missing = append(missing, id)
			continue
		}
		questions = append(questions, q)
	}
	if len(missing) == 0 {
		return questions, nil
	}

	loaded, err := r.loader.LoadQuestions(ctx, missing)
	if err != nil {
		return nil, err
	}
	pipe := r.client.Pipeline()
	for _, q := range loaded {
		if data, err := json.Marshal(q); err == nil {
			pipe.Set(ctx, r.questionKey(q.ID), data, r.ttlWithJitter())
		}
	}
	_, _ = pipe.Exec(ctx)
	return append(questions, loaded...), nil
}

func (r *QuestionRepository) cachedList(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, false
	}
	return questions, true
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

func (r *QuestionRepository) servableKey(difficulty string) string {
	if difficulty == "" {
		difficulty = "any"
	}
	return "questions:servable:" + difficulty
}

func (r *QuestionRepository) questionKey(id int64) string {
	return "question:" + strconv.FormatInt(id, 10)
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
