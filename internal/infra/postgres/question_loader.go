package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"vocab-quiz-service/internal/domain"
)

const questionColumns = `id, headword, definition, example, option_a, option_b, option_c, option_d, difficulty, active`

// QuestionLoader reads question content from Postgres. The content is
// authored by an external management tool; this service only reads it.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadServable(ctx context.Context, difficulty string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE active AND ($1 = '' OR difficulty = $1)`,
		difficulty)
	if err != nil {
		return nil, fmt.Errorf("load servable questions: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func (l *QuestionLoader) LoadQuestion(ctx context.Context, id int64) (domain.Question, error) {
	row := l.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1 AND active`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("load question: %w", err)
	}
	return q, nil
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context, ids []int64) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = ANY($1) AND active`, ids)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestion(row rowScanner) (domain.Question, error) {
	var q domain.Question
	err := row.Scan(&q.ID, &q.Headword, &q.Definition, &q.Example,
		&q.Options[0], &q.Options[1], &q.Options[2], &q.Options[3],
		&q.Difficulty, &q.Active)
	return q, err
}

func scanQuestions(rows pgx.Rows) ([]domain.Question, error) {
	questions := make([]domain.Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return questions, nil
}
