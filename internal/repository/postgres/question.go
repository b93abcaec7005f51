package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
	"github.com/emrahgewer/yorumatorapp/pkg/database"
)

const (
	questionColumns = `id, product_id, user_id, body, answer_count, is_answered, created_at, updated_at`
	answerColumns   = `id, question_id, user_id, body, helpful_count, is_helpful, created_at, updated_at`
)

// QuestionRepository implements repository.QuestionRepository using PostgreSQL.
type QuestionRepository struct {
	pool database.Pool
}

// NewQuestionRepository creates a new PostgreSQL-backed question repository.
func NewQuestionRepository(pool database.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// Create inserts a question with zeroed counters.
func (r *QuestionRepository) Create(ctx context.Context, q *domain.Question) error {
	query := `
		INSERT INTO questions (` + questionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		q.ID,
		q.ProductID,
		q.UserID,
		q.Body,
		q.AnswerCount,
		q.IsAnswered,
		q.CreatedAt,
		q.UpdatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			if database.ConstraintName(err) == "questions_user_id_fkey" {
				return notFound("user", q.UserID, domain.CodeUserNotFound)
			}
			return notFound("product", q.ProductID, domain.CodeProductNotFound)
		}
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

// GetByID retrieves a question by its ID.
func (r *QuestionRepository) GetByID(ctx context.Context, id string) (*domain.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`

	q, err := scanQuestion(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("question", id, domain.CodeQuestionNotFound)
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// ListByProduct returns a product's questions newest first.
func (r *QuestionRepository) ListByProduct(ctx context.Context, productID string, offset, limit int) ([]domain.Question, int, error) {
	query := `
		SELECT ` + questionColumns + `, count(*) OVER() AS total_count
		FROM questions
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, productID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var total int
	questions := make([]domain.Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan question row: %w", err)
		}
		questions = append(questions, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate question rows: %w", err)
	}

	return questions, total, nil
}

// CreateAnswer locks the question, inserts the answer and recomputes
// answer_count and is_answered from the answers table.
func (r *QuestionRepository) CreateAnswer(ctx context.Context, a *domain.Answer) (*domain.Question, error) {
	insert := `
		INSERT INTO answers (` + answerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	recount := `
		UPDATE questions q
		SET answer_count = c.n, is_answered = c.n > 0, updated_at = NOW()
		FROM (SELECT COUNT(*) AS n FROM answers WHERE question_id = $1) c
		WHERE q.id = $1
		RETURNING q.id, q.product_id, q.user_id, q.body, q.answer_count, q.is_answered, q.created_at, q.updated_at`

	var question *domain.Question
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var id string
		if err := tx.QueryRow(ctx,
			`SELECT id FROM questions WHERE id = $1 FOR UPDATE`, a.QuestionID,
		).Scan(&id); err != nil {
			if isNoRows(err) {
				return notFound("question", a.QuestionID, domain.CodeQuestionNotFound)
			}
			return fmt.Errorf("lock question: %w", err)
		}

		if _, err := tx.Exec(ctx, insert,
			a.ID,
			a.QuestionID,
			a.UserID,
			a.Body,
			a.HelpfulCount,
			a.IsHelpful,
			a.CreatedAt,
			a.UpdatedAt,
		); err != nil {
			if database.IsForeignKeyViolation(err) {
				return notFound("user", a.UserID, domain.CodeUserNotFound)
			}
			return fmt.Errorf("insert answer: %w", err)
		}

		var err error
		question, err = scanQuestion(tx.QueryRow(ctx, recount, a.QuestionID))
		if err != nil {
			return fmt.Errorf("recount answers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return question, nil
}

// ListAnswers returns a question's answers oldest first.
func (r *QuestionRepository) ListAnswers(ctx context.Context, questionID string) ([]domain.Answer, error) {
	query := `
		SELECT ` + answerColumns + `
		FROM answers
		WHERE question_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, questionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	answers := make([]domain.Answer, 0)
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan answer row: %w", err)
		}
		answers = append(answers, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answer rows: %w", err)
	}

	return answers, nil
}

// MarkHelpful increments the helpful count. It is never decremented.
func (r *QuestionRepository) MarkHelpful(ctx context.Context, answerID string) (*domain.Answer, error) {
	query := `
		UPDATE answers
		SET helpful_count = helpful_count + 1, is_helpful = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + answerColumns

	a, err := scanAnswer(r.pool.QueryRow(ctx, query, answerID))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("answer", answerID, domain.CodeAnswerNotFound)
		}
		return nil, fmt.Errorf("mark answer helpful: %w", err)
	}
	return a, nil
}

func scanQuestion(row pgx.Row, extra ...any) (*domain.Question, error) {
	var q domain.Question
	dest := append([]any{
		&q.ID,
		&q.ProductID,
		&q.UserID,
		&q.Body,
		&q.AnswerCount,
		&q.IsAnswered,
		&q.CreatedAt,
		&q.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &q, nil
}

func scanAnswer(row pgx.Row) (*domain.Answer, error) {
	var a domain.Answer
	if err := row.Scan(
		&a.ID,
		&a.QuestionID,
		&a.UserID,
		&a.Body,
		&a.HelpfulCount,
		&a.IsHelpful,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
