package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
	"github.com/emrahgewer/yorumatorapp/internal/event"
	"github.com/emrahgewer/yorumatorapp/internal/repository"
	apperrors "github.com/emrahgewer/yorumatorapp/pkg/errors"
	"github.com/emrahgewer/yorumatorapp/pkg/pagination"
)

// AnswerResult is a new answer together with its question's updated
// counters.
type AnswerResult struct {
	Answer   *domain.Answer   `json:"answer"`
	Question *domain.Question `json:"question"`
}

// QAService manages product questions and answers.
type QAService struct {
	questions repository.QuestionRepository
	producer  *event.Producer
	logger    *slog.Logger
}

// NewQAService creates a new Q&A service.
func NewQAService(questions repository.QuestionRepository, producer *event.Producer, logger *slog.Logger) *QAService {
	return &QAService{
		questions: questions,
		producer:  producer,
		logger:    logger,
	}
}

// CreateQuestion asks a question about a product.
func (s *QAService) CreateQuestion(ctx context.Context, productID, userID, body string) (*domain.Question, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if body == "" {
		return nil, apperrors.InvalidInput("body is required")
	}

	now := time.Now().UTC()
	q := &domain.Question{
		ID:        uuid.New().String(),
		ProductID: productID,
		UserID:    userID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.questions.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}

	s.logger.InfoContext(ctx, "question created",
		slog.String("question_id", q.ID),
		slog.String("product_id", q.ProductID),
		slog.String("user_id", q.UserID),
	)
	return q, nil
}

// ListQuestions returns a page of a product's questions, newest first.
func (s *QAService) ListQuestions(ctx context.Context, productID string, params pagination.Params) ([]domain.Question, int, error) {
	questions, total, err := s.questions.ListByProduct(ctx, productID, params.Offset, params.Limit())
	if err != nil {
		return nil, 0, fmt.Errorf("list questions: %w", err)
	}
	return questions, total, nil
}

// GetQuestion returns a question with its answers, oldest first.
func (s *QAService) GetQuestion(ctx context.Context, id string) (*domain.QuestionDetail, error) {
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	answers, err := s.questions.ListAnswers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	if answers == nil {
		answers = []domain.Answer{}
	}
	return &domain.QuestionDetail{Question: *q, Answers: answers}, nil
}

// CreateAnswer answers a question and updates its answer counters in the
// same transaction.
func (s *QAService) CreateAnswer(ctx context.Context, questionID, userID, body string) (*AnswerResult, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if body == "" {
		return nil, apperrors.InvalidInput("body is required")
	}

	now := time.Now().UTC()
	a := &domain.Answer{
		ID:         uuid.New().String(),
		QuestionID: questionID,
		UserID:     userID,
		Body:       body,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	q, err := s.questions.CreateAnswer(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("create answer: %w", err)
	}

	s.logger.InfoContext(ctx, "answer created",
		slog.String("answer_id", a.ID),
		slog.String("question_id", q.ID),
		slog.Int("answer_count", q.AnswerCount),
	)

	if err := s.producer.PublishQuestionAnswered(ctx, q, a); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish question answered event",
			slog.String("answer_id", a.ID),
			slog.String("error", err.Error()),
		)
	}

	return &AnswerResult{Answer: a, Question: q}, nil
}

// MarkHelpful increments an answer's helpful count.
func (s *QAService) MarkHelpful(ctx context.Context, answerID string) (*domain.Answer, error) {
	a, err := s.questions.MarkHelpful(ctx, answerID)
	if err != nil {
		return nil, fmt.Errorf("mark answer helpful: %w", err)
	}

	s.logger.InfoContext(ctx, "answer marked helpful",
		slog.String("answer_id", a.ID),
		slog.Int("helpful_count", a.HelpfulCount),
	)
	return a, nil
}
