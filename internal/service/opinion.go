package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
	"github.com/emrahgewer/yorumatorapp/internal/event"
	"github.com/emrahgewer/yorumatorapp/internal/repository"
)

// OpinionService toggles likes and dislikes on reviews.
type OpinionService struct {
	opinions repository.OpinionRepository
	reviews  repository.ReviewRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewOpinionService creates a new opinion service.
func NewOpinionService(
	opinions repository.OpinionRepository,
	reviews repository.ReviewRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *OpinionService {
	return &OpinionService{
		opinions: opinions,
		reviews:  reviews,
		producer: producer,
		logger:   logger,
	}
}

// SetOpinion applies isLike for userID on reviewID. Repeating the stored
// opinion clears it; the opposite opinion replaces it.
func (s *OpinionService) SetOpinion(ctx context.Context, reviewID, userID string, isLike bool) (*domain.OpinionOutcome, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}

	result, err := s.opinions.Set(ctx, reviewID, userID, isLike)
	if err != nil {
		recordToggle(relationOpinion, err)
		return nil, fmt.Errorf("set opinion: %w", err)
	}
	toggleTotal.WithLabelValues(relationOpinion, string(result)).Inc()

	outcome := &domain.OpinionOutcome{ReviewID: reviewID, Result: result}
	if result != domain.OpinionCleared {
		op := domain.OpinionFromLike(isLike)
		outcome.Opinion = &op
	}

	s.logger.InfoContext(ctx, "review opinion set",
		slog.String("review_id", reviewID),
		slog.String("user_id", userID),
		slog.String("result", string(result)),
		slog.Bool("is_like", isLike),
	)

	if isLike && result != domain.OpinionCleared && userID != review.UserID {
		if err := s.producer.PublishReviewLiked(ctx, review, userID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish review liked event",
				slog.String("review_id", reviewID),
				slog.String("error", err.Error()),
			)
		}
	}

	return outcome, nil
}

// Stats counts a review's likes and dislikes. viewerID may be empty.
func (s *OpinionService) Stats(ctx context.Context, reviewID, viewerID string) (*domain.OpinionStats, error) {
	if _, err := s.reviews.GetByID(ctx, reviewID); err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	stats, err := s.opinions.Stats(ctx, reviewID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("get opinion stats: %w", err)
	}
	return stats, nil
}
