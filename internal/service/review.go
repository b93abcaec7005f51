package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
	"github.com/emrahgewer/yorumatorapp/internal/event"
	"github.com/emrahgewer/yorumatorapp/internal/moderation"
	"github.com/emrahgewer/yorumatorapp/internal/repository"
	"github.com/emrahgewer/yorumatorapp/pkg/database"
	apperrors "github.com/emrahgewer/yorumatorapp/pkg/errors"
	"github.com/emrahgewer/yorumatorapp/pkg/pagination"
)

// Bounds of the rating refresh retry loop.
const (
	MinRatingRefreshAttempts = 1
	MaxRatingRefreshAttempts = 3
)

// CreateReviewInput holds the parameters for creating a review.
type CreateReviewInput struct {
	ProductID string
	UserID    string
	Rating    int
	Title     string
	Body      string
	Pros      []string
	Cons      []string
}

// ReviewWithRating is a review write together with the product aggregate it
// produced.
type ReviewWithRating struct {
	Review *domain.Review        `json:"review"`
	Rating *domain.ProductRating `json:"rating"`
}

// Viewer identifies who is reading reviews. Only approved reviews are public;
// authors see their own reviews in any status and admins see everything.
type Viewer struct {
	UserID string
	Admin  bool
}

func (v Viewer) canSee(r *domain.Review) bool {
	return r.Status == domain.ReviewStatusApproved || v.Admin || (v.UserID != "" && v.UserID == r.UserID)
}

// ReviewService creates and moderates reviews and keeps the product rating
// aggregate consistent with them.
type ReviewService struct {
	reviews     repository.ReviewRepository
	products    repository.ProductRepository
	scorer      moderation.Scorer
	producer    *event.Producer
	maxAttempts int
	logger      *slog.Logger
}

// NewReviewService creates a new review service. maxAttempts is clamped to
// 1..3.
func NewReviewService(
	reviews repository.ReviewRepository,
	products repository.ProductRepository,
	scorer moderation.Scorer,
	producer *event.Producer,
	maxAttempts int,
	logger *slog.Logger,
) *ReviewService {
	if scorer == nil {
		scorer = moderation.Noop{}
	}
	return &ReviewService{
		reviews:     reviews,
		products:    products,
		scorer:      scorer,
		producer:    producer,
		maxAttempts: min(max(maxAttempts, MinRatingRefreshAttempts), MaxRatingRefreshAttempts),
		logger:      logger,
	}
}

// CreateReview scores the text, stores the review and refreshes the product
// rating in one transaction.
func (s *ReviewService) CreateReview(ctx context.Context, input *CreateReviewInput) (*ReviewWithRating, error) {
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product_id is required")
	}
	if input.UserID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if !domain.IsValidRating(input.Rating) {
		return nil, apperrors.InvalidInput("rating must be between 1 and 5").WithCode(domain.CodeInvalidRating)
	}

	verdict, err := s.scorer.Score(ctx, reviewText(input.Title, input.Body))
	if err != nil {
		s.logger.WarnContext(ctx, "moderation unavailable, holding review for manual moderation",
			slog.String("product_id", input.ProductID),
			slog.String("error", err.Error()),
		)
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:         uuid.New().String(),
		ProductID:  input.ProductID,
		UserID:     input.UserID,
		Rating:     input.Rating,
		Title:      input.Title,
		Body:       input.Body,
		Pros:       nonNil(input.Pros),
		Cons:       nonNil(input.Cons),
		Status:     verdict.InitialStatus(),
		Moderation: &verdict,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var rating *domain.ProductRating
	err = s.withRatingRetry(ctx, slog.String("product_id", review.ProductID), func() error {
		var err error
		rating, err = s.reviews.Create(ctx, review)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
		slog.String("user_id", review.UserID),
		slog.Int("rating", review.Rating),
		slog.String("status", string(review.Status)),
	)

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	return &ReviewWithRating{Review: review, Rating: rating}, nil
}

// GetReview retrieves a review by its ID. A review the viewer may not see is
// reported as not found.
func (s *ReviewService) GetReview(ctx context.Context, id string, viewer Viewer) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if !viewer.canSee(review) {
		return nil, apperrors.NotFound("review", id).WithCode(domain.CodeReviewNotFound)
	}
	return review, nil
}

// ListProductReviews returns a page of a product's reviews. Non-admins only
// ever see approved reviews; an empty status lists approved reviews for them
// and every status for admins.
func (s *ReviewService) ListProductReviews(ctx context.Context, productID, status string, viewer Viewer, params pagination.Params) ([]domain.Review, int, error) {
	if status != "" && !domain.IsValidReviewStatus(status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid review status %q", status)).WithCode(domain.CodeInvalidStatus)
	}

	var filter *domain.ReviewStatus
	switch {
	case viewer.Admin:
		if status != "" {
			st := domain.ReviewStatus(status)
			filter = &st
		}
	case status == "" || status == string(domain.ReviewStatusApproved):
		approved := domain.ReviewStatusApproved
		filter = &approved
	default:
		return nil, 0, apperrors.Forbidden(fmt.Sprintf("%s reviews are visible to moderators only", status)).WithCode(domain.CodeStatusNotVisible)
	}

	reviews, total, err := s.reviews.ListByProduct(ctx, productID, filter, params.Offset, params.Limit())
	if err != nil {
		return nil, 0, fmt.Errorf("list product reviews: %w", err)
	}
	return reviews, total, nil
}

// ListUserReviews returns a page of the reviews userID wrote, in every status.
func (s *ReviewService) ListUserReviews(ctx context.Context, userID string, params pagination.Params) ([]domain.Review, int, error) {
	reviews, total, err := s.reviews.ListByUser(ctx, userID, params.Offset, params.Limit())
	if err != nil {
		return nil, 0, fmt.Errorf("list user reviews: %w", err)
	}
	return reviews, total, nil
}

// UpdateReviewStatus moves a review to status and refreshes the product
// rating in the same transaction.
func (s *ReviewService) UpdateReviewStatus(ctx context.Context, id, status string) (*ReviewWithRating, error) {
	if !domain.IsValidReviewStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid review status %q", status)).WithCode(domain.CodeInvalidStatus)
	}

	var change *repository.StatusChange
	err := s.withRatingRetry(ctx, slog.String("review_id", id), func() error {
		var err error
		change, err = s.reviews.UpdateStatus(ctx, id, domain.ReviewStatus(status))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update review status: %w", err)
	}

	s.logger.InfoContext(ctx, "review status updated",
		slog.String("review_id", id),
		slog.String("product_id", change.Review.ProductID),
		slog.String("previous_status", string(change.Previous)),
		slog.String("status", status),
	)

	if change.Previous != change.Review.Status {
		if err := s.producer.PublishReviewStatusChanged(ctx, change.Review, change.Previous); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish review status changed event",
				slog.String("review_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	return &ReviewWithRating{Review: change.Review, Rating: change.Rating}, nil
}

// DeleteReview removes the caller's own review and refreshes the product
// rating.
func (s *ReviewService) DeleteReview(ctx context.Context, id, userID string) (*domain.ProductRating, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if review.UserID != userID {
		return nil, apperrors.Forbidden("only the author can delete a review").WithCode(domain.CodeNotReviewOwner)
	}

	var rating *domain.ProductRating
	err = s.withRatingRetry(ctx, slog.String("product_id", review.ProductID), func() error {
		var err error
		rating, err = s.reviews.Delete(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("delete review: %w", err)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", id),
		slog.String("product_id", review.ProductID),
	)

	return rating, nil
}

// GetProductRating returns the stored rating aggregate.
func (s *ReviewService) GetProductRating(ctx context.Context, productID string) (*domain.ProductRating, error) {
	rating, err := s.products.GetRating(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product rating: %w", err)
	}
	return rating, nil
}

// RefreshProductRating recomputes the aggregate from the approved reviews.
func (s *ReviewService) RefreshProductRating(ctx context.Context, productID string) (*domain.ProductRating, error) {
	var rating *domain.ProductRating
	err := s.withRatingRetry(ctx, slog.String("product_id", productID), func() error {
		var err error
		rating, err = s.products.RefreshRating(ctx, productID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("refresh product rating: %w", err)
	}

	s.logger.InfoContext(ctx, "product rating refreshed",
		slog.String("product_id", productID),
		slog.Int("review_count", rating.ReviewCount),
	)
	return rating, nil
}

// withRatingRetry runs a transaction that refreshes the rating aggregate and
// re-runs it when PostgreSQL aborted it for a concurrency conflict.
func (s *ReviewService) withRatingRetry(ctx context.Context, subject slog.Attr, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			ratingRefreshTotal.WithLabelValues(refreshOK).Inc()
			return nil
		}
		if !database.IsRetryable(err) {
			ratingRefreshTotal.WithLabelValues(refreshFailed).Inc()
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			ratingRefreshTotal.WithLabelValues(refreshFailed).Inc()
			return ctxErr
		}
		if attempt < s.maxAttempts {
			ratingRefreshRetries.Inc()
			s.logger.WarnContext(ctx, "rating refresh transaction conflicted, retrying",
				subject,
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
		}
	}

	ratingRefreshTotal.WithLabelValues(refreshExhausted).Inc()
	s.logger.ErrorContext(ctx, "rating refresh retries exhausted",
		subject,
		slog.Int("attempts", s.maxAttempts),
		slog.String("error", err.Error()),
	)
	return apperrors.Internal(err).WithCode(domain.CodeRatingRefreshFailed)
}

func reviewText(title, body string) string {
	return strings.TrimSpace(title + "\n\n" + body)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
