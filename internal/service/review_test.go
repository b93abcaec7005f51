package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
	"github.com/emrahgewer/yorumatorapp/internal/event"
	"github.com/emrahgewer/yorumatorapp/internal/repository"
	apperrors "github.com/emrahgewer/yorumatorapp/pkg/errors"
	"github.com/emrahgewer/yorumatorapp/pkg/pagination"
)

type reviewFixture struct {
	svc      *ReviewService
	reviews  *mockReviewRepository
	products *mockProductRepository
	scorer   *fakeScorer
	writer   *recordingWriter
}

func newReviewFixture(maxAttempts int) *reviewFixture {
	f := &reviewFixture{
		reviews:  new(mockReviewRepository),
		products: new(mockProductRepository),
		scorer:   &fakeScorer{},
		writer:   &recordingWriter{},
	}
	f.svc = NewReviewService(f.reviews, f.products, f.scorer, newTestProducer(f.writer), maxAttempts, newTestLogger())
	return f
}

func validReviewInput() *CreateReviewInput {
	return &CreateReviewInput{
		ProductID: "prod-1",
		UserID:    "user-1",
		Rating:    5,
		Title:     "Great",
		Body:      "Works as advertised.",
	}
}

// ============================================================================
// CreateReview
// ============================================================================

func TestCreateReview_ApprovedByScorer(t *testing.T) {
	f := newReviewFixture(3)
	ctx := context.Background()

	f.reviews.On("Create", ctx, mock.MatchedBy(func(r *domain.Review) bool {
		return r.Status == domain.ReviewStatusApproved && r.Rating == 5 && r.Pros != nil && r.Cons != nil
	})).Return(ratingPtr(4.5, 2), nil)

	got, err := f.svc.CreateReview(ctx, validReviewInput())

	require.NoError(t, err)
	assert.NotEmpty(t, got.Review.ID)
	assert.Equal(t, domain.ReviewStatusApproved, got.Review.Status)
	assert.Equal(t, 2, got.Rating.ReviewCount)
	assert.Equal(t, []string{"Great\n\nWorks as advertised."}, f.scorer.texts)
	assert.Equal(t, []string{event.TopicReviewCreated}, f.writer.topics())
	f.reviews.AssertExpectations(t)
}

func TestCreateReview_FlaggedGoesPending(t *testing.T) {
	f := newReviewFixture(3)
	f.scorer.verdict = domain.ModerationVerdict{Toxicity: 0.92, RequiresReview: true}
	ctx := context.Background()

	f.reviews.On("Create", ctx, mock.MatchedBy(func(r *domain.Review) bool {
		return r.Status == domain.ReviewStatusPending && r.Moderation.Toxicity == 0.92
	})).Return(&domain.ProductRating{ProductID: "prod-1"}, nil)

	got, err := f.svc.CreateReview(ctx, validReviewInput())

	require.NoError(t, err)
	assert.Equal(t, domain.ReviewStatusPending, got.Review.Status)
	assert.Nil(t, got.Rating.AverageRating)
}

func TestCreateReview_ScorerUnavailableGoesPending(t *testing.T) {
	f := newReviewFixture(3)
	f.scorer.verdict = domain.ModerationVerdict{RequiresReview: true, Fallback: true}
	f.scorer.err = errors.New("circuit breaker is open")
	ctx := context.Background()

	f.reviews.On("Create", ctx, mock.AnythingOfType("*domain.Review")).Return(&domain.ProductRating{ProductID: "prod-1"}, nil)

	got, err := f.svc.CreateReview(ctx, validReviewInput())

	require.NoError(t, err)
	assert.Equal(t, domain.ReviewStatusPending, got.Review.Status)
	assert.True(t, got.Review.Moderation.Fallback)
}

func TestCreateReview_InvalidRating(t *testing.T) {
	for _, rating := range []int{0, 6, -1} {
		f := newReviewFixture(3)
		in := validReviewInput()
		in.Rating = rating

		got, err := f.svc.CreateReview(context.Background(), in)

		assert.Nil(t, got)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, domain.CodeInvalidRating, appErr.Code)
		f.reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Empty(t, f.scorer.texts)
	}
}

func TestCreateReview_MissingIDs(t *testing.T) {
	f := newReviewFixture(3)

	in := validReviewInput()
	in.ProductID = ""
	_, err := f.svc.CreateReview(context.Background(), in)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	in = validReviewInput()
	in.UserID = ""
	_, err = f.svc.CreateReview(context.Background(), in)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateReview_RetriesSerializationFailure(t *testing.T) {
	f := newReviewFixture(3)
	ctx := context.Background()
	retries := counterValue(t, ratingRefreshRetries)

	f.reviews.On("Create", ctx, mock.AnythingOfType("*domain.Review")).Return(nil, retryableErr()).Once()
	f.reviews.On("Create", ctx, mock.AnythingOfType("*domain.Review")).Return(ratingPtr(5, 1), nil).Once()

	got, err := f.svc.CreateReview(ctx, validReviewInput())

	require.NoError(t, err)
	assert.Equal(t, 1, got.Rating.ReviewCount)
	f.reviews.AssertNumberOfCalls(t, "Create", 2)
	assert.InDelta(t, retries+1, counterValue(t, ratingRefreshRetries), 0.001)
	assert.Len(t, f.writer.topics(), 1)
}

func TestCreateReview_RetriesExhausted(t *testing.T) {
	f := newReviewFixture(3)
	ctx := context.Background()
	exhausted := counterValue(t, ratingRefreshTotal.WithLabelValues(refreshExhausted))

	f.reviews.On("Create", ctx, mock.AnythingOfType("*domain.Review")).Return(nil, deadlockErr())

	got, err := f.svc.CreateReview(ctx, validReviewInput())

	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrInternal)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeRatingRefreshFailed, appErr.Code)
	f.reviews.AssertNumberOfCalls(t, "Create", 3)
	assert.InDelta(t, exhausted+1, counterValue(t, ratingRefreshTotal.WithLabelValues(refreshExhausted)), 0.001)
	assert.Empty(t, f.writer.topics())
}

func TestCreateReview_NonRetryableErrorIsNotRetried(t *testing.T) {
	f := newReviewFixture(3)
	ctx := context.Background()
	notFound := apperrors.NotFound("product", "prod-1").WithCode(domain.CodeProductNotFound)

	f.reviews.On("Create", ctx, mock.AnythingOfType("*domain.Review")).Return(nil, notFound)

	_, err := f.svc.CreateReview(ctx, validReviewInput())

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	f.reviews.AssertNumberOfCalls(t, "Create", 1)
}

func TestCreateReview_PublishFailureDoesNotFailWrite(t *testing.T) {
	f := newReviewFixture(3)
	f.writer.err = errors.New("broker down")
	ctx := context.Background()

	f.reviews.On("Create", ctx, mock.AnythingOfType("*domain.Review")).Return(ratingPtr(5, 1), nil)

	got, err := f.svc.CreateReview(ctx, validReviewInput())

	require.NoError(t, err)
	assert.NotNil(t, got.Review)
}

func TestNewReviewService_ClampsAttempts(t *testing.T) {
	assert.Equal(t, 1, newReviewFixture(0).svc.maxAttempts)
	assert.Equal(t, 2, newReviewFixture(2).svc.maxAttempts)
	assert.Equal(t, 3, newReviewFixture(10).svc.maxAttempts)
}

func TestCreateReview_SingleAttemptDoesNotRetry(t *testing.T) {
	f := newReviewFixture(1)
	ctx := context.Background()

	f.reviews.On("Create", ctx, mock.AnythingOfType("*domain.Review")).Return(nil, retryableErr())

	_, err := f.svc.CreateReview(ctx, validReviewInput())

	assert.ErrorIs(t, err, apperrors.ErrInternal)
	f.reviews.AssertNumberOfCalls(t, "Create", 1)
}

// ============================================================================
// Status changes, deletes, reads
// ============================================================================

func TestUpdateReviewStatus_PublishesWhenChanged(t *testing.T) {
	f := newReviewFixture(3)
	ctx := context.Background()
	review := &domain.Review{ID: "rev-1", ProductID: "prod-1", UserID: "user-1", Rating: 1, Status: domain.ReviewStatusApproved}

	f.reviews.On("UpdateStatus", ctx, "rev-1", domain.ReviewStatusApproved).Return(&repository.StatusChange{
		Review:   review,
		Previous: domain.ReviewStatusPending,
		Rating:   ratingPtr(3.33, 3),
	}, nil)

	got, err := f.svc.UpdateReviewStatus(ctx, "rev-1", "approved")

	require.NoError(t, err)
	assert.Equal(t, 3.33, *got.Rating.AverageRating)
	assert.Equal(t, 3, got.Rating.ReviewCount)
	assert.Equal(t, []string{event.TopicReviewStatusChanged}, f.writer.topics())
}

func TestUpdateReviewStatus_SameStatusIsSilent(t *testing.T) {
	f := newReviewFixture(3)
	ctx := context.Background()
	review := &domain.Review{ID: "rev-1", ProductID: "prod-1", Status: domain.ReviewStatusRejected}

	f.reviews.On("UpdateStatus", ctx, "rev-1", domain.ReviewStatusRejected).Return(&repository.StatusChange{
		Review:   review,
		Previous: domain.ReviewStatusRejected,
		Rating:   &domain.ProductRating{ProductID: "prod-1"},
	}, nil)

	_, err := f.svc.UpdateReviewStatus(ctx, "rev-1", "rejected")

	require.NoError(t, err)
	assert.Empty(t, f.writer.topics())
}

func TestUpdateReviewStatus_InvalidStatus(t *testing.T) {
	f := newReviewFixture(3)

	_, err := f.svc.UpdateReviewStatus(context.Background(), "rev-1", "published")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeInvalidStatus, appErr.Code)
	f.reviews.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateReviewStatus_RetriesDeadlock(t *testing.T) {
	f := newReviewFixture(2)
	ctx := context.Background()
	review := &domain.Review{ID: "rev-1", ProductID: "prod-1", Status: domain.ReviewStatusApproved}

	f.reviews.On("UpdateStatus", ctx, "rev-1", domain.ReviewStatusApproved).Return(nil, deadlockErr()).Once()
	f.reviews.On("UpdateStatus", ctx, "rev-1", domain.ReviewStatusApproved).Return(&repository.StatusChange{
		Review: review, Previous: domain.ReviewStatusPending, Rating: ratingPtr(4, 1),
	}, nil).Once()

	_, err := f.svc.UpdateReviewStatus(ctx, "rev-1", "approved")

	require.NoError(t, err)
	f.reviews.AssertNumberOfCalls(t, "UpdateStatus", 2)
}

func TestDeleteReview_Owner(t *testing.T) {
	f := newReviewFixture(3)
	ctx := context.Background()

	f.reviews.On("GetByID", ctx, "rev-1").Return(&domain.Review{ID: "rev-1", ProductID: "prod-1", UserID: "user-1"}, nil)
	f.reviews.On("Delete", ctx, "rev-1").Return(&domain.ProductRating{ProductID: "prod-1"}, nil)

	rating, err := f.svc.DeleteReview(ctx, "rev-1", "user-1")

	require.NoError(t, err)
	assert.Equal(t, 0, rating.ReviewCount)
	assert.Nil(t, rating.AverageRating)
}

func TestDeleteReview_NotOwner(t *testing.T) {
	f := newReviewFixture(3)
	ctx := context.Background()

	f.reviews.On("GetByID", ctx, "rev-1").Return(&domain.Review{ID: "rev-1", UserID: "user-1"}, nil)

	_, err := f.svc.DeleteReview(ctx, "rev-1", "user-2")

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeNotReviewOwner, appErr.Code)
	f.reviews.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteReview_NotFound(t *testing.T) {
	f := newReviewFixture(3)
	ctx := context.Background()

	f.reviews.On("GetByID", ctx, "rev-x").Return(nil, apperrors.NotFound("review", "rev-x").WithCode(domain.CodeReviewNotFound))

	_, err := f.svc.DeleteReview(ctx, "rev-x", "user-1")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListProductReviews_StatusFilter(t *testing.T) {
	f := newReviewFixture(3)
	ctx := context.Background()
	params := pagination.Params{Page: 2, PerPage: 10, Offset: 10}
	approved := domain.ReviewStatusApproved

	f.reviews.On("ListByProduct", ctx, "prod-1", &approved, 10, 10).Return([]domain.Review{{ID: "rev-1"}}, 11, nil)

	reviews, total, err := f.svc.ListProductReviews(ctx, "prod-1", "approved", Viewer{}, params)

	require.NoError(t, err)
	assert.Len(t, reviews, 1)
	assert.Equal(t, 11, total)
}

func TestListProductReviews_PublicDefaultsToApproved(t *testing.T) {
	f := newReviewFixture(3)
	ctx := context.Background()
	approved := domain.ReviewStatusApproved

	f.reviews.On("ListByProduct", ctx, "prod-1", &approved, 0, 20).Return([]domain.Review{}, 0, nil)

	_, _, err := f.svc.ListProductReviews(ctx, "prod-1", "", Viewer{UserID: "user-1"}, pagination.DefaultParams())

	require.NoError(t, err)
	f.reviews.AssertExpectations(t)
}

func TestListProductReviews_UnapprovedHiddenFromPublic(t *testing.T) {
	for _, status := range []string{"pending", "rejected"} {
		t.Run(status, func(t *testing.T) {
			f := newReviewFixture(3)

			_, _, err := f.svc.ListProductReviews(context.Background(), "prod-1", status, Viewer{UserID: "user-1"}, pagination.DefaultParams())

			assert.ErrorIs(t, err, apperrors.ErrForbidden)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, domain.CodeStatusNotVisible, appErr.Code)
			f.reviews.AssertNotCalled(t, "ListByProduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestListProductReviews_AdminSeesAllStatuses(t *testing.T) {
	f := newReviewFixture(3)
	ctx := context.Background()
	pending := domain.ReviewStatusPending

	f.reviews.On("ListByProduct", ctx, "prod-1", (*domain.ReviewStatus)(nil), 0, 20).Return([]domain.Review{}, 0, nil).Once()
	f.reviews.On("ListByProduct", ctx, "prod-1", &pending, 0, 20).Return([]domain.Review{}, 0, nil).Once()

	admin := Viewer{UserID: "admin-1", Admin: true}
	_, _, err := f.svc.ListProductReviews(ctx, "prod-1", "", admin, pagination.DefaultParams())
	require.NoError(t, err)
	_, _, err = f.svc.ListProductReviews(ctx, "prod-1", "pending", admin, pagination.DefaultParams())
	require.NoError(t, err)

	f.reviews.AssertExpectations(t)
}

func TestListProductReviews_InvalidStatus(t *testing.T) {
	f := newReviewFixture(3)

	_, _, err := f.svc.ListProductReviews(context.Background(), "prod-1", "hidden", Viewer{Admin: true}, pagination.DefaultParams())

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestGetReview_Visibility(t *testing.T) {
	pending := &domain.Review{ID: "rev-1", UserID: "user-1", Status: domain.ReviewStatusPending}

	tests := []struct {
		name    string
		viewer  Viewer
		visible bool
	}{
		{"author", Viewer{UserID: "user-1"}, true},
		{"admin", Viewer{UserID: "admin-1", Admin: true}, true},
		{"other user", Viewer{UserID: "user-2"}, false},
		{"anonymous", Viewer{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReviewFixture(3)
			ctx := context.Background()
			f.reviews.On("GetByID", ctx, "rev-1").Return(pending, nil)

			got, err := f.svc.GetReview(ctx, "rev-1", tt.viewer)

			if tt.visible {
				require.NoError(t, err)
				assert.Equal(t, pending, got)
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrNotFound)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, domain.CodeReviewNotFound, appErr.Code)
		})
	}
}

func TestListUserReviews(t *testing.T) {
	f := newReviewFixture(3)
	ctx := context.Background()
	own := []domain.Review{
		{ID: "rev-1", UserID: "user-1", Status: domain.ReviewStatusPending},
		{ID: "rev-2", UserID: "user-1", Status: domain.ReviewStatusApproved},
	}

	f.reviews.On("ListByUser", ctx, "user-1", 0, 20).Return(own, 2, nil)

	reviews, total, err := f.svc.ListUserReviews(ctx, "user-1", pagination.DefaultParams())

	require.NoError(t, err)
	assert.Equal(t, own, reviews)
	assert.Equal(t, 2, total)
}

func TestRefreshProductRating(t *testing.T) {
	f := newReviewFixture(3)
	ctx := context.Background()

	f.products.On("RefreshRating", ctx, "prod-1").Return(nil, retryableErr()).Once()
	f.products.On("RefreshRating", ctx, "prod-1").Return(ratingPtr(4.5, 2), nil).Once()

	rating, err := f.svc.RefreshProductRating(ctx, "prod-1")

	require.NoError(t, err)
	assert.Equal(t, 4.5, *rating.AverageRating)
	f.products.AssertNumberOfCalls(t, "RefreshRating", 2)
}

func TestGetProductRating(t *testing.T) {
	f := newReviewFixture(3)
	ctx := context.Background()

	f.products.On("GetRating", ctx, "prod-1").Return(ratingPtr(4.5, 2), nil)

	rating, err := f.svc.GetProductRating(ctx, "prod-1")

	require.NoError(t, err)
	assert.Equal(t, 2, rating.ReviewCount)
}
