package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
	"github.com/emrahgewer/yorumatorapp/internal/repository"
)

// =============================================================================
// Repository mocks
// =============================================================================

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, review *domain.Review) (*domain.ProductRating, error) {
	args := m.Called(ctx, review)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductRating), args.Error(1)
}

func (m *mockReviewRepo) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepo) ListByProduct(ctx context.Context, productID string, status *domain.ReviewStatus, offset, limit int) ([]domain.Review, int, error) {
	args := m.Called(ctx, productID, status, offset, limit)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]domain.Review, int, error) {
	args := m.Called(ctx, userID, offset, limit)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepo) UpdateStatus(ctx context.Context, id string, status domain.ReviewStatus) (*repository.StatusChange, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.StatusChange), args.Error(1)
}

func (m *mockReviewRepo) Delete(ctx context.Context, id string) (*domain.ProductRating, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductRating), args.Error(1)
}

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) GetRating(ctx context.Context, productID string) (*domain.ProductRating, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductRating), args.Error(1)
}

func (m *mockProductRepo) RefreshRating(ctx context.Context, productID string) (*domain.ProductRating, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductRating), args.Error(1)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetProfile(ctx context.Context, userID, viewerID string) (*domain.Profile, error) {
	args := m.Called(ctx, userID, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

type mockFollowRepo struct {
	mock.Mock
}

func (m *mockFollowRepo) Follow(ctx context.Context, followerID, followingID string) error {
	return m.Called(ctx, followerID, followingID).Error(0)
}

func (m *mockFollowRepo) Unfollow(ctx context.Context, followerID, followingID string) error {
	return m.Called(ctx, followerID, followingID).Error(0)
}

func (m *mockFollowRepo) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	args := m.Called(ctx, followerID, followingID)
	return args.Bool(0), args.Error(1)
}

func (m *mockFollowRepo) ListFollowers(ctx context.Context, userID string, offset, limit int) ([]domain.FollowEdge, int, error) {
	args := m.Called(ctx, userID, offset, limit)
	return args.Get(0).([]domain.FollowEdge), args.Int(1), args.Error(2)
}

func (m *mockFollowRepo) ListFollowing(ctx context.Context, userID string, offset, limit int) ([]domain.FollowEdge, int, error) {
	args := m.Called(ctx, userID, offset, limit)
	return args.Get(0).([]domain.FollowEdge), args.Int(1), args.Error(2)
}

type mockFavoriteRepo struct {
	mock.Mock
}

func (m *mockFavoriteRepo) Add(ctx context.Context, userID, productID string) error {
	return m.Called(ctx, userID, productID).Error(0)
}

func (m *mockFavoriteRepo) Remove(ctx context.Context, userID, productID string) error {
	return m.Called(ctx, userID, productID).Error(0)
}

func (m *mockFavoriteRepo) IsFavorite(ctx context.Context, userID, productID string) (bool, error) {
	args := m.Called(ctx, userID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *mockFavoriteRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]domain.Favorite, int, error) {
	args := m.Called(ctx, userID, offset, limit)
	return args.Get(0).([]domain.Favorite), args.Int(1), args.Error(2)
}

type mockOpinionRepo struct {
	mock.Mock
}

func (m *mockOpinionRepo) Set(ctx context.Context, reviewID, userID string, isLike bool) (domain.OpinionResult, error) {
	args := m.Called(ctx, reviewID, userID, isLike)
	return args.Get(0).(domain.OpinionResult), args.Error(1)
}

func (m *mockOpinionRepo) Stats(ctx context.Context, reviewID, viewerID string) (*domain.OpinionStats, error) {
	args := m.Called(ctx, reviewID, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OpinionStats), args.Error(1)
}

type mockReplyRepo struct {
	mock.Mock
}

func (m *mockReplyRepo) Create(ctx context.Context, reply *domain.Reply) error {
	return m.Called(ctx, reply).Error(0)
}

func (m *mockReplyRepo) GetByID(ctx context.Context, id string) (*domain.Reply, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reply), args.Error(1)
}

func (m *mockReplyRepo) ListRoots(ctx context.Context, reviewID string, offset, limit int) ([]domain.Reply, error) {
	args := m.Called(ctx, reviewID, offset, limit)
	return args.Get(0).([]domain.Reply), args.Error(1)
}

func (m *mockReplyRepo) ListChildren(ctx context.Context, parentIDs ...string) ([]domain.Reply, error) {
	args := m.Called(ctx, parentIDs)
	return args.Get(0).([]domain.Reply), args.Error(1)
}

type mockQuestionRepo struct {
	mock.Mock
}

func (m *mockQuestionRepo) Create(ctx context.Context, q *domain.Question) error {
	return m.Called(ctx, q).Error(0)
}

func (m *mockQuestionRepo) GetByID(ctx context.Context, id string) (*domain.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Question), args.Error(1)
}

func (m *mockQuestionRepo) ListByProduct(ctx context.Context, productID string, offset, limit int) ([]domain.Question, int, error) {
	args := m.Called(ctx, productID, offset, limit)
	return args.Get(0).([]domain.Question), args.Int(1), args.Error(2)
}

func (m *mockQuestionRepo) CreateAnswer(ctx context.Context, a *domain.Answer) (*domain.Question, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Question), args.Error(1)
}

func (m *mockQuestionRepo) ListAnswers(ctx context.Context, questionID string) ([]domain.Answer, error) {
	args := m.Called(ctx, questionID)
	return args.Get(0).([]domain.Answer), args.Error(1)
}

func (m *mockQuestionRepo) MarkHelpful(ctx context.Context, answerID string) (*domain.Answer, error) {
	args := m.Called(ctx, answerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Answer), args.Error(1)
}

type mockNotificationRepo struct {
	mock.Mock
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockNotificationRepo) CreateMany(ctx context.Context, ns []*domain.Notification) (int64, error) {
	args := m.Called(ctx, ns)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockNotificationRepo) CreateForFollowers(ctx context.Context, userID string, n *domain.Notification) (int64, error) {
	args := m.Called(ctx, userID, n)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockNotificationRepo) List(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]domain.Notification, int, error) {
	args := m.Called(ctx, userID, unreadOnly, offset, limit)
	return args.Get(0).([]domain.Notification), args.Int(1), args.Error(2)
}

func (m *mockNotificationRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
