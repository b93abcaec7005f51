package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
	"github.com/emrahgewer/yorumatorapp/internal/event"
	"github.com/emrahgewer/yorumatorapp/internal/repository"
	pkgkafka "github.com/emrahgewer/yorumatorapp/pkg/kafka"
)

// --- Mock ReviewRepository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) (*domain.ProductRating, error) {
	args := m.Called(ctx, review)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductRating), args.Error(1)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) ListByProduct(ctx context.Context, productID string, status *domain.ReviewStatus, offset, limit int) ([]domain.Review, int, error) {
	args := m.Called(ctx, productID, status, offset, limit)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]domain.Review, int, error) {
	args := m.Called(ctx, userID, offset, limit)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) UpdateStatus(ctx context.Context, id string, status domain.ReviewStatus) (*repository.StatusChange, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.StatusChange), args.Error(1)
}

func (m *mockReviewRepository) Delete(ctx context.Context, id string) (*domain.ProductRating, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductRating), args.Error(1)
}

// --- Mock ProductRepository ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) GetRating(ctx context.Context, productID string) (*domain.ProductRating, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductRating), args.Error(1)
}

func (m *mockProductRepository) RefreshRating(ctx context.Context, productID string) (*domain.ProductRating, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductRating), args.Error(1)
}

// --- Mock UserRepository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetProfile(ctx context.Context, userID, viewerID string) (*domain.Profile, error) {
	args := m.Called(ctx, userID, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

// --- Mock FollowRepository ---

type mockFollowRepository struct {
	mock.Mock
}

func (m *mockFollowRepository) Follow(ctx context.Context, followerID, followingID string) error {
	return m.Called(ctx, followerID, followingID).Error(0)
}

func (m *mockFollowRepository) Unfollow(ctx context.Context, followerID, followingID string) error {
	return m.Called(ctx, followerID, followingID).Error(0)
}

func (m *mockFollowRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	args := m.Called(ctx, followerID, followingID)
	return args.Bool(0), args.Error(1)
}

func (m *mockFollowRepository) ListFollowers(ctx context.Context, userID string, offset, limit int) ([]domain.FollowEdge, int, error) {
	args := m.Called(ctx, userID, offset, limit)
	return args.Get(0).([]domain.FollowEdge), args.Int(1), args.Error(2)
}

func (m *mockFollowRepository) ListFollowing(ctx context.Context, userID string, offset, limit int) ([]domain.FollowEdge, int, error) {
	args := m.Called(ctx, userID, offset, limit)
	return args.Get(0).([]domain.FollowEdge), args.Int(1), args.Error(2)
}

// --- Mock FavoriteRepository ---

type mockFavoriteRepository struct {
	mock.Mock
}

func (m *mockFavoriteRepository) Add(ctx context.Context, userID, productID string) error {
	return m.Called(ctx, userID, productID).Error(0)
}

func (m *mockFavoriteRepository) Remove(ctx context.Context, userID, productID string) error {
	return m.Called(ctx, userID, productID).Error(0)
}

func (m *mockFavoriteRepository) IsFavorite(ctx context.Context, userID, productID string) (bool, error) {
	args := m.Called(ctx, userID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *mockFavoriteRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]domain.Favorite, int, error) {
	args := m.Called(ctx, userID, offset, limit)
	return args.Get(0).([]domain.Favorite), args.Int(1), args.Error(2)
}

// --- Mock OpinionRepository ---

type mockOpinionRepository struct {
	mock.Mock
}

func (m *mockOpinionRepository) Set(ctx context.Context, reviewID, userID string, isLike bool) (domain.OpinionResult, error) {
	args := m.Called(ctx, reviewID, userID, isLike)
	return args.Get(0).(domain.OpinionResult), args.Error(1)
}

func (m *mockOpinionRepository) Stats(ctx context.Context, reviewID, viewerID string) (*domain.OpinionStats, error) {
	args := m.Called(ctx, reviewID, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OpinionStats), args.Error(1)
}

// --- Mock ReplyRepository ---

type mockReplyRepository struct {
	mock.Mock
}

func (m *mockReplyRepository) Create(ctx context.Context, reply *domain.Reply) error {
	return m.Called(ctx, reply).Error(0)
}

func (m *mockReplyRepository) GetByID(ctx context.Context, id string) (*domain.Reply, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reply), args.Error(1)
}

func (m *mockReplyRepository) ListRoots(ctx context.Context, reviewID string, offset, limit int) ([]domain.Reply, error) {
	args := m.Called(ctx, reviewID, offset, limit)
	return args.Get(0).([]domain.Reply), args.Error(1)
}

func (m *mockReplyRepository) ListChildren(ctx context.Context, parentIDs ...string) ([]domain.Reply, error) {
	args := m.Called(ctx, parentIDs)
	return args.Get(0).([]domain.Reply), args.Error(1)
}

// --- Mock QuestionRepository ---

type mockQuestionRepository struct {
	mock.Mock
}

func (m *mockQuestionRepository) Create(ctx context.Context, q *domain.Question) error {
	return m.Called(ctx, q).Error(0)
}

func (m *mockQuestionRepository) GetByID(ctx context.Context, id string) (*domain.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Question), args.Error(1)
}

func (m *mockQuestionRepository) ListByProduct(ctx context.Context, productID string, offset, limit int) ([]domain.Question, int, error) {
	args := m.Called(ctx, productID, offset, limit)
	return args.Get(0).([]domain.Question), args.Int(1), args.Error(2)
}

func (m *mockQuestionRepository) CreateAnswer(ctx context.Context, a *domain.Answer) (*domain.Question, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Question), args.Error(1)
}

func (m *mockQuestionRepository) ListAnswers(ctx context.Context, questionID string) ([]domain.Answer, error) {
	args := m.Called(ctx, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Answer), args.Error(1)
}

func (m *mockQuestionRepository) MarkHelpful(ctx context.Context, answerID string) (*domain.Answer, error) {
	args := m.Called(ctx, answerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Answer), args.Error(1)
}

// --- Mock NotificationRepository ---

type mockNotificationRepository struct {
	mock.Mock
}

func (m *mockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockNotificationRepository) CreateMany(ctx context.Context, ns []*domain.Notification) (int64, error) {
	args := m.Called(ctx, ns)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockNotificationRepository) CreateForFollowers(ctx context.Context, userID string, n *domain.Notification) (int64, error) {
	args := m.Called(ctx, userID, n)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockNotificationRepository) List(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]domain.Notification, int, error) {
	args := m.Called(ctx, userID, unreadOnly, offset, limit)
	return args.Get(0).([]domain.Notification), args.Int(1), args.Error(2)
}

func (m *mockNotificationRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockNotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *mockNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// --- Fake moderation scorer ---

type fakeScorer struct {
	verdict domain.ModerationVerdict
	err     error
	texts   []string
}

func (f *fakeScorer) Score(_ context.Context, text string) (domain.ModerationVerdict, error) {
	f.texts = append(f.texts, text)
	return f.verdict, f.err
}

// --- Recording Kafka writer ---

type recordingWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func (w *recordingWriter) topics() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.msgs))
	for i, m := range w.msgs {
		out[i] = m.Topic
	}
	return out
}

// --- Test helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestProducer(w *recordingWriter) *event.Producer {
	return event.NewProducer(pkgkafka.NewProducerWithWriter(w, "yorumator-api", newTestLogger()), newTestLogger())
}

// retryableErr mimics a repository error wrapping a PostgreSQL
// serialization failure.
func retryableErr() error {
	return fmt.Errorf("insert review: %w", &pgconn.PgError{Code: "40001", Message: "could not serialize access"})
}

func deadlockErr() error {
	return fmt.Errorf("recompute rating: %w", &pgconn.PgError{Code: "40P01", Message: "deadlock detected"})
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func ratingPtr(avg float64, count int) *domain.ProductRating {
	return &domain.ProductRating{ProductID: "prod-1", AverageRating: &avg, ReviewCount: count}
}
