package event

import (
	"context"
	"log/slog"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
	apperrors "github.com/emrahgewer/yorumatorapp/pkg/errors"
)

// --- Mock NotificationRepository ---

type mockNotificationRepository struct {
	mock.Mock
}

func (m *mockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
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
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *mockNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
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

// --- Test helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func userNotFound(id string) error {
	return apperrors.NotFound("user", id).WithCode(domain.CodeUserNotFound)
}
