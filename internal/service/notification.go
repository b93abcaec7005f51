package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
	"github.com/emrahgewer/yorumatorapp/internal/repository"
	"github.com/emrahgewer/yorumatorapp/pkg/pagination"
)

// NotificationService reads notifications and maintains their read flags.
// Notifications are written by the event materializer.
type NotificationService struct {
	notifications repository.NotificationRepository
	logger        *slog.Logger
}

// NewNotificationService creates a new notification service.
func NewNotificationService(notifications repository.NotificationRepository, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		logger:        logger,
	}
}

// List returns a page of the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, params pagination.Params) ([]domain.Notification, int, error) {
	notifications, total, err := s.notifications.List(ctx, userID, unreadOnly, params.Offset, params.Limit())
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, total, nil
}

// UnreadCount counts the user's unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (*domain.UnreadCount, error) {
	n, err := s.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count unread notifications: %w", err)
	}
	return &domain.UnreadCount{UnreadCount: n}, nil
}

// MarkRead marks one of the user's notifications as read. Marking an
// already-read notification succeeds.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.notifications.MarkRead(ctx, id, userID); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}

	s.logger.DebugContext(ctx, "notification marked read",
		slog.String("notification_id", id),
		slog.String("user_id", userID),
	)
	return nil
}

// MarkAllRead marks every unread notification of the user as read and
// returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}

	s.logger.InfoContext(ctx, "notifications marked read",
		slog.String("user_id", userID),
		slog.Int64("updated", n),
	)
	return n, nil
}
