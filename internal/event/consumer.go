package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
	"github.com/emrahgewer/yorumatorapp/internal/repository"
	apperrors "github.com/emrahgewer/yorumatorapp/pkg/errors"
	pkgkafka "github.com/emrahgewer/yorumatorapp/pkg/kafka"
)

// DefaultConsumerGroupID is the consumer group of the notification materializer.
const DefaultConsumerGroupID = "yorumator-notifications"

// unknownActor names an actor whose account no longer exists.
const unknownActor = "Someone"

// Materializer turns domain events into notification rows. Nobody is ever
// notified about their own action.
type Materializer struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	logger        *slog.Logger
	now           func() time.Time
}

// NewMaterializer creates a new notification materializer.
func NewMaterializer(notifications repository.NotificationRepository, users repository.UserRepository, logger *slog.Logger) *Materializer {
	return &Materializer{
		notifications: notifications,
		users:         users,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes an incoming Kafka event based on its event type.
func (m *Materializer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicReviewCreated:
		return m.handleReviewCreated(ctx, event)
	case TopicReviewStatusChanged:
		return m.handleReviewStatusChanged(ctx, event)
	case TopicReviewLiked:
		return m.handleReviewLiked(ctx, event)
	case TopicReviewReplied:
		return m.handleReviewReplied(ctx, event)
	case TopicUserFollowed:
		return m.handleUserFollowed(ctx, event)
	case TopicQuestionAnswered:
		return m.handleQuestionAnswered(ctx, event)
	default:
		m.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (m *Materializer) handleReviewCreated(ctx context.Context, event *pkgkafka.Event) error {
	data, err := pkgkafka.Decode[ReviewCreatedData](event)
	if err != nil {
		return err
	}
	if domain.ReviewStatus(data.Status) != domain.ReviewStatusApproved {
		return nil
	}
	return m.fanOutNewReview(ctx, data.AuthorID, domain.NewReviewPayload{
		ReviewID:  data.ReviewID,
		ProductID: data.ProductID,
		AuthorID:  data.AuthorID,
		Rating:    data.Rating,
	})
}

// handleReviewStatusChanged announces reviews that leave the moderation
// queue as approved. Other transitions notify nobody.
func (m *Materializer) handleReviewStatusChanged(ctx context.Context, event *pkgkafka.Event) error {
	data, err := pkgkafka.Decode[ReviewStatusChangedData](event)
	if err != nil {
		return err
	}
	if domain.ReviewStatus(data.Status) != domain.ReviewStatusApproved ||
		domain.ReviewStatus(data.PreviousStatus) != domain.ReviewStatusPending {
		return nil
	}
	return m.fanOutNewReview(ctx, data.AuthorID, domain.NewReviewPayload{
		ReviewID:  data.ReviewID,
		ProductID: data.ProductID,
		AuthorID:  data.AuthorID,
		Rating:    data.Rating,
	})
}

func (m *Materializer) fanOutNewReview(ctx context.Context, authorID string, payload domain.NewReviewPayload) error {
	name, err := m.actorName(ctx, authorID)
	if err != nil {
		return err
	}

	n := domain.NewNotification("", name, payload)
	created, err := m.notifications.CreateForFollowers(ctx, authorID, n)
	if err != nil {
		return fmt.Errorf("fan out new review notification: %w", err)
	}

	m.logger.InfoContext(ctx, "new review notifications created",
		slog.String("review_id", payload.ReviewID),
		slog.Int64("recipients", created),
	)
	return nil
}

func (m *Materializer) handleReviewLiked(ctx context.Context, event *pkgkafka.Event) error {
	data, err := pkgkafka.Decode[ReviewLikedData](event)
	if err != nil {
		return err
	}
	return m.notify(ctx, data.AuthorID, data.LikerID, domain.LikeOnReviewPayload{
		ReviewID: data.ReviewID,
		LikerID:  data.LikerID,
	})
}

// handleReviewReplied notifies the review author and, for nested replies,
// the author of the parent reply when that is someone else. Both rows are
// written together so a redelivery never duplicates one of them.
func (m *Materializer) handleReviewReplied(ctx context.Context, event *pkgkafka.Event) error {
	data, err := pkgkafka.Decode[ReviewRepliedData](event)
	if err != nil {
		return err
	}

	type delivery struct {
		recipient string
		payload   domain.ReplyToReviewPayload
	}
	var deliveries []delivery
	if data.ReviewAuthorID != "" && data.ReviewAuthorID != data.ReplierID {
		deliveries = append(deliveries, delivery{data.ReviewAuthorID, domain.ReplyToReviewPayload{
			ReviewID:  data.ReviewID,
			ReplyID:   data.ReplyID,
			ReplierID: data.ReplierID,
		}})
	}
	if p := data.ParentAuthorID; p != nil && *p != "" && *p != data.ReviewAuthorID && *p != data.ReplierID {
		deliveries = append(deliveries, delivery{*p, domain.ReplyToReviewPayload{
			ReviewID:      data.ReviewID,
			ReplyID:       data.ReplyID,
			ReplierID:     data.ReplierID,
			ParentReplyID: data.ParentReplyID,
		}})
	}
	if len(deliveries) == 0 {
		return nil
	}

	name, err := m.actorName(ctx, data.ReplierID)
	if err != nil {
		return err
	}
	ns := make([]*domain.Notification, 0, len(deliveries))
	for _, d := range deliveries {
		ns = append(ns, m.newNotification(d.recipient, name, d.payload))
	}

	created, err := m.notifications.CreateMany(ctx, ns)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			m.logger.WarnContext(ctx, "reply notification references a deleted resource",
				slog.String("reply_id", data.ReplyID),
				slog.String("error", err.Error()),
			)
			return nil
		}
		return fmt.Errorf("create %s notifications: %w", domain.NotificationReplyToReview, err)
	}

	m.logger.InfoContext(ctx, "reply notifications created",
		slog.String("reply_id", data.ReplyID),
		slog.Int64("created", created),
	)
	return nil
}

func (m *Materializer) handleUserFollowed(ctx context.Context, event *pkgkafka.Event) error {
	data, err := pkgkafka.Decode[UserFollowedData](event)
	if err != nil {
		return err
	}
	return m.notify(ctx, data.FollowingID, data.FollowerID, domain.NewFollowerPayload{
		FollowerID: data.FollowerID,
	})
}

func (m *Materializer) handleQuestionAnswered(ctx context.Context, event *pkgkafka.Event) error {
	data, err := pkgkafka.Decode[QuestionAnsweredData](event)
	if err != nil {
		return err
	}
	return m.notify(ctx, data.QuestionAuthorID, data.AnswererID, domain.AnswerToQuestionPayload{
		QuestionID: data.QuestionID,
		AnswerID:   data.AnswerID,
		AnswererID: data.AnswererID,
	})
}

// notify creates one notification for recipient unless the actor is the
// recipient.
func (m *Materializer) notify(ctx context.Context, recipient, actorID string, payload domain.NotificationPayload) error {
	if recipient == "" || recipient == actorID {
		return nil
	}

	name, err := m.actorName(ctx, actorID)
	if err != nil {
		return err
	}

	n := m.newNotification(recipient, name, payload)

	if err := m.notifications.Create(ctx, n); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			m.logger.WarnContext(ctx, "notification recipient no longer exists",
				slog.String("user_id", recipient),
				slog.String("type", string(n.Type)),
			)
			return nil
		}
		return fmt.Errorf("create %s notification: %w", n.Type, err)
	}

	m.logger.InfoContext(ctx, "notification created",
		slog.String("notification_id", n.ID),
		slog.String("user_id", recipient),
		slog.String("type", string(n.Type)),
	)
	return nil
}

func (m *Materializer) newNotification(recipient, actorName string, payload domain.NotificationPayload) *domain.Notification {
	n := domain.NewNotification(recipient, actorName, payload)
	n.ID = uuid.New().String()
	n.CreatedAt = m.now()
	return n
}

func (m *Materializer) actorName(ctx context.Context, userID string) (string, error) {
	u, err := m.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return unknownActor, nil
		}
		return "", fmt.Errorf("resolve actor %s: %w", userID, err)
	}
	if u.FullName != "" {
		return u.FullName, nil
	}
	return u.Username, nil
}
