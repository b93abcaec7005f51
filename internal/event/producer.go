package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
	pkgkafka "github.com/emrahgewer/yorumatorapp/pkg/kafka"
)

// Producer publishes engagement domain events. A nil Kafka producer turns
// every method into a no-op.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new domain event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published domain event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, r *domain.Review) error {
	return p.publish(ctx, TopicReviewCreated, r.ID, AggregateTypeReview, ReviewCreatedData{
		ReviewID:  r.ID,
		ProductID: r.ProductID,
		AuthorID:  r.UserID,
		Rating:    r.Rating,
		Status:    string(r.Status),
	})
}

// PublishReviewStatusChanged publishes a review.status_changed event.
func (p *Producer) PublishReviewStatusChanged(ctx context.Context, r *domain.Review, previous domain.ReviewStatus) error {
	return p.publish(ctx, TopicReviewStatusChanged, r.ID, AggregateTypeReview, ReviewStatusChangedData{
		ReviewID:       r.ID,
		ProductID:      r.ProductID,
		AuthorID:       r.UserID,
		Rating:         r.Rating,
		PreviousStatus: string(previous),
		Status:         string(r.Status),
	})
}

// PublishReviewLiked publishes a review.liked event.
func (p *Producer) PublishReviewLiked(ctx context.Context, r *domain.Review, likerID string) error {
	return p.publish(ctx, TopicReviewLiked, r.ID, AggregateTypeReview, ReviewLikedData{
		ReviewID: r.ID,
		AuthorID: r.UserID,
		LikerID:  likerID,
	})
}

// PublishReviewReplied publishes a review.replied event. parent is nil for
// top-level replies.
func (p *Producer) PublishReviewReplied(ctx context.Context, r *domain.Review, reply, parent *domain.Reply) error {
	data := ReviewRepliedData{
		ReviewID:       r.ID,
		ReviewAuthorID: r.UserID,
		ReplyID:        reply.ID,
		ReplierID:      reply.UserID,
	}
	if parent != nil {
		data.ParentReplyID = &parent.ID
		data.ParentAuthorID = &parent.UserID
	}
	return p.publish(ctx, TopicReviewReplied, r.ID, AggregateTypeReview, data)
}

// PublishUserFollowed publishes a user.followed event.
func (p *Producer) PublishUserFollowed(ctx context.Context, followerID, followingID string) error {
	return p.publish(ctx, TopicUserFollowed, followingID, AggregateTypeUser, UserFollowedData{
		FollowerID:  followerID,
		FollowingID: followingID,
	})
}

// PublishQuestionAnswered publishes a question.answered event.
func (p *Producer) PublishQuestionAnswered(ctx context.Context, q *domain.Question, a *domain.Answer) error {
	return p.publish(ctx, TopicQuestionAnswered, q.ID, AggregateTypeQuestion, QuestionAnsweredData{
		QuestionID:       q.ID,
		QuestionAuthorID: q.UserID,
		ProductID:        q.ProductID,
		AnswerID:         a.ID,
		AnswererID:       a.UserID,
	})
}
