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
)

// DefaultReplyPageLimit is the top-level reply page size when none is
// configured.
const DefaultReplyPageLimit = 100

// CreateReplyInput holds the parameters for creating a reply.
type CreateReplyInput struct {
	ReviewID      string
	UserID        string
	Body          string
	ParentReplyID *string
}

// ReplyService maintains the two-level reply tree under reviews.
type ReplyService struct {
	replies   repository.ReplyRepository
	reviews   repository.ReviewRepository
	producer  *event.Producer
	pageLimit int
	logger    *slog.Logger
}

// NewReplyService creates a new reply service. pageLimit caps top-level
// pages and is also their default size.
func NewReplyService(
	replies repository.ReplyRepository,
	reviews repository.ReviewRepository,
	producer *event.Producer,
	pageLimit int,
	logger *slog.Logger,
) *ReplyService {
	if pageLimit <= 0 {
		pageLimit = DefaultReplyPageLimit
	}
	return &ReplyService{
		replies:   replies,
		reviews:   reviews,
		producer:  producer,
		pageLimit: pageLimit,
		logger:    logger,
	}
}

// PageLimit returns the default and maximum top-level page size.
func (s *ReplyService) PageLimit() int {
	return s.pageLimit
}

// CreateReply adds a reply to a review. A parent must be a top-level reply
// of the same review.
func (s *ReplyService) CreateReply(ctx context.Context, input *CreateReplyInput) (*domain.Reply, error) {
	if input.UserID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if input.Body == "" {
		return nil, apperrors.InvalidInput("body is required")
	}

	review, err := s.reviews.GetByID(ctx, input.ReviewID)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}

	var parent *domain.Reply
	if input.ParentReplyID != nil {
		parent, err = s.replies.GetByID(ctx, *input.ParentReplyID)
		if err != nil {
			return nil, fmt.Errorf("get parent reply: %w", err)
		}
		if !parent.CanParent(review.ID) {
			return nil, apperrors.InvalidInput("parent must be a top-level reply of the same review").
				WithCode(domain.CodeInvalidParentReply)
		}
	}

	now := time.Now().UTC()
	reply := &domain.Reply{
		ID:            uuid.New().String(),
		ReviewID:      review.ID,
		UserID:        input.UserID,
		ParentReplyID: input.ParentReplyID,
		Body:          input.Body,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.replies.Create(ctx, reply); err != nil {
		return nil, fmt.Errorf("create reply: %w", err)
	}

	s.logger.InfoContext(ctx, "reply created",
		slog.String("reply_id", reply.ID),
		slog.String("review_id", reply.ReviewID),
		slog.String("user_id", reply.UserID),
		slog.Bool("nested", parent != nil),
	)

	if err := s.producer.PublishReviewReplied(ctx, review, reply, parent); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review replied event",
			slog.String("reply_id", reply.ID),
			slog.String("error", err.Error()),
		)
	}

	return reply, nil
}

// ListTopLevel returns a page of a review's top-level replies, oldest first.
func (s *ReplyService) ListTopLevel(ctx context.Context, reviewID string, offset, limit int) ([]domain.Reply, error) {
	if _, err := s.reviews.GetByID(ctx, reviewID); err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}

	offset, limit = s.window(offset, limit)
	roots, err := s.replies.ListRoots(ctx, reviewID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list top-level replies: %w", err)
	}
	return roots, nil
}

// ListChildren returns every direct child of replyID, oldest first.
func (s *ReplyService) ListChildren(ctx context.Context, replyID string) ([]domain.Reply, error) {
	if _, err := s.replies.GetByID(ctx, replyID); err != nil {
		return nil, fmt.Errorf("get reply: %w", err)
	}

	children, err := s.replies.ListChildren(ctx, replyID)
	if err != nil {
		return nil, fmt.Errorf("list child replies: %w", err)
	}
	return children, nil
}

// Thread returns a page of top-level replies, each with its children.
func (s *ReplyService) Thread(ctx context.Context, reviewID string, offset, limit int) ([]domain.ReplyThread, error) {
	roots, err := s.ListTopLevel(ctx, reviewID, offset, limit)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return []domain.ReplyThread{}, nil
	}

	ids := make([]string, len(roots))
	for i := range roots {
		ids[i] = roots[i].ID
	}
	children, err := s.replies.ListChildren(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("list child replies: %w", err)
	}

	return domain.AssembleThreads(roots, children), nil
}

func (s *ReplyService) window(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > s.pageLimit {
		limit = s.pageLimit
	}
	return offset, limit
}
