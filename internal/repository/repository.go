package repository

import (
	"context"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
)

// StatusChange is the outcome of a review status update.
type StatusChange struct {
	Review   *domain.Review
	Previous domain.ReviewStatus
	Rating   *domain.ProductRating
}

// ReviewRepository persists reviews. Every write also refreshes the product
// rating aggregate inside the same transaction and returns the new aggregate.
type ReviewRepository interface {
	// Create inserts a review and refreshes its product's rating.
	Create(ctx context.Context, review *domain.Review) (*domain.ProductRating, error)

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// ListByProduct returns a product's reviews newest first, optionally
	// filtered by status, together with the total count.
	ListByProduct(ctx context.Context, productID string, status *domain.ReviewStatus, offset, limit int) ([]domain.Review, int, error)

	// ListByUser returns every review a user wrote, newest first.
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]domain.Review, int, error)

	// UpdateStatus moves a review to status and refreshes the rating.
	UpdateStatus(ctx context.Context, id string, status domain.ReviewStatus) (*StatusChange, error)

	// Delete removes a review and refreshes the rating.
	Delete(ctx context.Context, id string) (*domain.ProductRating, error)
}

// ProductRepository reads and maintains the product rating aggregate.
type ProductRepository interface {
	// GetRating returns the stored aggregate.
	GetRating(ctx context.Context, productID string) (*domain.ProductRating, error)

	// RefreshRating recomputes the aggregate in its own transaction.
	RefreshRating(ctx context.Context, productID string) (*domain.ProductRating, error)
}

// UserRepository reads users and their social counters.
type UserRepository interface {
	// GetByID retrieves a user by id.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetProfile returns the user with live counters. IsFollowing is only
	// computed when viewerID is non-empty.
	GetProfile(ctx context.Context, userID, viewerID string) (*domain.Profile, error)
}

// FollowRepository manages the follow relation.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followingID string) error
	Unfollow(ctx context.Context, followerID, followingID string) error
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	ListFollowers(ctx context.Context, userID string, offset, limit int) ([]domain.FollowEdge, int, error)
	ListFollowing(ctx context.Context, userID string, offset, limit int) ([]domain.FollowEdge, int, error)
}

// FavoriteRepository manages saved products.
type FavoriteRepository interface {
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
	IsFavorite(ctx context.Context, userID, productID string) (bool, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]domain.Favorite, int, error)
}

// OpinionRepository manages likes and dislikes of reviews.
type OpinionRepository interface {
	// Set toggles the user's opinion in one transaction and reports what
	// happened to the stored row.
	Set(ctx context.Context, reviewID, userID string, isLike bool) (domain.OpinionResult, error)

	// Stats counts opinions. The viewer's opinion is looked up only when
	// viewerID is non-empty.
	Stats(ctx context.Context, reviewID, viewerID string) (*domain.OpinionStats, error)
}

// ReplyRepository persists the reply tree.
type ReplyRepository interface {
	Create(ctx context.Context, reply *domain.Reply) error
	GetByID(ctx context.Context, id string) (*domain.Reply, error)

	// ListRoots returns a page of a review's top-level replies, oldest first.
	ListRoots(ctx context.Context, reviewID string, offset, limit int) ([]domain.Reply, error)

	// ListChildren returns the direct children of each parent, oldest first.
	ListChildren(ctx context.Context, parentIDs ...string) ([]domain.Reply, error)
}

// QuestionRepository persists questions and answers and maintains their
// derived counters.
type QuestionRepository interface {
	Create(ctx context.Context, q *domain.Question) error
	GetByID(ctx context.Context, id string) (*domain.Question, error)
	ListByProduct(ctx context.Context, productID string, offset, limit int) ([]domain.Question, int, error)

	// CreateAnswer inserts an answer and recomputes the question's counters
	// in one transaction. It returns the updated question.
	CreateAnswer(ctx context.Context, a *domain.Answer) (*domain.Question, error)
	ListAnswers(ctx context.Context, questionID string) ([]domain.Answer, error)

	// MarkHelpful increments an answer's helpful count.
	MarkHelpful(ctx context.Context, answerID string) (*domain.Answer, error)
}

// NotificationRepository persists notifications and their read flags.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error

	// CreateMany inserts ns atomically, skipping recipients that no longer
	// exist, and returns the number of rows written.
	CreateMany(ctx context.Context, ns []*domain.Notification) (int64, error)

	// CreateForFollowers inserts a copy of n for every follower of userID
	// and returns the number of rows written.
	CreateForFollowers(ctx context.Context, userID string, n *domain.Notification) (int64, error)

	List(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]domain.Notification, int, error)
	UnreadCount(ctx context.Context, userID string) (int, error)

	// MarkRead sets is_read on one of the user's notifications. Marking an
	// already-read notification succeeds.
	MarkRead(ctx context.Context, id, userID string) error

	// MarkAllRead flags every unread notification of the user and returns
	// the number updated.
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}
