package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
	"github.com/emrahgewer/yorumatorapp/internal/event"
	"github.com/emrahgewer/yorumatorapp/internal/repository"
	apperrors "github.com/emrahgewer/yorumatorapp/pkg/errors"
	"github.com/emrahgewer/yorumatorapp/pkg/pagination"
)

// SocialService manages follows, favorites and profile counters.
type SocialService struct {
	users     repository.UserRepository
	follows   repository.FollowRepository
	favorites repository.FavoriteRepository
	producer  *event.Producer
	logger    *slog.Logger
}

// NewSocialService creates a new social service.
func NewSocialService(
	users repository.UserRepository,
	follows repository.FollowRepository,
	favorites repository.FavoriteRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *SocialService {
	return &SocialService{
		users:     users,
		follows:   follows,
		favorites: favorites,
		producer:  producer,
		logger:    logger,
	}
}

// Follow makes followerID follow followingID.
func (s *SocialService) Follow(ctx context.Context, followerID, followingID string) error {
	if followerID == followingID {
		return apperrors.InvalidInput("users cannot follow themselves").WithCode(domain.CodeCannotFollowSelf)
	}

	if err := s.follows.Follow(ctx, followerID, followingID); err != nil {
		recordToggle(relationFollow, err)
		return fmt.Errorf("follow user: %w", err)
	}
	toggleTotal.WithLabelValues(relationFollow, toggleAdded).Inc()

	s.logger.InfoContext(ctx, "user followed",
		slog.String("follower_id", followerID),
		slog.String("following_id", followingID),
	)

	if err := s.producer.PublishUserFollowed(ctx, followerID, followingID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user followed event",
			slog.String("following_id", followingID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// Unfollow removes the follow edge.
func (s *SocialService) Unfollow(ctx context.Context, followerID, followingID string) error {
	if err := s.follows.Unfollow(ctx, followerID, followingID); err != nil {
		recordToggle(relationFollow, err)
		return fmt.Errorf("unfollow user: %w", err)
	}
	toggleTotal.WithLabelValues(relationFollow, toggleRemoved).Inc()

	s.logger.InfoContext(ctx, "user unfollowed",
		slog.String("follower_id", followerID),
		slog.String("following_id", followingID),
	)
	return nil
}

// IsFollowing reports whether followerID follows followingID.
func (s *SocialService) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	ok, err := s.follows.IsFollowing(ctx, followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return ok, nil
}

// ListFollowers returns a page of the users following userID.
func (s *SocialService) ListFollowers(ctx context.Context, userID string, params pagination.Params) ([]domain.FollowEdge, int, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, 0, fmt.Errorf("get user: %w", err)
	}
	edges, total, err := s.follows.ListFollowers(ctx, userID, params.Offset, params.Limit())
	if err != nil {
		return nil, 0, fmt.Errorf("list followers: %w", err)
	}
	return edges, total, nil
}

// ListFollowing returns a page of the users userID follows.
func (s *SocialService) ListFollowing(ctx context.Context, userID string, params pagination.Params) ([]domain.FollowEdge, int, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, 0, fmt.Errorf("get user: %w", err)
	}
	edges, total, err := s.follows.ListFollowing(ctx, userID, params.Offset, params.Limit())
	if err != nil {
		return nil, 0, fmt.Errorf("list following: %w", err)
	}
	return edges, total, nil
}

// Profile returns userID with live social counters. viewerID may be empty.
func (s *SocialService) Profile(ctx context.Context, userID, viewerID string) (*domain.Profile, error) {
	profile, err := s.users.GetProfile(ctx, userID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// AddFavorite saves productID for userID.
func (s *SocialService) AddFavorite(ctx context.Context, userID, productID string) error {
	if err := s.favorites.Add(ctx, userID, productID); err != nil {
		recordToggle(relationFavorite, err)
		return fmt.Errorf("add favorite: %w", err)
	}
	toggleTotal.WithLabelValues(relationFavorite, toggleAdded).Inc()

	s.logger.InfoContext(ctx, "product favorited",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
	)
	return nil
}

// RemoveFavorite unsaves productID for userID.
func (s *SocialService) RemoveFavorite(ctx context.Context, userID, productID string) error {
	if err := s.favorites.Remove(ctx, userID, productID); err != nil {
		recordToggle(relationFavorite, err)
		return fmt.Errorf("remove favorite: %w", err)
	}
	toggleTotal.WithLabelValues(relationFavorite, toggleRemoved).Inc()

	s.logger.InfoContext(ctx, "product unfavorited",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
	)
	return nil
}

// IsFavorite reports whether userID saved productID.
func (s *SocialService) IsFavorite(ctx context.Context, userID, productID string) (bool, error) {
	ok, err := s.favorites.IsFavorite(ctx, userID, productID)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return ok, nil
}

// ListFavorites returns a page of userID's saved products, newest first.
func (s *SocialService) ListFavorites(ctx context.Context, userID string, params pagination.Params) ([]domain.Favorite, int, error) {
	favorites, total, err := s.favorites.ListByUser(ctx, userID, params.Offset, params.Limit())
	if err != nil {
		return nil, 0, fmt.Errorf("list favorites: %w", err)
	}
	return favorites, total, nil
}

// recordToggle counts a rejected toggle.
func recordToggle(relation string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrAlreadyExists), errors.Is(err, apperrors.ErrConflict):
		toggleTotal.WithLabelValues(relation, toggleDuplicate).Inc()
	case errors.Is(err, apperrors.ErrNotFound):
		toggleTotal.WithLabelValues(relation, toggleMissing).Inc()
	}
}
