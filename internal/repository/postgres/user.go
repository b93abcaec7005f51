package postgres

import (
	"context"
	"fmt"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
	"github.com/emrahgewer/yorumatorapp/pkg/database"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	pool database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, username, full_name, avatar_url, created_at FROM users WHERE id = $1`

	var u domain.User
	err := r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Username, &u.FullName, &u.AvatarURL, &u.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("user", id, domain.CodeUserNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetProfile returns a user with freshly counted followers, followings and
// reviews. is_following is NULL when no viewer is given.
func (r *UserRepository) GetProfile(ctx context.Context, userID, viewerID string) (*domain.Profile, error) {
	query := `
		SELECT u.id, u.username, u.full_name, u.avatar_url, u.created_at,
		       (SELECT COUNT(*) FROM follows WHERE following_id = u.id),
		       (SELECT COUNT(*) FROM follows WHERE follower_id = u.id),
		       (SELECT COUNT(*) FROM reviews WHERE user_id = u.id),
		       CASE WHEN $2::uuid IS NULL THEN NULL
		            ELSE EXISTS (SELECT 1 FROM follows WHERE follower_id = $2::uuid AND following_id = u.id)
		       END
		FROM users u
		WHERE u.id = $1`

	var p domain.Profile
	err := r.pool.QueryRow(ctx, query, userID, nullable(viewerID)).Scan(
		&p.ID,
		&p.Username,
		&p.FullName,
		&p.AvatarURL,
		&p.CreatedAt,
		&p.FollowerCount,
		&p.FollowingCount,
		&p.ReviewCount,
		&p.IsFollowing,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("user", userID, domain.CodeUserNotFound)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// nullable maps an empty id to SQL NULL.
func nullable(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
