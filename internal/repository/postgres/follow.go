package postgres

import (
	"context"
	"fmt"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
	"github.com/emrahgewer/yorumatorapp/pkg/database"
	apperrors "github.com/emrahgewer/yorumatorapp/pkg/errors"
)

// FollowRepository implements repository.FollowRepository using PostgreSQL.
// The (follower_id, following_id) primary key guarantees one row per pair.
type FollowRepository struct {
	pool database.DBTX
}

// NewFollowRepository creates a new PostgreSQL-backed follow repository.
func NewFollowRepository(pool database.DBTX) *FollowRepository {
	return &FollowRepository{pool: pool}
}

// Follow inserts the edge. An existing edge, including one inserted by a
// concurrent request, yields ALREADY_FOLLOWING.
func (r *FollowRepository) Follow(ctx context.Context, followerID, followingID string) error {
	query := `
		INSERT INTO follows (follower_id, following_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	ct, err := r.pool.Exec(ctx, query, followerID, followingID)
	if err != nil {
		switch {
		case database.IsForeignKeyViolation(err):
			if database.ConstraintName(err) == "follows_follower_id_fkey" {
				return notFound("user", followerID, domain.CodeUserNotFound)
			}
			return notFound("user", followingID, domain.CodeUserNotFound)
		case database.IsCheckViolation(err):
			return apperrors.InvalidInput("users cannot follow themselves").WithCode(domain.CodeCannotFollowSelf)
		}
		return fmt.Errorf("insert follow: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.AlreadyExists("already following this user").WithCode(domain.CodeAlreadyFollowing)
	}
	return nil
}

// Unfollow deletes the edge.
func (r *FollowRepository) Unfollow(ctx context.Context, followerID, followingID string) error {
	ct, err := r.pool.Exec(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`,
		followerID, followingID,
	)
	if err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("follow", followingID).WithCode(domain.CodeNotFollowing)
	}
	return nil
}

// IsFollowing reports whether the edge exists.
func (r *FollowRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2)`,
		followerID, followingID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return exists, nil
}

// ListFollowers returns the users following userID, newest edge first.
func (r *FollowRepository) ListFollowers(ctx context.Context, userID string, offset, limit int) ([]domain.FollowEdge, int, error) {
	query := `
		SELECT u.id, u.username, u.full_name, u.avatar_url, u.created_at, f.created_at,
		       count(*) OVER() AS total_count
		FROM follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.following_id = $1
		ORDER BY f.created_at DESC
		LIMIT $2 OFFSET $3`

	return r.listEdges(ctx, query, userID, limit, offset)
}

// ListFollowing returns the users userID follows, newest edge first.
func (r *FollowRepository) ListFollowing(ctx context.Context, userID string, offset, limit int) ([]domain.FollowEdge, int, error) {
	query := `
		SELECT u.id, u.username, u.full_name, u.avatar_url, u.created_at, f.created_at,
		       count(*) OVER() AS total_count
		FROM follows f
		JOIN users u ON u.id = f.following_id
		WHERE f.follower_id = $1
		ORDER BY f.created_at DESC
		LIMIT $2 OFFSET $3`

	return r.listEdges(ctx, query, userID, limit, offset)
}

func (r *FollowRepository) listEdges(ctx context.Context, query string, args ...any) ([]domain.FollowEdge, int, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list follows: %w", err)
	}
	defer rows.Close()

	var total int
	edges := make([]domain.FollowEdge, 0)
	for rows.Next() {
		var e domain.FollowEdge
		if err := rows.Scan(
			&e.User.ID,
			&e.User.Username,
			&e.User.FullName,
			&e.User.AvatarURL,
			&e.User.CreatedAt,
			&e.FollowedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan follow row: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate follow rows: %w", err)
	}

	return edges, total, nil
}
