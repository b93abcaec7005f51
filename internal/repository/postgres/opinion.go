package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
	"github.com/emrahgewer/yorumatorapp/pkg/database"
	apperrors "github.com/emrahgewer/yorumatorapp/pkg/errors"
)

// OpinionRepository implements repository.OpinionRepository using PostgreSQL.
// "No opinion" is the absence of a (review_id, user_id) row.
type OpinionRepository struct {
	pool database.Pool
}

// NewOpinionRepository creates a new PostgreSQL-backed opinion repository.
func NewOpinionRepository(pool database.Pool) *OpinionRepository {
	return &OpinionRepository{pool: pool}
}

// Set applies the like/dislike toggle: no row inserts, the same polarity
// deletes, the opposite polarity flips.
func (r *OpinionRepository) Set(ctx context.Context, reviewID, userID string, isLike bool) (domain.OpinionResult, error) {
	var result domain.OpinionResult
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var current *bool
		var stored bool
		err := tx.QueryRow(ctx,
			`SELECT is_like FROM review_opinions WHERE review_id = $1 AND user_id = $2 FOR UPDATE`,
			reviewID, userID,
		).Scan(&stored)
		switch {
		case err == nil:
			current = &stored
		case isNoRows(err):
		default:
			return fmt.Errorf("read opinion: %w", err)
		}

		result = domain.ResolveOpinion(current, isLike)
		switch result {
		case domain.OpinionSet:
			return insertOpinion(ctx, tx, reviewID, userID, isLike)
		case domain.OpinionCleared:
			if _, err := tx.Exec(ctx,
				`DELETE FROM review_opinions WHERE review_id = $1 AND user_id = $2`,
				reviewID, userID,
			); err != nil {
				return fmt.Errorf("delete opinion: %w", err)
			}
		case domain.OpinionChanged:
			if _, err := tx.Exec(ctx,
				`UPDATE review_opinions SET is_like = $1, updated_at = NOW() WHERE review_id = $2 AND user_id = $3`,
				isLike, reviewID, userID,
			); err != nil {
				return fmt.Errorf("update opinion: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

// insertOpinion stores a new opinion. When a concurrent request inserted the
// row first there is nothing to lock, so the loser reports a conflict.
func insertOpinion(ctx context.Context, tx pgx.Tx, reviewID, userID string, isLike bool) error {
	ct, err := tx.Exec(ctx, `
		INSERT INTO review_opinions (review_id, user_id, is_like)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		reviewID, userID, isLike,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			if database.ConstraintName(err) == "review_opinions_user_id_fkey" {
				return notFound("user", userID, domain.CodeUserNotFound)
			}
			return notFound("review", reviewID, domain.CodeReviewNotFound)
		}
		return fmt.Errorf("insert opinion: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.Conflict("opinion was changed concurrently, retry").WithCode(domain.CodeOpinionConflict)
	}
	return nil
}

// Stats counts likes and dislikes and looks up the viewer's opinion.
func (r *OpinionRepository) Stats(ctx context.Context, reviewID, viewerID string) (*domain.OpinionStats, error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE is_like),
		       COUNT(*) FILTER (WHERE NOT is_like),
		       (SELECT is_like FROM review_opinions WHERE review_id = $1 AND user_id = $2::uuid)
		FROM review_opinions
		WHERE review_id = $1`

	stats := domain.OpinionStats{ReviewID: reviewID}
	var viewer *bool
	if err := r.pool.QueryRow(ctx, query, reviewID, nullable(viewerID)).Scan(
		&stats.LikeCount,
		&stats.DislikeCount,
		&viewer,
	); err != nil {
		return nil, fmt.Errorf("opinion stats: %w", err)
	}

	if viewer != nil {
		o := domain.OpinionFromLike(*viewer)
		stats.ViewerOpinion = &o
	}
	return &stats, nil
}
