package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
	"github.com/emrahgewer/yorumatorapp/internal/repository"
	"github.com/emrahgewer/yorumatorapp/pkg/database"
)

const reviewColumns = `id, product_id, user_id, rating, title, body, pros, cons, status, moderation, created_at, updated_at`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.Pool
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a review and refreshes the product rating in one transaction.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) (*domain.ProductRating, error) {
	moderationJSON, err := marshalModeration(rv.Moderation)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO reviews (id, product_id, user_id, rating, title, body, pros, cons, status, moderation, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	var rating *domain.ProductRating
	err = database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockProduct(ctx, tx, rv.ProductID); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, query,
			rv.ID,
			rv.ProductID,
			rv.UserID,
			rv.Rating,
			rv.Title,
			rv.Body,
			rv.Pros,
			rv.Cons,
			string(rv.Status),
			moderationJSON,
			rv.CreatedAt,
			rv.UpdatedAt,
		)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return notFound("user", rv.UserID, domain.CodeUserNotFound)
			}
			return fmt.Errorf("insert review: %w", err)
		}

		rating, err = recomputeRating(ctx, tx, rv.ProductID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	rv, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("review", id, domain.CodeReviewNotFound)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return rv, nil
}

// ListByProduct returns a product's reviews newest first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string, status *domain.ReviewStatus, offset, limit int) ([]domain.Review, int, error) {
	query := `
		SELECT ` + reviewColumns + `, count(*) OVER() AS total_count
		FROM reviews
		WHERE product_id = $1 AND ($2::review_status IS NULL OR status = $2::review_status)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}

	rows, err := r.pool.Query(ctx, query, productID, statusArg, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews by product: %w", err)
	}
	defer rows.Close()

	var total int
	reviews := make([]domain.Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, total, nil
}

// ListByUser returns a user's reviews in every status, newest first.
func (r *ReviewRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]domain.Review, int, error) {
	query := `
		SELECT ` + reviewColumns + `, count(*) OVER() AS total_count
		FROM reviews
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews by user: %w", err)
	}
	defer rows.Close()

	var total int
	reviews := make([]domain.Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, total, nil
}

// UpdateStatus changes the status of a review and refreshes the rating.
func (r *ReviewRepository) UpdateStatus(ctx context.Context, id string, status domain.ReviewStatus) (*repository.StatusChange, error) {
	query := `
		UPDATE reviews r
		SET status = $1, updated_at = NOW()
		FROM (SELECT id, status FROM reviews WHERE id = $2 FOR UPDATE) prev
		WHERE r.id = prev.id
		RETURNING prev.status, r.id, r.product_id, r.user_id, r.rating, r.title, r.body, r.pros, r.cons,
		          r.status, r.moderation, r.created_at, r.updated_at`

	var change repository.StatusChange
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		productID, err := r.lockReviewProduct(ctx, tx, id)
		if err != nil {
			return err
		}

		var previous string
		rv, err := scanReviewAfter(tx.QueryRow(ctx, query, string(status), id), &previous)
		if err != nil {
			if isNoRows(err) {
				return notFound("review", id, domain.CodeReviewNotFound)
			}
			return fmt.Errorf("update review status: %w", err)
		}

		rating, err := recomputeRating(ctx, tx, productID)
		if err != nil {
			return err
		}

		change = repository.StatusChange{Review: rv, Previous: domain.ReviewStatus(previous), Rating: rating}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &change, nil
}

// Delete removes a review and refreshes the rating.
func (r *ReviewRepository) Delete(ctx context.Context, id string) (*domain.ProductRating, error) {
	var rating *domain.ProductRating
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		productID, err := r.lockReviewProduct(ctx, tx, id)
		if err != nil {
			return err
		}

		ct, err := tx.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete review: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return notFound("review", id, domain.CodeReviewNotFound)
		}

		rating, err = recomputeRating(ctx, tx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

// lockReviewProduct resolves the product of a review and locks it.
func (r *ReviewRepository) lockReviewProduct(ctx context.Context, tx pgx.Tx, reviewID string) (string, error) {
	var productID string
	err := tx.QueryRow(ctx, `SELECT product_id FROM reviews WHERE id = $1`, reviewID).Scan(&productID)
	if err != nil {
		if isNoRows(err) {
			return "", notFound("review", reviewID, domain.CodeReviewNotFound)
		}
		return "", fmt.Errorf("resolve review product: %w", err)
	}
	if err := lockProduct(ctx, tx, productID); err != nil {
		return "", err
	}
	return productID, nil
}

func marshalModeration(v *domain.ModerationVerdict) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal moderation: %w", err)
	}
	return b, nil
}

// scanReview scans reviewColumns followed by any extra destinations.
func scanReview(row pgx.Row, extra ...any) (*domain.Review, error) {
	return scanReviewWith(row, nil, extra)
}

// scanReviewAfter scans leading destinations followed by reviewColumns.
func scanReviewAfter(row pgx.Row, leading ...any) (*domain.Review, error) {
	return scanReviewWith(row, leading, nil)
}

func scanReviewWith(row pgx.Row, leading, extra []any) (*domain.Review, error) {
	var (
		rv             domain.Review
		status         string
		moderationJSON []byte
	)

	dest := make([]any, 0, len(leading)+12+len(extra))
	dest = append(dest, leading...)
	dest = append(dest,
		&rv.ID,
		&rv.ProductID,
		&rv.UserID,
		&rv.Rating,
		&rv.Title,
		&rv.Body,
		&rv.Pros,
		&rv.Cons,
		&status,
		&moderationJSON,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	rv.Status = domain.ReviewStatus(status)
	if moderationJSON != nil {
		var v domain.ModerationVerdict
		if err := json.Unmarshal(moderationJSON, &v); err != nil {
			return nil, fmt.Errorf("unmarshal moderation: %w", err)
		}
		rv.Moderation = &v
	}
	if rv.Pros == nil {
		rv.Pros = []string{}
	}
	if rv.Cons == nil {
		rv.Cons = []string{}
	}

	return &rv, nil
}
