package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
	"github.com/emrahgewer/yorumatorapp/pkg/database"
)

const (
	lockProductQuery = `SELECT id FROM products WHERE id = $1 FOR UPDATE`

	approvedStatsQuery = `
		SELECT COUNT(*), COALESCE(SUM(rating), 0)
		FROM reviews
		WHERE product_id = $1 AND status = 'approved'`

	storeRatingQuery = `
		UPDATE products
		SET average_rating = $1, review_count = $2, updated_at = NOW()
		WHERE id = $3`
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.Pool
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetRating returns the stored rating aggregate of a product.
func (r *ProductRepository) GetRating(ctx context.Context, productID string) (*domain.ProductRating, error) {
	query := `SELECT id, average_rating, review_count FROM products WHERE id = $1`

	var pr domain.ProductRating
	err := r.pool.QueryRow(ctx, query, productID).Scan(&pr.ProductID, &pr.AverageRating, &pr.ReviewCount)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("product", productID, domain.CodeProductNotFound)
		}
		return nil, fmt.Errorf("get product rating: %w", err)
	}
	return &pr, nil
}

// RefreshRating recomputes the aggregate of a product in its own transaction.
func (r *ProductRepository) RefreshRating(ctx context.Context, productID string) (*domain.ProductRating, error) {
	var rating *domain.ProductRating
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockProduct(ctx, tx, productID); err != nil {
			return err
		}
		var err error
		rating, err = recomputeRating(ctx, tx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

// lockProduct takes the row lock that serializes rating refreshes of one
// product. It must be the first lock a review write takes on the product.
func lockProduct(ctx context.Context, tx pgx.Tx, productID string) error {
	var id string
	if err := tx.QueryRow(ctx, lockProductQuery, productID).Scan(&id); err != nil {
		if isNoRows(err) {
			return notFound("product", productID, domain.CodeProductNotFound)
		}
		return fmt.Errorf("lock product: %w", err)
	}
	return nil
}

// recomputeRating derives the aggregate from the approved reviews and stores
// it. The caller must hold the product lock.
func recomputeRating(ctx context.Context, tx pgx.Tx, productID string) (rating *domain.ProductRating, err error) {
	ctx, end := database.TraceQuery(ctx, "RecomputeRating", approvedStatsQuery)
	defer func() { end(err) }()

	var count, sum int
	if err = tx.QueryRow(ctx, approvedStatsQuery, productID).Scan(&count, &sum); err != nil {
		return nil, fmt.Errorf("aggregate approved reviews: %w", err)
	}

	avg := domain.AverageRating(sum, count)
	if _, err = tx.Exec(ctx, storeRatingQuery, avg, count, productID); err != nil {
		return nil, fmt.Errorf("store product rating: %w", err)
	}

	return &domain.ProductRating{ProductID: productID, AverageRating: avg, ReviewCount: count}, nil
}
