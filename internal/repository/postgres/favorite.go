package postgres

import (
	"context"
	"fmt"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
	"github.com/emrahgewer/yorumatorapp/pkg/database"
	apperrors "github.com/emrahgewer/yorumatorapp/pkg/errors"
)

// FavoriteRepository implements repository.FavoriteRepository using PostgreSQL.
type FavoriteRepository struct {
	pool database.DBTX
}

// NewFavoriteRepository creates a new PostgreSQL-backed favorite repository.
func NewFavoriteRepository(pool database.DBTX) *FavoriteRepository {
	return &FavoriteRepository{pool: pool}
}

// Add saves a product for the user.
func (r *FavoriteRepository) Add(ctx context.Context, userID, productID string) error {
	query := `
		INSERT INTO favorites (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	ct, err := r.pool.Exec(ctx, query, userID, productID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			if database.ConstraintName(err) == "favorites_user_id_fkey" {
				return notFound("user", userID, domain.CodeUserNotFound)
			}
			return notFound("product", productID, domain.CodeProductNotFound)
		}
		return fmt.Errorf("insert favorite: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.AlreadyExists("product is already in favorites").WithCode(domain.CodeAlreadyFavorited)
	}
	return nil
}

// Remove deletes a saved product.
func (r *FavoriteRepository) Remove(ctx context.Context, userID, productID string) error {
	ct, err := r.pool.Exec(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("favorite", productID).WithCode(domain.CodeNotFavorited)
	}
	return nil
}

// IsFavorite reports whether the user saved the product.
func (r *FavoriteRepository) IsFavorite(ctx context.Context, userID, productID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND product_id = $2)`,
		userID, productID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return exists, nil
}

// ListByUser returns the user's saved products, most recently saved first.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]domain.Favorite, int, error) {
	query := `
		SELECT f.product_id, p.name, f.created_at, count(*) OVER() AS total_count
		FROM favorites f
		JOIN products p ON p.id = f.product_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var total int
	favorites := make([]domain.Favorite, 0)
	for rows.Next() {
		var f domain.Favorite
		if err := rows.Scan(&f.ProductID, &f.ProductName, &f.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan favorite row: %w", err)
		}
		favorites = append(favorites, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate favorite rows: %w", err)
	}

	return favorites, total, nil
}
