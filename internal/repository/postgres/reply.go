package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
	"github.com/emrahgewer/yorumatorapp/pkg/database"
)

const replyColumns = `id, review_id, user_id, parent_reply_id, body, created_at, updated_at`

// ReplyRepository implements repository.ReplyRepository using PostgreSQL.
type ReplyRepository struct {
	pool database.DBTX
}

// NewReplyRepository creates a new PostgreSQL-backed reply repository.
func NewReplyRepository(pool database.DBTX) *ReplyRepository {
	return &ReplyRepository{pool: pool}
}

// Create inserts a reply. Parent validation happens before the insert.
func (r *ReplyRepository) Create(ctx context.Context, rp *domain.Reply) error {
	query := `
		INSERT INTO review_replies (` + replyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		rp.ID,
		rp.ReviewID,
		rp.UserID,
		rp.ParentReplyID,
		rp.Body,
		rp.CreatedAt,
		rp.UpdatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			switch database.ConstraintName(err) {
			case "review_replies_parent_reply_id_fkey":
				return notFound("reply", derefOr(rp.ParentReplyID), domain.CodeReplyNotFound)
			case "review_replies_user_id_fkey":
				return notFound("user", rp.UserID, domain.CodeUserNotFound)
			}
			return notFound("review", rp.ReviewID, domain.CodeReviewNotFound)
		}
		return fmt.Errorf("insert reply: %w", err)
	}
	return nil
}

// GetByID retrieves a reply by its ID.
func (r *ReplyRepository) GetByID(ctx context.Context, id string) (*domain.Reply, error) {
	query := `SELECT ` + replyColumns + ` FROM review_replies WHERE id = $1`

	rp, err := scanReply(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("reply", id, domain.CodeReplyNotFound)
		}
		return nil, fmt.Errorf("get reply: %w", err)
	}
	return rp, nil
}

// ListRoots returns a page of top-level replies, oldest first.
func (r *ReplyRepository) ListRoots(ctx context.Context, reviewID string, offset, limit int) ([]domain.Reply, error) {
	query := `
		SELECT ` + replyColumns + `
		FROM review_replies
		WHERE review_id = $1 AND parent_reply_id IS NULL
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3`

	return r.scanReplies(ctx, query, reviewID, limit, offset)
}

// ListChildren returns the direct children of the given parents, oldest first.
func (r *ReplyRepository) ListChildren(ctx context.Context, parentIDs ...string) ([]domain.Reply, error) {
	if len(parentIDs) == 0 {
		return []domain.Reply{}, nil
	}

	query := `
		SELECT ` + replyColumns + `
		FROM review_replies
		WHERE parent_reply_id = ANY($1::uuid[])
		ORDER BY created_at ASC, id ASC`

	return r.scanReplies(ctx, query, parentIDs)
}

func (r *ReplyRepository) scanReplies(ctx context.Context, query string, args ...any) ([]domain.Reply, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query replies: %w", err)
	}
	defer rows.Close()

	replies := make([]domain.Reply, 0)
	for rows.Next() {
		rp, err := scanReply(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reply row: %w", err)
		}
		replies = append(replies, *rp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reply rows: %w", err)
	}

	return replies, nil
}

func scanReply(row pgx.Row) (*domain.Reply, error) {
	var rp domain.Reply
	if err := row.Scan(
		&rp.ID,
		&rp.ReviewID,
		&rp.UserID,
		&rp.ParentReplyID,
		&rp.Body,
		&rp.CreatedAt,
		&rp.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &rp, nil
}

func derefOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
