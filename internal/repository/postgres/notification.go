package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/emrahgewer/yorumatorapp/internal/domain"
	"github.com/emrahgewer/yorumatorapp/pkg/database"
	apperrors "github.com/emrahgewer/yorumatorapp/pkg/errors"
)

const notificationColumns = `id, user_id, type, title, message, is_read, related_product_id, related_review_id, related_user_id, payload, created_at`

// NotificationRepository implements repository.NotificationRepository using PostgreSQL.
type NotificationRepository struct {
	pool database.DBTX
}

// NewNotificationRepository creates a new PostgreSQL-backed notification repository.
func NewNotificationRepository(pool database.DBTX) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// Create inserts a new notification.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	payloadJSON, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.pool.Exec(ctx, query,
		n.ID,
		n.UserID,
		string(n.Type),
		n.Title,
		n.Message,
		n.IsRead,
		n.RelatedProductID,
		n.RelatedReviewID,
		n.RelatedUserID,
		payloadJSON,
		n.CreatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return notificationReferenceError(err, n)
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// CreateMany inserts ns in a single statement, so either every row is
// written or none is. Rows addressed to users that no longer exist are
// skipped; the number written is returned.
func (r *NotificationRepository) CreateMany(ctx context.Context, ns []*domain.Notification) (created int64, err error) {
	if len(ns) == 0 {
		return 0, nil
	}

	const width = 11
	values := make([]string, 0, len(ns))
	args := make([]any, 0, len(ns)*width)
	for i, n := range ns {
		payloadJSON, err := json.Marshal(n.Payload)
		if err != nil {
			return 0, fmt.Errorf("marshal payload: %w", err)
		}
		p := i * width
		values = append(values, fmt.Sprintf(
			"($%d::uuid, $%d::uuid, $%d::notification_type, $%d::text, $%d::text, $%d::boolean, $%d::uuid, $%d::uuid, $%d::uuid, $%d::jsonb, $%d::timestamptz)",
			p+1, p+2, p+3, p+4, p+5, p+6, p+7, p+8, p+9, p+10, p+11,
		))
		args = append(args,
			n.ID,
			n.UserID,
			string(n.Type),
			n.Title,
			n.Message,
			n.IsRead,
			n.RelatedProductID,
			n.RelatedReviewID,
			n.RelatedUserID,
			payloadJSON,
			n.CreatedAt,
		)
	}

	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		SELECT v.id, v.user_id, v.type, v.title, v.message, v.is_read,
		       v.related_product_id, v.related_review_id, v.related_user_id, v.payload, v.created_at
		FROM (VALUES ` + strings.Join(values, ", ") + `) AS v (` + notificationColumns + `)
		JOIN users u ON u.id = v.user_id`

	ctx, end := database.TraceQuery(ctx, "CreateNotifications", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return 0, notificationReferenceError(err, ns[0])
		}
		return 0, fmt.Errorf("insert notifications: %w", err)
	}
	return ct.RowsAffected(), nil
}

// notificationReferenceError maps a foreign key violation to the missing
// resource. n supplies the ids; rows of one batch share their references.
func notificationReferenceError(err error, n *domain.Notification) error {
	switch database.ConstraintName(err) {
	case "notifications_related_product_id_fkey":
		return notFound("product", derefOr(n.RelatedProductID), domain.CodeProductNotFound)
	case "notifications_related_review_id_fkey":
		return notFound("review", derefOr(n.RelatedReviewID), domain.CodeReviewNotFound)
	case "notifications_related_user_id_fkey":
		return notFound("user", derefOr(n.RelatedUserID), domain.CodeUserNotFound)
	}
	return notFound("user", n.UserID, domain.CodeUserNotFound)
}

// CreateForFollowers fans n out to every follower of userID in one statement.
func (r *NotificationRepository) CreateForFollowers(ctx context.Context, userID string, n *domain.Notification) (created int64, err error) {
	payloadJSON, err := json.Marshal(n.Payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}

	query := `
		INSERT INTO notifications (user_id, type, title, message, related_product_id, related_review_id, related_user_id, payload)
		SELECT f.follower_id, $2::notification_type, $3, $4, $5::uuid, $6::uuid, $7::uuid, $8::jsonb
		FROM follows f
		WHERE f.following_id = $1`

	ctx, end := database.TraceQuery(ctx, "FanOutNotification", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query,
		userID,
		string(n.Type),
		n.Title,
		n.Message,
		n.RelatedProductID,
		n.RelatedReviewID,
		n.RelatedUserID,
		payloadJSON,
	)
	if err != nil {
		return 0, fmt.Errorf("fan out notification: %w", err)
	}
	return ct.RowsAffected(), nil
}

// List returns a user's notifications newest first.
func (r *NotificationRepository) List(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]domain.Notification, int, error) {
	query := `
		SELECT ` + notificationColumns + `, count(*) OVER() AS total_count
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR is_read = FALSE)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var total int
	notifications := make([]domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan notification row: %w", err)
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate notification rows: %w", err)
	}

	return notifications, total, nil
}

// UnreadCount counts the user's unread notifications.
func (r *NotificationRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flags one notification as read. The predicate does not filter on
// is_read so repeating the call still matches the row.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("notification", id).WithCode(domain.CodeNotificationNotFound)
	}
	return nil
}

// MarkAllRead flags every unread notification of the user.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	ct, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return ct.RowsAffected(), nil
}

func scanNotification(row pgx.Row, extra ...any) (*domain.Notification, error) {
	var (
		n           domain.Notification
		typ         string
		payloadJSON []byte
	)

	dest := append([]any{
		&n.ID,
		&n.UserID,
		&typ,
		&n.Title,
		&n.Message,
		&n.IsRead,
		&n.RelatedProductID,
		&n.RelatedReviewID,
		&n.RelatedUserID,
		&payloadJSON,
		&n.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	n.Type = domain.NotificationType(typ)
	payload, err := domain.DecodeNotificationPayload(n.Type, payloadJSON)
	if err != nil {
		return nil, err
	}
	n.Payload = payload

	return &n, nil
}
