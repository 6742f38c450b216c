package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"matchday/internal/database"
	"matchday/internal/model"
)

// insertChunkSize keeps each multi-row INSERT well under Postgres' 65535 bind parameter limit.
const insertChunkSize = 1000

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// InsertBatch inserts all rows with multi-row INSERTs inside a single transaction.
func (r *notificationRepository) InsertBatch(ctx context.Context, rows []model.Notification) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO notifications
			(user_id, notification_type, title, message, related_entity_type, related_entity_id, navigation_data)
		VALUES
			(:user_id, :notification_type, :title, :message, :related_entity_type, :related_entity_id, :navigation_data)
	`

	var inserted int64
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for start := 0; start < len(rows); start += insertChunkSize {
			end := min(start+insertChunkSize, len(rows))
			res, err := tx.NamedExecContext(ctx, query, rows[start:end])
			if err != nil {
				return fmt.Errorf("insert notifications: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("insert notifications rows affected: %w", err)
			}
			inserted += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// List returns notifications newest first. cursor is the last id of the previous page.
func (r *notificationRepository) List(ctx context.Context, userID int64, cursor *int64, limit int) ([]model.Notification, *int64, error) {
	query := `
		SELECT id, user_id, notification_type, title, message, related_entity_type,
		       related_entity_id, is_read, created_at, navigation_data
		FROM notifications
		WHERE user_id = $1 AND ($2::bigint IS NULL OR id < $2)
		ORDER BY id DESC
		LIMIT $3
	`

	var notifications []model.Notification
	// Fetch one extra row to know whether another page exists
	err := r.db.SelectContext(ctx, &notifications, query, userID, cursor, limit+1)
	if err != nil {
		return nil, nil, fmt.Errorf("list notifications: %w", err)
	}

	var next *int64
	if len(notifications) > limit {
		notifications = notifications[:limit]
		last := notifications[limit-1].ID
		next = &last
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	return notifications, next, nil
}

// MarkAsRead marks specific notifications as read.
func (r *notificationRepository) MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) (int64, error) {
	if len(notificationIDs) == 0 {
		return 0, nil
	}

	query := `
		UPDATE notifications
		SET is_read = true
		WHERE user_id = $1 AND id = ANY($2) AND is_read = false
	`
	res, err := r.db.ExecContext(ctx, query, userID, pq.Array(notificationIDs))
	if err != nil {
		return 0, fmt.Errorf("mark notifications as read: %w", err)
	}
	return res.RowsAffected()
}

// MarkAllAsRead marks all notifications for a user as read.
func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	query := `
		UPDATE notifications
		SET is_read = true
		WHERE user_id = $1 AND is_read = false
	`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications as read: %w", err)
	}
	return res.RowsAffected()
}

// GetUnreadCount returns the count of unread notifications.
func (r *notificationRepository) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	query := `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = $1 AND is_read = false
	`
	var count int
	err := r.db.GetContext(ctx, &count, query, userID)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("get unread count: %w", err)
	}
	return count, nil
}
