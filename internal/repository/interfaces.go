package repository

import (
	"context"
	"time"

	"matchday/internal/model"
)

type UserRepository interface {
	GetSummary(ctx context.Context, id int64) (*model.UserSummary, error)
}

type MatchRepository interface {
	// GetContext loads a match with both teams and its competition.
	GetContext(ctx context.Context, matchID int64) (*model.MatchContext, error)
	// ListScheduledBetween returns ids of scheduled matches kicking off in [from, to).
	ListScheduledBetween(ctx context.Context, from, to time.Time) ([]int64, error)
}

type CommentRepository interface {
	// GetByID returns a comment joined with its author's username.
	GetByID(ctx context.Context, commentID int64) (*model.Comment, error)
}

type NotificationRepository interface {
	// InsertBatch writes all rows in one statement inside one transaction.
	// Either every row is stored or none is.
	InsertBatch(ctx context.Context, rows []model.Notification) (int64, error)
	// List returns notifications newest first, paginated by id cursor
	List(ctx context.Context, userID int64, cursor *int64, limit int) ([]model.Notification, *int64, error)
	// MarkAsRead marks specific notifications as read
	MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) (int64, error)
	// MarkAllAsRead marks all notifications for a user as read
	MarkAllAsRead(ctx context.Context, userID int64) (int64, error)
	// GetUnreadCount returns the count of unread notifications
	GetUnreadCount(ctx context.Context, userID int64) (int, error)
}

type NotificationSettingRepository interface {
	// Get returns the stored row, or found=false when the user never configured settings.
	Get(ctx context.Context, userID int64) (setting *model.NotificationSetting, found bool, err error)
	// GetOrCreate lazily inserts the default row and returns the stored row.
	GetOrCreate(ctx context.Context, userID int64) (*model.NotificationSetting, error)
	// Save writes every column of the row.
	Save(ctx context.Context, setting *model.NotificationSetting) error
}

// AudienceMember is one broadcast candidate with the data needed for the push gate.
type AudienceMember struct {
	UserID          int64   `db:"user_id"`
	QuietHoursStart *string `db:"quiet_hours_start"`
	QuietHoursEnd   *string `db:"quiet_hours_end"`
}

type AudienceRepository interface {
	// BroadcastAudience returns users with push enabled and the category flag set
	// (absent settings count as enabled), restricted to subscribers of the filter
	// entity when filter is non-nil.
	BroadcastAudience(ctx context.Context, category model.EventCategory, filter *model.SubscriptionFilter) ([]AudienceMember, error)
}

type SubscriptionRepository interface {
	// Create inserts the subscription; created=false when it already existed
	Create(ctx context.Context, userID int64, subType model.SubscriptionType, entityID int64) (created bool, err error)
	// Delete removes the subscription; removed=false when it did not exist
	Delete(ctx context.Context, userID int64, subType model.SubscriptionType, entityID int64) (removed bool, err error)
	// ListByUser returns all subscriptions of a user
	ListByUser(ctx context.Context, userID int64) ([]model.Subscription, error)
}

type DeviceTokenRepository interface {
	// Upsert creates or refreshes a (user, token) pair and returns its id
	Upsert(ctx context.Context, userID int64, token string, deviceName *string) (int64, error)
	// GetByUserID returns all device tokens for a user
	GetByUserID(ctx context.Context, userID int64) ([]model.DeviceToken, error)
	// GetByUserIDs returns all device tokens owned by any of the users
	GetByUserIDs(ctx context.Context, userIDs []int64) ([]model.DeviceToken, error)
	// Delete removes one user's token; removed=false when absent
	Delete(ctx context.Context, userID int64, token string) (removed bool, err error)
	// DeleteByToken removes the token for every owner
	DeleteByToken(ctx context.Context, token string) (int64, error)
}
