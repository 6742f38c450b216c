package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"matchday/internal/model"
)

const settingColumns = `
	user_id, match_start, match_end, match_reminders, goals, cards, penalties, lineups,
	team_news, news, transfers, competition_updates, player_stats, comment_replies,
	comment_likes, mentions, push_enabled, email_enabled, quiet_hours_start,
	quiet_hours_end, created_at, updated_at
`

type notificationSettingRepository struct {
	db *sqlx.DB
}

func NewNotificationSettingRepository(db *sqlx.DB) NotificationSettingRepository {
	return &notificationSettingRepository{db: db}
}

// Get returns the stored settings row. A missing row is not an error.
func (r *notificationSettingRepository) Get(ctx context.Context, userID int64) (*model.NotificationSetting, bool, error) {
	query := `SELECT ` + settingColumns + ` FROM notification_settings WHERE user_id = $1`

	var s model.NotificationSetting
	err := r.db.GetContext(ctx, &s, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get notification settings: %w", err)
	}
	return &s, true, nil
}

// GetOrCreate inserts the default row if missing and returns the stored row.
// Column defaults in the schema are all true, matching model.DefaultNotificationSetting.
func (r *notificationSettingRepository) GetOrCreate(ctx context.Context, userID int64) (*model.NotificationSetting, error) {
	insert := `
		INSERT INTO notification_settings (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, insert, userID); err != nil {
		return nil, fmt.Errorf("create notification settings: %w", err)
	}

	s, found, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("notification settings for user %d vanished after insert", userID)
	}
	return s, nil
}

// Save upserts every column of the row.
func (r *notificationSettingRepository) Save(ctx context.Context, s *model.NotificationSetting) error {
	query := `
		INSERT INTO notification_settings (
			user_id, match_start, match_end, match_reminders, goals, cards, penalties, lineups,
			team_news, news, transfers, competition_updates, player_stats, comment_replies,
			comment_likes, mentions, push_enabled, email_enabled, quiet_hours_start, quiet_hours_end,
			updated_at
		) VALUES (
			:user_id, :match_start, :match_end, :match_reminders, :goals, :cards, :penalties, :lineups,
			:team_news, :news, :transfers, :competition_updates, :player_stats, :comment_replies,
			:comment_likes, :mentions, :push_enabled, :email_enabled, :quiet_hours_start, :quiet_hours_end,
			NOW()
		)
		ON CONFLICT (user_id) DO UPDATE SET
			match_start = EXCLUDED.match_start,
			match_end = EXCLUDED.match_end,
			match_reminders = EXCLUDED.match_reminders,
			goals = EXCLUDED.goals,
			cards = EXCLUDED.cards,
			penalties = EXCLUDED.penalties,
			lineups = EXCLUDED.lineups,
			team_news = EXCLUDED.team_news,
			news = EXCLUDED.news,
			transfers = EXCLUDED.transfers,
			competition_updates = EXCLUDED.competition_updates,
			player_stats = EXCLUDED.player_stats,
			comment_replies = EXCLUDED.comment_replies,
			comment_likes = EXCLUDED.comment_likes,
			mentions = EXCLUDED.mentions,
			push_enabled = EXCLUDED.push_enabled,
			email_enabled = EXCLUDED.email_enabled,
			quiet_hours_start = EXCLUDED.quiet_hours_start,
			quiet_hours_end = EXCLUDED.quiet_hours_end,
			updated_at = NOW()
	`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("save notification settings: %w", err)
	}
	return nil
}
