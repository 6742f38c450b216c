package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"matchday/internal/model"
)

type audienceRepository struct {
	db *sqlx.DB
}

func NewAudienceRepository(db *sqlx.DB) AudienceRepository {
	return &audienceRepository{db: db}
}

// BroadcastAudience computes the broadcast candidate set in one query.
// Users without a notification_settings row pass both gates (COALESCE to true).
func (r *audienceRepository) BroadcastAudience(ctx context.Context, category model.EventCategory, filter *model.SubscriptionFilter) ([]AudienceMember, error) {
	column := category.SettingColumn()
	if column == "" {
		return nil, fmt.Errorf("category %s has no settings column", category)
	}

	// column comes from a closed switch, never from user input
	gate := fmt.Sprintf(`COALESCE(ns.push_enabled, true) AND COALESCE(ns.%s, true)`, column)

	var (
		query string
		args  []any
	)
	if filter != nil {
		query = `
			SELECT DISTINCT s.user_id, ns.quiet_hours_start, ns.quiet_hours_end
			FROM subscriptions s
			LEFT JOIN notification_settings ns ON ns.user_id = s.user_id
			WHERE s.subscription_type = $1 AND s.entity_id = $2 AND ` + gate + `
			ORDER BY s.user_id
		`
		args = []any{string(filter.Type), filter.EntityID}
	} else {
		query = `
			SELECT u.id AS user_id, ns.quiet_hours_start, ns.quiet_hours_end
			FROM users u
			LEFT JOIN notification_settings ns ON ns.user_id = u.id
			WHERE ` + gate + `
			ORDER BY u.id
		`
	}

	var members []AudienceMember
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, fmt.Errorf("select broadcast audience: %w", err)
	}
	return members, nil
}
