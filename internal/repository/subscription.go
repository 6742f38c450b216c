package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"matchday/internal/model"
)

type subscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create inserts a subscription. Duplicate subscribes are a no-op.
func (r *subscriptionRepository) Create(ctx context.Context, userID int64, subType model.SubscriptionType, entityID int64) (bool, error) {
	query := `
		INSERT INTO subscriptions (user_id, subscription_type, entity_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, subscription_type, entity_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, userID, string(subType), entityID)
	if err != nil {
		return false, fmt.Errorf("insert subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert subscription rows affected: %w", err)
	}
	return n > 0, nil
}

// Delete removes a subscription if present.
func (r *subscriptionRepository) Delete(ctx context.Context, userID int64, subType model.SubscriptionType, entityID int64) (bool, error) {
	query := `
		DELETE FROM subscriptions
		WHERE user_id = $1 AND subscription_type = $2 AND entity_id = $3
	`
	res, err := r.db.ExecContext(ctx, query, userID, string(subType), entityID)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete subscription rows affected: %w", err)
	}
	return n > 0, nil
}

// ListByUser returns a user's subscriptions, newest first.
func (r *subscriptionRepository) ListByUser(ctx context.Context, userID int64) ([]model.Subscription, error) {
	query := `
		SELECT id, user_id, subscription_type, entity_id, created_at
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	subs := []model.Subscription{}
	if err := r.db.SelectContext(ctx, &subs, query, userID); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}
