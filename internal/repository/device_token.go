package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"matchday/internal/model"
)

type deviceTokenRepository struct {
	db *sqlx.DB
}

func NewDeviceTokenRepository(db *sqlx.DB) DeviceTokenRepository {
	return &deviceTokenRepository{db: db}
}

// Upsert creates or refreshes a device token for a user.
// Re-registering the same (user, token) bumps updated_at and keeps the
// old device name unless a new one is given.
func (r *deviceTokenRepository) Upsert(ctx context.Context, userID int64, token string, deviceName *string) (int64, error) {
	query := `
		INSERT INTO push_tokens (user_id, token, device_name, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, token) DO UPDATE SET
			device_name = COALESCE(EXCLUDED.device_name, push_tokens.device_name),
			updated_at = NOW()
		RETURNING id
	`
	var id int64
	if err := r.db.GetContext(ctx, &id, query, userID, token, deviceName); err != nil {
		return 0, fmt.Errorf("upsert device token: %w", err)
	}
	return id, nil
}

// GetByUserID returns all device tokens for a user.
func (r *deviceTokenRepository) GetByUserID(ctx context.Context, userID int64) ([]model.DeviceToken, error) {
	query := `
		SELECT id, user_id, token, device_name, created_at, updated_at
		FROM push_tokens
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	var tokens []model.DeviceToken
	err := r.db.SelectContext(ctx, &tokens, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get device tokens: %w", err)
	}
	return tokens, nil
}

// GetByUserIDs returns the tokens of many users in one round-trip.
func (r *deviceTokenRepository) GetByUserIDs(ctx context.Context, userIDs []int64) ([]model.DeviceToken, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, user_id, token, device_name, created_at, updated_at
		FROM push_tokens
		WHERE user_id = ANY($1)
		ORDER BY user_id, updated_at DESC
	`
	var tokens []model.DeviceToken
	err := r.db.SelectContext(ctx, &tokens, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("get device tokens for users: %w", err)
	}
	return tokens, nil
}

// Delete removes one user's device token.
func (r *deviceTokenRepository) Delete(ctx context.Context, userID int64, token string) (bool, error) {
	query := `DELETE FROM push_tokens WHERE user_id = $1 AND token = $2`
	res, err := r.db.ExecContext(ctx, query, userID, token)
	if err != nil {
		return false, fmt.Errorf("delete device token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete device token rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteByToken removes a token regardless of owner (gateway said it is dead).
func (r *deviceTokenRepository) DeleteByToken(ctx context.Context, token string) (int64, error) {
	query := `DELETE FROM push_tokens WHERE token = $1`
	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return 0, fmt.Errorf("prune device token: %w", err)
	}
	return res.RowsAffected()
}
