package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"matchday/internal/model"
	"matchday/internal/repository"
)

const maxTokenLength = 512

// DeviceTokenRegistry owns the mapping between users and their push tokens.
type DeviceTokenRegistry struct {
	repo repository.DeviceTokenRepository
}

func NewDeviceTokenRegistry(repo repository.DeviceTokenRepository) *DeviceTokenRegistry {
	return &DeviceTokenRegistry{repo: repo}
}

// Upsert stores or refreshes a token for a user. Rows are unique per
// (user, token); a device shared by several accounts is pushed once per fan-out.
func (r *DeviceTokenRegistry) Upsert(ctx context.Context, userID int64, token string, deviceName *string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, model.NewValidationError("token", "token is required")
	}
	if len(token) > maxTokenLength {
		return 0, model.NewValidationError("token", "token is too long")
	}
	if deviceName != nil {
		name := strings.TrimSpace(*deviceName)
		if name == "" {
			deviceName = nil
		} else {
			deviceName = &name
		}
	}

	id, err := r.repo.Upsert(ctx, userID, token, deviceName)
	if err != nil {
		log.Printf("[Registry] Upsert FAILED: user=%d err=%v", userID, err)
		return 0, err
	}
	log.Printf("[Registry] Upsert OK: user=%d token_id=%d", userID, id)
	return id, nil
}

// Remove deletes one token of a user. Removing an absent token is not an error.
func (r *DeviceTokenRegistry) Remove(ctx context.Context, userID int64, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, model.NewValidationError("token", "token is required")
	}
	removed, err := r.repo.Delete(ctx, userID, token)
	if err != nil {
		log.Printf("[Registry] Remove FAILED: user=%d err=%v", userID, err)
		return false, err
	}
	return removed, nil
}

// Devices returns the registered devices of one user, most recently refreshed first.
func (r *DeviceTokenRegistry) Devices(ctx context.Context, userID int64) ([]model.DeviceToken, error) {
	devices, err := r.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []model.DeviceToken{}
	}
	return devices, nil
}

// TokensFor returns the tokens of one user. Zero tokens is a valid result.
func (r *DeviceTokenRegistry) TokensFor(ctx context.Context, userID int64) ([]string, error) {
	byUser, err := r.TokensForUsers(ctx, []int64{userID})
	if err != nil {
		return nil, err
	}
	return byUser[userID], nil
}

// TokensForUsers resolves the distinct tokens of every user in one query.
// Users without devices are absent from the map.
func (r *DeviceTokenRegistry) TokensForUsers(ctx context.Context, userIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string)
	if len(userIDs) == 0 {
		return out, nil
	}

	rows, err := r.repo.GetByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve device tokens: %w", err)
	}

	seen := make(map[int64]map[string]struct{})
	for _, row := range rows {
		if seen[row.UserID] == nil {
			seen[row.UserID] = make(map[string]struct{})
		}
		if _, dup := seen[row.UserID][row.Token]; dup {
			continue
		}
		seen[row.UserID][row.Token] = struct{}{}
		out[row.UserID] = append(out[row.UserID], row.Token)
	}
	return out, nil
}

// Prune deletes a token the gateway reported as permanently invalid, for every owner.
func (r *DeviceTokenRegistry) Prune(ctx context.Context, token string) (int64, error) {
	n, err := r.repo.DeleteByToken(ctx, token)
	if err != nil {
		log.Printf("[Registry] Prune FAILED: token=%s err=%v", maskToken(token), err)
		return 0, err
	}
	log.Printf("[Registry] Prune OK: token=%s removed=%d", maskToken(token), n)
	return n, nil
}
