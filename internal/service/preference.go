package service

import (
	"context"
	"log"

	"matchday/internal/cache"
	"matchday/internal/model"
	"matchday/internal/repository"
)

// PreferenceResolver answers "does this user want this category" with a
// Redis read-through in front of the settings table.
type PreferenceResolver struct {
	repo  repository.NotificationSettingRepository
	cache cache.SettingsCache // nil disables caching
}

func NewPreferenceResolver(repo repository.NotificationSettingRepository, settingsCache cache.SettingsCache) *PreferenceResolver {
	return &PreferenceResolver{repo: repo, cache: settingsCache}
}

// Resolve returns the user's settings. A user without a stored row resolves
// to DefaultSettings; the row is not created here.
func (p *PreferenceResolver) Resolve(ctx context.Context, userID int64) (model.Settings, error) {
	if p.cache != nil {
		if s, found, err := p.cache.Get(ctx, userID); err == nil && found {
			return s, nil
		}
		// Cache errors fall through to the database
	}

	row, found, err := p.repo.Get(ctx, userID)
	if err != nil {
		log.Printf("[Preferences] Resolve FAILED: user=%d err=%v", userID, err)
		return nil, err
	}

	var settings model.Settings = model.DefaultSettings{UserID: userID}
	if found {
		settings = model.ConfiguredSettings{Row: *row}
	}

	if p.cache != nil {
		_ = p.cache.Set(ctx, userID, settings)
	}
	return settings, nil
}

// IsEnabled reports whether category is enabled for the user. Users who
// never configured settings are opted in to everything.
func (p *PreferenceResolver) IsEnabled(ctx context.Context, userID int64, category model.EventCategory) (bool, error) {
	settings, err := p.Resolve(ctx, userID)
	if err != nil {
		return false, err
	}
	return settings.Allows(category), nil
}

// Invalidate drops the cached settings of a user after an update.
func (p *PreferenceResolver) Invalidate(ctx context.Context, userID int64) {
	if p.cache == nil {
		return
	}
	_ = p.cache.Invalidate(ctx, userID)
}
