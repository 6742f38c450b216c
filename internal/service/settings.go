package service

import (
	"context"
	"log"

	"matchday/internal/model"
	"matchday/internal/repository"
)

// SettingsService reads and updates per-user notification preferences.
type SettingsService struct {
	repo  repository.NotificationSettingRepository
	prefs *PreferenceResolver
}

func NewSettingsService(repo repository.NotificationSettingRepository, prefs *PreferenceResolver) *SettingsService {
	return &SettingsService{repo: repo, prefs: prefs}
}

// Get returns the user's settings, creating the default row on first read.
func (s *SettingsService) Get(ctx context.Context, userID int64) (*model.NotificationSetting, error) {
	return s.repo.GetOrCreate(ctx, userID)
}

// Update applies a partial update. Quiet hours must be set as a pair.
func (s *SettingsService) Update(ctx context.Context, userID int64, req *model.UpdateNotificationSettingRequest) (*model.NotificationSetting, error) {
	setting, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	req.Apply(setting)

	if (setting.QuietHoursStart == nil) != (setting.QuietHoursEnd == nil) {
		return nil, model.NewValidationError("quiet_hours", "quiet_hours_start and quiet_hours_end must be set together")
	}
	if setting.QuietHoursStart != nil {
		if _, err := model.ParseQuietHours(*setting.QuietHoursStart, *setting.QuietHoursEnd); err != nil {
			return nil, model.NewValidationError("quiet_hours", err.Error())
		}
	}

	if err := s.repo.Save(ctx, setting); err != nil {
		log.Printf("[Settings] Update FAILED: user=%d err=%v", userID, err)
		return nil, err
	}
	s.prefs.Invalidate(ctx, userID)

	log.Printf("[Settings] Update OK: user=%d", userID)
	return setting, nil
}
