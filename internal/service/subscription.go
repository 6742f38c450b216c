package service

import (
	"context"
	"log"

	"matchday/internal/model"
	"matchday/internal/repository"
)

// SubscriptionService manages which entities a user follows.
type SubscriptionService struct {
	repo repository.SubscriptionRepository
}

func NewSubscriptionService(repo repository.SubscriptionRepository) *SubscriptionService {
	return &SubscriptionService{repo: repo}
}

// Subscribe is idempotent; created=false when the subscription already existed.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID int64, subType string, entityID int64) (bool, error) {
	t, err := model.ParseSubscriptionType(subType)
	if err != nil {
		return false, err
	}
	if entityID <= 0 {
		return false, model.NewValidationError("entity_id", "entity_id must be positive")
	}

	created, err := s.repo.Create(ctx, userID, t, entityID)
	if err != nil {
		log.Printf("[Subscriptions] Subscribe FAILED: user=%d type=%s entity=%d err=%v", userID, t, entityID, err)
		return false, err
	}
	return created, nil
}

// Unsubscribe returns model.ErrSubscriptionNotFound when nothing was removed.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, userID int64, subType string, entityID int64) error {
	t, err := model.ParseSubscriptionType(subType)
	if err != nil {
		return err
	}

	removed, err := s.repo.Delete(ctx, userID, t, entityID)
	if err != nil {
		return err
	}
	if !removed {
		return model.ErrSubscriptionNotFound
	}
	return nil
}

func (s *SubscriptionService) List(ctx context.Context, userID int64) ([]model.Subscription, error) {
	return s.repo.ListByUser(ctx, userID)
}
