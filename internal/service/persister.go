package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"matchday/internal/metrics"
	"matchday/internal/model"
	"matchday/internal/repository"
)

// NotificationPersister writes one in-app record per recipient.
type NotificationPersister struct {
	repo    repository.NotificationRepository
	metrics *metrics.NotificationMetrics
}

func NewNotificationPersister(repo repository.NotificationRepository, m *metrics.NotificationMetrics) *NotificationPersister {
	return &NotificationPersister{repo: repo, metrics: m}
}

// Persist stores draft once for every distinct user id, all or nothing.
// Every row carries the same title, message and navigation payload.
// On error nothing was stored and the caller must not push.
func (p *NotificationPersister) Persist(ctx context.Context, userIDs []int64, draft model.NotificationDraft) (int, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return 0, model.NewValidationError("title", "title is required")
	}
	if strings.TrimSpace(draft.Message) == "" {
		return 0, model.NewValidationError("message", "message is required")
	}

	users := uniqueIDs(userIDs)
	if len(users) == 0 {
		return 0, nil
	}

	var (
		entityType *string
		entityID   *int64
	)
	if draft.Related != nil {
		t, id := draft.Related.Type, draft.Related.ID
		entityType, entityID = &t, &id
	}

	notificationType := draft.Category.String()
	rows := make([]model.Notification, len(users))
	for i, userID := range users {
		rows[i] = model.Notification{
			UserID:            userID,
			Type:              notificationType,
			Title:             draft.Title,
			Message:           draft.Message,
			RelatedEntityType: entityType,
			RelatedEntityID:   entityID,
			NavigationData:    draft.NavigationData,
		}
	}

	n, err := p.repo.InsertBatch(ctx, rows)
	if err != nil {
		log.Printf("[Persister] Persist FAILED: type=%s users=%d err=%v", notificationType, len(users), err)
		return 0, fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}

	p.metrics.RecordPersisted(notificationType, int(n))
	log.Printf("[Persister] Persist OK: type=%s stored=%d", notificationType, n)
	return int(n), nil
}
