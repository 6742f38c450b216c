package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"matchday/internal/model"
	"matchday/internal/repository"
)

const (
	defaultListLimit = 20
	maxListLimit     = 50
)

// NotificationService is the entry point for everything that creates or reads
// notifications: event assemblers, targeted and broadcast sends, device
// registration and the in-app notification centre.
//
// Every send follows the same pipeline: select recipients, persist one record
// per recipient, then fan the push out to their devices. Push is never
// attempted when persisting failed.
type NotificationService struct {
	selector    *RecipientSelector
	persister   *NotificationPersister
	dispatcher  *PushDispatcher
	registry    *DeviceTokenRegistry
	notifRepo   repository.NotificationRepository
	matchRepo   repository.MatchRepository
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
	loc         *time.Location
	now         func() time.Time
}

// NotificationServiceDeps wires a NotificationService.
type NotificationServiceDeps struct {
	Selector    *RecipientSelector
	Persister   *NotificationPersister
	Dispatcher  *PushDispatcher
	Registry    *DeviceTokenRegistry
	NotifRepo   repository.NotificationRepository
	MatchRepo   repository.MatchRepository
	CommentRepo repository.CommentRepository
	UserRepo    repository.UserRepository
	Location    *time.Location // used for kickoff times in messages
}

func NewNotificationService(d NotificationServiceDeps) *NotificationService {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	return &NotificationService{
		selector:    d.Selector,
		persister:   d.Persister,
		dispatcher:  d.Dispatcher,
		registry:    d.Registry,
		notifRepo:   d.NotifRepo,
		matchRepo:   d.MatchRepo,
		commentRepo: d.CommentRepo,
		userRepo:    d.UserRepo,
		loc:         loc,
		now:         time.Now,
	}
}

// SendTargeted notifies one explicit user.
func (s *NotificationService) SendTargeted(ctx context.Context, req model.TargetedRequest) (*model.DispatchResult, error) {
	if req.UserID <= 0 {
		return nil, model.NewValidationError("user_id", "user_id is required")
	}
	if err := validateContent(req.Title, req.Message); err != nil {
		return nil, err
	}

	recipients, err := s.selector.SelectTargeted(ctx, req.UserID, req.Category, s.now())
	if err != nil {
		return nil, err
	}
	return s.deliver(ctx, recipients, req.Draft())
}

// Broadcast notifies every user opted in to req.Category, limited to
// subscribers of req.Filter when set. Interactive categories are rejected.
func (s *NotificationService) Broadcast(ctx context.Context, req model.BroadcastRequest) (*model.DispatchResult, error) {
	if err := validateContent(req.Title, req.Message); err != nil {
		return nil, err
	}
	if req.Filter != nil && (!req.Filter.Type.Valid() || req.Filter.EntityID <= 0) {
		return nil, model.NewValidationError("subscription_filter", "subscription_type and entity_id are required")
	}

	recipients, err := s.selector.SelectBroadcast(ctx, req.Category, req.Filter, s.now())
	if err != nil {
		return nil, err
	}
	return s.deliver(ctx, recipients, req.Draft())
}

// deliver persists for every selected user, then pushes to the push subset.
func (s *NotificationService) deliver(ctx context.Context, recipients Recipients, draft model.NotificationDraft) (*model.DispatchResult, error) {
	if recipients.Empty() {
		return model.EmptyDispatchResult(), nil
	}

	stored, err := s.persister.Persist(ctx, recipients.Notify, draft)
	if err != nil {
		return nil, err
	}

	result, err := s.dispatcher.Dispatch(ctx, recipients.Push, pushMessage(draft))
	if err != nil {
		// Records are committed, so the call must not fail or be retried.
		log.Printf("[Notification] Push SKIPPED: stored=%d push_targets=%d err=%v", stored, len(recipients.Push), err)
		result = undeliveredResult(recipients.Push, err)
	}
	result.NotificationsStored = stored
	return result, nil
}

// undeliveredResult reports every push target as a transient failure when the
// fan-out could not start.
func undeliveredResult(userIDs []int64, cause error) *model.DispatchResult {
	users := uniqueIDs(userIDs)
	result := &model.DispatchResult{UsersTargeted: len(users)}
	for _, id := range users {
		result.Errors = append(result.Errors, model.TokenError{
			UserID:  id,
			Outcome: model.OutcomeTransientFailure,
			Error:   fmt.Sprintf("push not attempted: %v", cause),
		})
	}
	return result
}

// pushMessage builds the push payload. The navigation payload is the one stored
// with the record so push taps and the notification centre open the same screen.
func pushMessage(draft model.NotificationDraft) model.PushMessage {
	data := map[string]any{
		"type": draft.Category.String(),
	}
	if !draft.NavigationData.IsZero() {
		data["navigationData"] = draft.NavigationData
	}
	if draft.Related != nil {
		data["relatedEntityType"] = draft.Related.Type
		data["relatedEntityId"] = draft.Related.ID
	}
	return model.PushMessage{
		Title: draft.Title,
		Body:  draft.Message,
		Data:  data,
	}
}

func validateContent(title, message string) error {
	if strings.TrimSpace(title) == "" {
		return model.NewValidationError("title", "title is required")
	}
	if strings.TrimSpace(message) == "" {
		return model.NewValidationError("message", "message is required")
	}
	return nil
}

// RegisterToken stores or refreshes a device push token.
func (s *NotificationService) RegisterToken(ctx context.Context, userID int64, token string, deviceName *string) (int64, error) {
	return s.registry.Upsert(ctx, userID, token, deviceName)
}

// UnregisterToken removes a device push token (logout, uninstall).
func (s *NotificationService) UnregisterToken(ctx context.Context, userID int64, token string) (bool, error) {
	return s.registry.Remove(ctx, userID, token)
}

// ListDevices returns the user's registered devices.
func (s *NotificationService) ListDevices(ctx context.Context, userID int64) ([]model.DeviceToken, error) {
	return s.registry.Devices(ctx, userID)
}

// GetNotifications returns one page of the user's notifications, newest first.
func (s *NotificationService) GetNotifications(ctx context.Context, userID int64, cursor *int64, limit int) (*model.NotificationListResponse, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	notifications, next, err := s.notifRepo.List(ctx, userID, cursor, limit)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}

	unread, err := s.notifRepo.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.NotificationListResponse{
		Notifications: notifications,
		NextCursor:    next,
		HasMore:       next != nil,
		UnreadCount:   unread,
	}, nil
}

// MarkAsRead marks specific notifications as read. Ids of other users are ignored.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) (int64, error) {
	ids := uniqueIDs(notificationIDs)
	if len(ids) == 0 {
		return 0, model.NewValidationError("notification_ids", "at least one id is required")
	}
	return s.notifRepo.MarkAsRead(ctx, userID, ids)
}

// MarkAllAsRead marks all notifications for a user as read.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	return s.notifRepo.MarkAllAsRead(ctx, userID)
}

// GetUnreadCount returns the number of unread notifications (for badge display).
func (s *NotificationService) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.notifRepo.GetUnreadCount(ctx, userID)
}

// actorName returns a display name for the user who triggered an event.
// Lookup failures degrade to a generic name rather than failing the send.
func (s *NotificationService) actorName(ctx context.Context, userID int64) string {
	u, err := s.userRepo.GetSummary(ctx, userID)
	if err != nil {
		log.Printf("[NotificationService] Actor lookup failed: user=%d err=%v", userID, err)
		return "Someone"
	}
	return u.Name()
}
