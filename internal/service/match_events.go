package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"matchday/internal/model"
)

// NotifyMatchEvent tells every subscriber of a match about a reminder,
// kick-off or full time, subject to their preference for that event.
func (s *NotificationService) NotifyMatchEvent(ctx context.Context, matchID int64, event model.MatchLifecycleEvent) (*model.DispatchResult, error) {
	category := event.Category()
	if category == model.CategoryNone {
		return nil, model.NewValidationError("event", fmt.Sprintf("unknown match event %q", event))
	}

	match, err := s.matchRepo.GetContext(ctx, matchID)
	if err != nil {
		return nil, err
	}

	title, message := matchEventText(match, event, s.loc)
	draft := model.NotificationDraft{
		Category: category,
		Title:    title,
		Message:  message,
		Related:  &model.RelatedEntity{Type: model.EntityMatch, ID: match.ID},
		NavigationData: model.NavigationData{
			Screen: model.ScreenMatchDetail,
			Params: map[string]any{
				"matchId": match.ID,
				"match":   match.Summary(),
			},
		},
	}

	filter := &model.SubscriptionFilter{Type: model.SubscriptionMatch, EntityID: match.ID}
	recipients, err := s.selector.SelectBroadcast(ctx, category, filter, s.now())
	if err != nil {
		return nil, err
	}

	result, err := s.deliver(ctx, recipients, draft)
	if err != nil {
		log.Printf("[MatchEvents] %s FAILED: match=%d err=%v", event, matchID, err)
		return nil, err
	}
	log.Printf("[MatchEvents] %s OK: match=%d stored=%d reached=%d", event, matchID, result.NotificationsStored, result.UsersReached)
	return result, nil
}

// UpcomingReminders returns scheduled matches kicking off in
// [now+lead, now+lead+window). Running it once per window reminds each match once.
func (s *NotificationService) UpcomingReminders(ctx context.Context, lead, window time.Duration) ([]int64, error) {
	if window <= 0 {
		return nil, model.NewValidationError("window", "must be positive")
	}
	from := s.now().Add(lead)
	return s.matchRepo.ListScheduledBetween(ctx, from, from.Add(window))
}

// matchEventText builds the title and message of a lifecycle notification.
func matchEventText(m *model.MatchContext, event model.MatchLifecycleEvent, loc *time.Location) (title, message string) {
	fixture := fmt.Sprintf("%s vs %s", m.HomeTeam.Name, m.AwayTeam.Name)

	switch event {
	case model.MatchEventReminder:
		title = "Kick-off soon: " + fixture
		message = fmt.Sprintf("%s (%s) kicks off at %s", fixture, m.Competition.Name,
			m.KickoffAt.In(loc).Format("15:04 MST"))
		if m.Venue != nil && *m.Venue != "" {
			message += " at " + *m.Venue
		}
		message += "."
	case model.MatchEventStart:
		title = "Kick-off: " + fixture
		message = fmt.Sprintf("%s has started in the %s.", fixture, m.Competition.Name)
	case model.MatchEventEnd:
		if m.HomeScore != nil && m.AwayScore != nil {
			score := fmt.Sprintf("%s %d-%d %s", m.HomeTeam.Name, *m.HomeScore, *m.AwayScore, m.AwayTeam.Name)
			title = "Full time: " + score
			message = fmt.Sprintf("Full time in the %s: %s.", m.Competition.Name, score)
		} else {
			title = "Full time: " + fixture
			message = fmt.Sprintf("%s has finished.", fixture)
		}
	}
	return title, message
}
