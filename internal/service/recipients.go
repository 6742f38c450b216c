package service

import (
	"context"
	"log"
	"time"

	"matchday/internal/metrics"
	"matchday/internal/model"
	"matchday/internal/repository"
)

// Recipients is the outcome of recipient selection. Notify receives a stored
// record; Push, always a subset of Notify, also receives a device push.
type Recipients struct {
	Notify []int64
	Push   []int64
}

// Empty reports whether nobody is selected.
func (r Recipients) Empty() bool { return len(r.Notify) == 0 }

// RecipientSelector computes who receives an event.
type RecipientSelector struct {
	prefs    *PreferenceResolver
	audience repository.AudienceRepository
	loc      *time.Location // quiet hours are evaluated in this zone
	metrics  *metrics.NotificationMetrics
}

func NewRecipientSelector(prefs *PreferenceResolver, audience repository.AudienceRepository, loc *time.Location, m *metrics.NotificationMetrics) *RecipientSelector {
	if loc == nil {
		loc = time.UTC
	}
	return &RecipientSelector{prefs: prefs, audience: audience, loc: loc, metrics: m}
}

// SelectTargeted gates one explicit recipient. A disabled category skips the
// user entirely; disabled push or quiet hours only skip the push.
func (s *RecipientSelector) SelectTargeted(ctx context.Context, userID int64, category model.EventCategory, now time.Time) (Recipients, error) {
	settings, err := s.prefs.Resolve(ctx, userID)
	if err != nil {
		return Recipients{}, err
	}

	if !settings.Allows(category) {
		s.metrics.RecordSkipped("category_disabled")
		log.Printf("[Recipients] Targeted skipped: user=%d category=%s reason=category_disabled", userID, category)
		return Recipients{}, nil
	}

	r := Recipients{Notify: []int64{userID}}
	switch {
	case !settings.PushEnabled():
		s.metrics.RecordSkipped("push_disabled")
	case settings.InQuietHours(now.In(s.loc)):
		s.metrics.RecordSkipped("quiet_hours")
	default:
		r.Push = []int64{userID}
	}
	return r, nil
}

// SelectBroadcast computes the audience of a broadcastable category,
// restricted to subscribers of filter when given. Interactive categories are
// rejected before the store is queried.
func (s *RecipientSelector) SelectBroadcast(ctx context.Context, category model.EventCategory, filter *model.SubscriptionFilter, now time.Time) (Recipients, error) {
	if !category.Broadcastable() {
		return Recipients{}, &model.ValidationError{
			Field:   "category",
			Message: category.String() + " cannot be broadcast",
			Err:     model.ErrInvalidCategory,
		}
	}

	members, err := s.audience.BroadcastAudience(ctx, category, filter)
	if err != nil {
		log.Printf("[Recipients] Broadcast audience FAILED: category=%s err=%v", category, err)
		return Recipients{}, err
	}

	local := now.In(s.loc)
	r := Recipients{
		Notify: make([]int64, 0, len(members)),
		Push:   make([]int64, 0, len(members)),
	}
	for _, m := range members {
		r.Notify = append(r.Notify, m.UserID)
		if inQuietHours(m, local) {
			s.metrics.RecordSkipped("quiet_hours")
			continue
		}
		r.Push = append(r.Push, m.UserID)
	}

	log.Printf("[Recipients] Broadcast selected: category=%s notify=%d push=%d", category, len(r.Notify), len(r.Push))
	return r, nil
}

func inQuietHours(m repository.AudienceMember, t time.Time) bool {
	if m.QuietHoursStart == nil || m.QuietHoursEnd == nil {
		return false
	}
	qh, err := model.ParseQuietHours(*m.QuietHoursStart, *m.QuietHoursEnd)
	if err != nil {
		return false
	}
	return qh.Contains(t)
}
