package model

// TargetedRequest sends one notification to one explicit user.
// Category is optional; without it only the push gate is consulted.
type TargetedRequest struct {
	UserID         int64           `json:"user_id" validate:"required,gt=0"`
	Category       EventCategory   `json:"category"`
	Title          string          `json:"title" validate:"required,max=200"`
	Message        string          `json:"message" validate:"required,max=1000"`
	RelatedEntity  *RelatedEntity  `json:"related_entity,omitempty" validate:"omitempty"`
	NavigationData *NavigationData `json:"navigation_data,omitempty"`
}

// BroadcastRequest sends one notification to every user matching a
// broadcastable category, optionally limited to subscribers of one entity.
type BroadcastRequest struct {
	Category       EventCategory       `json:"category"`
	Title          string              `json:"title" validate:"required,max=200"`
	Message        string              `json:"message" validate:"required,max=1000"`
	RelatedEntity  *RelatedEntity      `json:"related_entity,omitempty" validate:"omitempty"`
	NavigationData *NavigationData     `json:"navigation_data,omitempty"`
	Filter         *SubscriptionFilter `json:"subscription_filter,omitempty" validate:"omitempty"`
}

// Draft builds the notification content of the request.
func (r *TargetedRequest) Draft() NotificationDraft {
	return buildDraft(r.Category, r.Title, r.Message, r.RelatedEntity, r.NavigationData)
}

// Draft builds the notification content of the request.
func (r *BroadcastRequest) Draft() NotificationDraft {
	return buildDraft(r.Category, r.Title, r.Message, r.RelatedEntity, r.NavigationData)
}

func buildDraft(c EventCategory, title, message string, related *RelatedEntity, nav *NavigationData) NotificationDraft {
	d := NotificationDraft{
		Category: c,
		Title:    title,
		Message:  message,
		Related:  related,
	}
	if nav != nil {
		d.NavigationData = *nav
	}
	return d
}
