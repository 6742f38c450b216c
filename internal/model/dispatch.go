package model

// PushOutcome is the result of one push call to one device token.
type PushOutcome int

const (
	OutcomeSuccess PushOutcome = iota
	OutcomeTransientFailure
	OutcomePermanentFailure
	OutcomeMalformedToken
)

func (o PushOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeTransientFailure:
		return "transient_failure"
	case OutcomePermanentFailure:
		return "permanent_failure"
	case OutcomeMalformedToken:
		return "malformed_token"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o PushOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// PushMessage is the content pushed to every device of one fan-out.
type PushMessage struct {
	Title string
	Body  string
	Data  map[string]any
}

// TokenError records a failed push for one device.
type TokenError struct {
	UserID  int64       `json:"user_id"`
	Token   string      `json:"-"`
	Outcome PushOutcome `json:"outcome"`
	Error   string      `json:"error"`
}

// DispatchResult summarizes one fan-out. Partial failure is reported here,
// never as an error.
type DispatchResult struct {
	DispatchID          string       `json:"dispatch_id,omitempty"`
	UsersTargeted       int          `json:"users_targeted"`
	UsersReached        int          `json:"users_reached"`
	UsersWithoutDevices int          `json:"users_without_devices"`
	DevicesSucceeded    int          `json:"devices_succeeded"`
	DevicesFailed       int          `json:"devices_failed"`
	TokensPruned        int          `json:"tokens_pruned"`
	NotificationsStored int          `json:"notifications_stored"`
	Errors              []TokenError `json:"errors,omitempty"`
}

// EmptyDispatchResult is the result of a fan-out with no recipients.
func EmptyDispatchResult() *DispatchResult {
	return &DispatchResult{}
}
