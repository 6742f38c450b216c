package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"matchday/internal/model"
)

// PushGateway is the external push delivery backend (Expo, FCM).
// Implementations must be safe for concurrent use.
type PushGateway interface {
	// Name identifies the gateway in logs and metrics.
	Name() string
	// ValidToken is a cheap local format check run before any network call.
	ValidToken(token string) bool
	// Send delivers one message to one device token.
	// Errors should be *PushError so the dispatcher can classify them.
	Send(ctx context.Context, token string, msg model.PushMessage) error
}

// PushError classifies a gateway failure. Permanent means the gateway will
// never accept this token again and it should be pruned.
type PushError struct {
	Code      string
	Permanent bool
	Err       error
}

func (e *PushError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("push failed: %s", e.Code)
	}
	return fmt.Sprintf("push failed: %s: %v", e.Code, e.Err)
}

func (e *PushError) Unwrap() error { return e.Err }

// ErrGatewayUnavailable is recorded for tokens skipped while the breaker is open.
var ErrGatewayUnavailable = errors.New("push gateway unavailable")

// transientPushError wraps err as a retryable failure.
func transientPushError(code string, err error) *PushError {
	return &PushError{Code: code, Err: err}
}

// permanentPushError wraps err as a failure that invalidates the token.
func permanentPushError(code string, err error) *PushError {
	return &PushError{Code: code, Permanent: true, Err: err}
}

// stringifyData flattens a push data payload into string values, as FCM requires.
// Nested values are JSON encoded.
func stringifyData(data map[string]any) map[string]string {
	if len(data) == 0 {
		return nil
	}
	out := make(map[string]string, len(data))
	for k, v := range data {
		switch tv := v.(type) {
		case string:
			out[k] = tv
		case nil:
			continue
		default:
			b, err := json.Marshal(tv)
			if err != nil {
				out[k] = fmt.Sprint(tv)
				continue
			}
			out[k] = string(b)
		}
	}
	return out
}
