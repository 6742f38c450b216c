package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"matchday/internal/model"
)

// ExpoPushClient sends push notifications via Expo's Push API.
//
// How it works:
// 1. The mobile app gets an Expo Push Token (looks like "ExponentPushToken[xxx]")
// 2. The app registers it with the backend (push_tokens table)
// 3. We POST one message per token to Expo, which forwards to APNs/FCM
// 4. Expo answers with a ticket per message; "DeviceNotRegistered" means the token is dead
type ExpoPushClient struct {
	httpClient  *http.Client
	url         string
	accessToken string
	limiter     *rate.Limiter // nil disables client-side rate limiting
}

// ExpoConfig configures the Expo client.
type ExpoConfig struct {
	URL         string
	AccessToken string        // optional, required only when push security is enabled on the Expo project
	RateLimit   float64       // messages per second, 0 disables limiting
	Timeout     time.Duration // HTTP client timeout
}

// ExpoPushMessage is the payload for Expo's Push API.
type ExpoPushMessage struct {
	To       string         `json:"to"`                 // Expo push token
	Title    string         `json:"title,omitempty"`    // Notification title
	Body     string         `json:"body"`               // Notification body (required)
	Data     map[string]any `json:"data,omitempty"`     // Custom data payload
	Sound    string         `json:"sound,omitempty"`    // "default" or custom sound
	Priority string         `json:"priority,omitempty"` // "default", "normal", "high"
}

// ExpoPushResponse is the response from Expo's API.
type ExpoPushResponse struct {
	Data   []ExpoPushTicket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

type ExpoPushTicket struct {
	Status  string `json:"status"` // "ok" or "error"
	ID      string `json:"id"`     // Ticket ID for receipt checking
	Message string `json:"message,omitempty"`
	Details struct {
		Error string `json:"error,omitempty"` // "DeviceNotRegistered", "MessageTooBig", etc.
	} `json:"details,omitempty"`
}

const (
	defaultExpoPushURL = "https://exp.host/--/api/v2/push/send"

	expoErrDeviceNotRegistered = "DeviceNotRegistered"
)

// NewExpoPushClient creates a new Expo Push client.
func NewExpoPushClient(cfg ExpoConfig) *ExpoPushClient {
	if cfg.URL == "" {
		cfg.URL = defaultExpoPushURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	c := &ExpoPushClient{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		url:         cfg.URL,
		accessToken: cfg.AccessToken,
	}
	if cfg.RateLimit > 0 {
		burst := max(1, int(cfg.RateLimit))
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

// Name implements PushGateway.
func (c *ExpoPushClient) Name() string { return "expo" }

// ValidToken accepts "ExponentPushToken[...]" and "ExpoPushToken[...]".
func (c *ExpoPushClient) ValidToken(token string) bool {
	if !strings.HasSuffix(token, "]") {
		return false
	}
	for _, prefix := range []string{"ExponentPushToken[", "ExpoPushToken["} {
		if strings.HasPrefix(token, prefix) && len(token) > len(prefix)+1 {
			return true
		}
	}
	return false
}

// Send pushes one message to one Expo token.
func (c *ExpoPushClient) Send(ctx context.Context, token string, msg model.PushMessage) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return transientPushError("rate_limited", err)
		}
	}

	// Expo accepts an array of messages and answers with an array of tickets
	messages := []ExpoPushMessage{{
		To:       token,
		Title:    msg.Title,
		Body:     msg.Body,
		Data:     msg.Data,
		Sound:    "default",
		Priority: "high",
	}}

	payload, err := json.Marshal(messages)
	if err != nil {
		return transientPushError("marshal", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return transientPushError("request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return transientPushError("timeout", err)
		}
		return transientPushError("network", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return transientPushError("read_response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return transientPushError("http_status",
			fmt.Errorf("expo api error: status=%d body=%s", resp.StatusCode, truncate(string(respBody), 200)))
	}

	var pushResp ExpoPushResponse
	if err := json.Unmarshal(respBody, &pushResp); err != nil {
		return transientPushError("decode_response", err)
	}

	if len(pushResp.Errors) > 0 {
		e := pushResp.Errors[0]
		return transientPushError(e.Code, errors.New(e.Message))
	}
	if len(pushResp.Data) == 0 {
		return transientPushError("empty_response", errors.New("expo returned no ticket"))
	}

	ticket := pushResp.Data[0]
	if ticket.Status == "ok" {
		return nil
	}

	if ticket.Details.Error == expoErrDeviceNotRegistered {
		return permanentPushError(ticket.Details.Error, errors.New(ticket.Message))
	}

	log.Printf("[ExpoPush] Ticket error: token=%s error=%s message=%s",
		maskToken(token), ticket.Details.Error, ticket.Message)
	code := ticket.Details.Error
	if code == "" {
		code = "ticket_error"
	}
	return transientPushError(code, errors.New(ticket.Message))
}

// maskToken keeps tokens out of logs.
func maskToken(token string) string {
	if len(token) <= 12 {
		return "***"
	}
	return token[:min(20, len(token)-4)] + "***"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
