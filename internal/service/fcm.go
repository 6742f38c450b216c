package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"matchday/internal/model"
)

// fcmSender is the subset of *messaging.Client the gateway needs.
type fcmSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMClient delivers pushes through Firebase Cloud Messaging.
//
// The credentials (project ID, client email, private key) come from Firebase Console:
// Project Settings -> Service Accounts -> Generate New Private Key
type FCMClient struct {
	client fcmSender
}

// NewFCMClient creates a new FCM client from environment credentials.
//
// The private key in .env has literal "\n" strings, so we replace them with actual newlines.
func NewFCMClient(ctx context.Context, projectID, clientEmail, privateKey string) (*FCMClient, error) {
	privateKey = strings.ReplaceAll(privateKey, "\\n", "\n")

	// Same shape as the service-account JSON downloaded from Firebase Console
	credsJSON := fmt.Sprintf(`{
		"type": "service_account",
		"project_id": %q,
		"private_key": %q,
		"client_email": %q,
		"token_uri": "https://oauth2.googleapis.com/token"
	}`, projectID, privateKey, clientEmail)

	opt := option.WithCredentialsJSON([]byte(credsJSON))
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opt)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messaging client: %w", err)
	}

	log.Printf("[FCM] Initialized for project: %s", projectID)
	return &FCMClient{client: client}, nil
}

// Name implements PushGateway.
func (c *FCMClient) Name() string { return "fcm" }

// ValidToken rejects empty, oversized or whitespace-containing registration tokens.
func (c *FCMClient) ValidToken(token string) bool {
	if len(token) < 32 || len(token) > 4096 {
		return false
	}
	return strings.IndexFunc(token, unicode.IsSpace) < 0
}

// Send pushes one message to one registration token.
func (c *FCMClient) Send(ctx context.Context, token string, msg model.PushMessage) error {
	// "Notification" is what the OS shows, "Data" is read by the app on tap
	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: stringifyData(msg.Data),
		Android: &messaging.AndroidConfig{
			Priority: "high", // Ensures delivery even in battery-saving mode
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	_, err := c.client.Send(ctx, message)
	if err == nil {
		return nil
	}

	switch {
	case messaging.IsUnregistered(err):
		return permanentPushError("unregistered", err)
	case messaging.IsSenderIDMismatch(err):
		return permanentPushError("sender_id_mismatch", err)
	case errors.Is(err, context.DeadlineExceeded):
		return transientPushError("timeout", err)
	case messaging.IsQuotaExceeded(err):
		return transientPushError("quota_exceeded", err)
	case messaging.IsUnavailable(err), messaging.IsInternal(err):
		return transientPushError("unavailable", err)
	default:
		return transientPushError("fcm_error", err)
	}
}
