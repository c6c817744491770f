package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FCMSender posts messages to an FCM HTTP v1 style endpoint.
type FCMSender struct {
	endpoint string
	key      string
	client   *http.Client
}

// NewFCMSender creates a new FCMSender. A nil client gets a 3s timeout client.
func NewFCMSender(endpoint, key string, client *http.Client) *FCMSender {
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}
	return &FCMSender{endpoint: endpoint, key: key, client: client}
}

type fcmRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Send posts msg addressed to its push identity.
func (s *FCMSender) Send(ctx context.Context, msg Message) error {
	if msg.PushID == "" {
		return fmt.Errorf("fcm: empty push id: %w", ErrUndeliverable)
	}
	data := make(map[string]string, len(msg.Data)+1)
	for k, v := range msg.Data {
		data[k] = v
	}
	data["notification_id"] = msg.ID

	b, err := json.Marshal(fcmRequest{Message: fcmMessage{
		Token:        msg.PushID,
		Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:         data,
	}})
	if err != nil {
		return fmt.Errorf("fcm: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("fcm: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.key != "" {
		req.Header.Set("Authorization", "Bearer "+s.key)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fcm: post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("fcm: status %d", resp.StatusCode)
	default:
		return fmt.Errorf("fcm: status %d: %w", resp.StatusCode, ErrUndeliverable)
	}
}
