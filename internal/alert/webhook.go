package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// webhookTimeout bounds a single webhook POST.
const webhookTimeout = 10 * time.Second

// severityColor maps a severity name to the hex color a chat-ops webhook
// (Slack/Teams-style attachment) renders the alert card in.
var severityColor = map[string]string{
	"LOW":      "#6b7280",
	"MEDIUM":   "#d97706",
	"HIGH":     "#dc2626",
	"CRITICAL": "#7f1d1d",
}

// webhookPayload is the structured body POSTed to the configured webhook
// URL, per spec §4.9.
type webhookPayload struct {
	Title      string    `json:"title"`
	Violations []string  `json:"violations"`
	Action     string    `json:"action"`
	Severity   string    `json:"severity"`
	Color      string    `json:"color"`
	TenantID   string    `json:"tenantId"`
	AppID      string    `json:"appId"`
	Model      string    `json:"model"`
	RequestID  string    `json:"requestId"`
	Timestamp  time.Time `json:"timestamp"`
}

// WebhookSink POSTs a single structured JSON payload per violation.
type WebhookSink struct {
	client *http.Client
	url    string
}

// NewWebhookSink builds a webhook sink targeting url. Enabled only when
// the configured URL is non-empty (spec §6 config table).
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{client: &http.Client{Timeout: webhookTimeout}, url: url}
}

// Name identifies this sink in logs.
func (w *WebhookSink) Name() string { return "webhook" }

// Send POSTs the violation event as a single structured payload.
func (w *WebhookSink) Send(ev ViolationEvent) error {
	color := severityColor[ev.Severity]
	if color == "" {
		color = severityColor["MEDIUM"]
	}

	payload := webhookPayload{
		Title:      fmt.Sprintf("Policy %s: %s", ev.ActionTaken, ev.ViolationType),
		Violations: ev.Violations,
		Action:     ev.ActionTaken,
		Severity:   ev.Severity,
		Color:      color,
		TenantID:   ev.TenantID,
		AppID:      ev.AppID,
		Model:      ev.Model,
		RequestID:  ev.RequestID,
		Timestamp:  ev.Timestamp,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
