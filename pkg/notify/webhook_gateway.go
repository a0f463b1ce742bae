package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookGateway delivers workflow events to an external notification service
// over HTTP
type WebhookGateway struct {
	webhookURL string
	apiKey     string
	client     *http.Client
}

// WebhookConfig holds configuration for the webhook gateway
type WebhookConfig struct {
	WebhookURL string
	APIKey     string
	Timeout    time.Duration
}

// NewWebhookGateway creates a new webhook notification gateway
func NewWebhookGateway(config WebhookConfig) *WebhookGateway {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &WebhookGateway{
		webhookURL: config.WebhookURL,
		apiKey:     config.APIKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// eventPayload is the wire format posted to the webhook
type eventPayload struct {
	TechnicianID string                 `json:"technician_id"`
	Event        string                 `json:"event"`
	Data         map[string]interface{} `json:"data,omitempty"`
	SentAt       time.Time              `json:"sent_at"`
}

// Notify posts one event to the webhook
func (g *WebhookGateway) Notify(technicianID, event string, data map[string]interface{}) error {
	payload := eventPayload{
		TechnicianID: technicianID,
		Event:        event,
		Data:         data,
		SentAt:       time.Now(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, g.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("X-API-Key", g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notification webhook returned %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// GetName returns the gateway name
func (g *WebhookGateway) GetName() string {
	return "webhook"
}
