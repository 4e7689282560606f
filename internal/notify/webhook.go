package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Notifier is the fire-and-forget event hook invoked after an approval
// commits. Implementations report success or failure only; the caller owes
// no retries and never blocks on the outcome.
type Notifier interface {
	Emit(eventType string, payload map[string]any) bool
}

// WebhookNotifier posts events as JSON to <baseURL>/<eventType>.
type WebhookNotifier struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewWebhookNotifier(baseURL string, timeout time.Duration, logger *slog.Logger) *WebhookNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookNotifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (n *WebhookNotifier) Emit(eventType string, payload map[string]any) bool {
	if n.baseURL == "" {
		n.logger.Debug("notification webhook disabled, dropping event", "event_type", eventType)
		return false
	}

	url := fmt.Sprintf("%s/%s", n.baseURL, eventType)

	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("failed to encode notification payload", "event_type", eventType, "error", err)
		return false
	}

	resp, err := n.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		n.logger.Error("failed to send notification", "event_type", eventType, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn("notification endpoint returned non-2xx status",
			"event_type", eventType,
			"status_code", resp.StatusCode,
		)
		return false
	}

	n.logger.Info("notification sent", "event_type", eventType, "status_code", resp.StatusCode)
	return true
}
