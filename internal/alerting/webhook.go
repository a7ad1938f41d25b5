package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/helm-preview/helm-preview/internal/render"
)

// WebhookSender posts previews as JSON to a custom endpoint.
type WebhookSender struct {
	url     string
	method  string
	headers map[string]string
	client  *http.Client
}

// NewWebhookSender creates a new webhook alert sender.
func NewWebhookSender(cfg *WebhookConfig) *WebhookSender {
	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = http.MethodPost
	}

	return &WebhookSender{
		url:     cfg.URL,
		method:  method,
		headers: cfg.Headers,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns the sender name.
func (s *WebhookSender) Name() string {
	return "webhook"
}

// webhookPayload carries the release identity and the report in the same
// layout as `diff -o json`.
type webhookPayload struct {
	Release     string          `json:"release"`
	Namespace   string          `json:"namespace"`
	Chart       string          `json:"chart"`
	MaxSeverity string          `json:"max_severity"`
	Report      render.Document `json:"report"`
}

// Send posts n to the webhook endpoint. Any non-2xx response is an error
// that includes the start of the response body.
func (s *WebhookSender) Send(ctx context.Context, n *Notification) error {
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(webhookPayload{
		Release:     n.Release,
		Namespace:   n.Namespace,
		Chart:       n.Chart,
		MaxSeverity: n.Report.MaxSeverity().String(),
		Report:      render.NewDocument(n.Report, false),
	}); err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, s.method, s.url, &body)
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "helm-preview")
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
