package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/helm-preview/helm-preview/internal/model"
)

// SlackSender sends alerts to Slack via webhook.
type SlackSender struct {
	webhookURL string
	channel    string
	username   string
	client     *http.Client
}

// NewSlackSender creates a new Slack alert sender.
func NewSlackSender(cfg *SlackConfig) *SlackSender {
	return &SlackSender{
		webhookURL: cfg.WebhookURL,
		channel:    cfg.Channel,
		username:   cfg.Username,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns the sender name.
func (s *SlackSender) Name() string {
	return "slack"
}

// Send sends an alert to Slack.
func (s *SlackSender) Send(ctx context.Context, n *Notification) error {
	payload := map[string]interface{}{
		"text": formatSlackMessage(n),
	}

	if s.channel != "" {
		payload["channel"] = s.channel
	}
	if s.username != "" {
		payload["username"] = s.username
	}

	attachment := map[string]interface{}{
		"color":     severityColor(n.Report.MaxSeverity()),
		"title":     fmt.Sprintf("%s/%s: %s", n.Namespace, n.Release, n.Report.MaxSeverity()),
		"fields":    buildSlackFields(n),
		"timestamp": time.Now().Unix(),
	}

	payload["attachments"] = []map[string]interface{}{attachment}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Slack message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("Slack API returned status %d", resp.StatusCode)
	}

	return nil
}

func severityColor(s model.Severity) string {
	switch s {
	case model.SeverityDanger:
		return "#ff0000"
	case model.SeverityWarning:
		return "#ffaa00"
	default:
		return "#36a64f"
	}
}

func formatSlackMessage(n *Notification) string {
	summary := n.Report.Summary()
	return fmt.Sprintf("Helm upgrade preview for %s/%s: %d added, %d removed, %d changed",
		n.Namespace,
		n.Release,
		summary.Added,
		summary.Removed,
		summary.Changed,
	)
}

func buildSlackFields(n *Notification) []map[string]interface{} {
	summary := n.Report.Summary()
	fields := []map[string]interface{}{
		{"title": "Release", "value": n.Release, "short": true},
		{"title": "Namespace", "value": n.Namespace, "short": true},
		{"title": "Chart", "value": n.Chart, "short": true},
		{"title": "Unchanged", "value": fmt.Sprintf("%d", summary.Unchanged), "short": true},
	}

	if summary.Danger > 0 || summary.Warning > 0 {
		fields = append(fields, map[string]interface{}{
			"title": "Risks",
			"value": fmt.Sprintf("%d danger, %d warning", summary.Danger, summary.Warning),
			"short": false,
		})
	}

	for _, e := range n.Report.Entries {
		for _, risk := range e.Risks {
			if risk.Severity < model.SeverityWarning {
				continue
			}
			fields = append(fields, map[string]interface{}{
				"title": fmt.Sprintf("%s %s/%s", risk.Severity, e.Record.Kind, e.Record.Name),
				"value": risk.Message,
				"short": false,
			})
		}
	}

	return fields
}
