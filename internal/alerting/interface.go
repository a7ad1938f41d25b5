package alerting

import (
	"context"

	"github.com/helm-preview/helm-preview/internal/model"
)

// Notification is one preview result to be delivered.
type Notification struct {
	Release   string        `json:"release"`
	Namespace string        `json:"namespace"`
	Chart     string        `json:"chart"`
	Report    *model.Report `json:"report"`
}

// Sender is the interface for alert senders.
type Sender interface {
	// Send delivers a notification for a preview result.
	Send(ctx context.Context, n *Notification) error
	// Name returns the name of the sender (e.g., "slack", "email").
	Name() string
}

// Config represents alerting configuration.
type Config struct {
	// Enabled channels
	Slack    *SlackConfig    `json:"slack,omitempty" yaml:"slack,omitempty"`
	Telegram *TelegramConfig `json:"telegram,omitempty" yaml:"telegram,omitempty"`
	Email    *EmailConfig    `json:"email,omitempty" yaml:"email,omitempty"`
	Webhook  *WebhookConfig  `json:"webhook,omitempty" yaml:"webhook,omitempty"`

	// MinSeverity is the lowest report severity that triggers an alert.
	// The zero value alerts on any change.
	MinSeverity model.Severity `json:"min_severity,omitempty" yaml:"min_severity,omitempty"`
}

// SlackConfig contains Slack alerting configuration.
type SlackConfig struct {
	WebhookURL string `json:"webhook_url" yaml:"webhook_url"`
	Channel    string `json:"channel,omitempty" yaml:"channel,omitempty"`   // Optional channel override
	Username   string `json:"username,omitempty" yaml:"username,omitempty"` // Optional username override
}

// TelegramConfig contains Telegram alerting configuration.
type TelegramConfig struct {
	BotToken string   `json:"bot_token" yaml:"bot_token"`
	ChatIDs  []string `json:"chat_ids" yaml:"chat_ids"` // Multiple chat IDs supported
}

// EmailConfig contains email alerting configuration.
type EmailConfig struct {
	SMTPHost     string   `json:"smtp_host" yaml:"smtp_host"`
	SMTPPort     int      `json:"smtp_port" yaml:"smtp_port"`
	SMTPUsername string   `json:"smtp_username,omitempty" yaml:"smtp_username,omitempty"`
	SMTPPassword string   `json:"smtp_password,omitempty" yaml:"smtp_password,omitempty"`
	From         string   `json:"from" yaml:"from"`
	To           []string `json:"to" yaml:"to"`
	Subject      string   `json:"subject,omitempty" yaml:"subject,omitempty"` // Optional subject template
}

// WebhookConfig contains webhook alerting configuration.
type WebhookConfig struct {
	URL     string            `json:"url" yaml:"url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"` // Optional headers
	Method  string            `json:"method,omitempty" yaml:"method,omitempty"`   // Default: POST
}
