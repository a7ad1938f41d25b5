package alerting

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/helm-preview/helm-preview/internal/model"
)

// TelegramSender sends alerts to Telegram.
type TelegramSender struct {
	botToken string
	chatIDs  []string
	apiURL   string
	client   *http.Client
}

// NewTelegramSender creates a new Telegram alert sender.
func NewTelegramSender(cfg *TelegramConfig) (*TelegramSender, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if len(cfg.ChatIDs) == 0 {
		return nil, fmt.Errorf("at least one chat ID is required")
	}

	return &TelegramSender{
		botToken: cfg.BotToken,
		chatIDs:  cfg.ChatIDs,
		apiURL:   "https://api.telegram.org/bot",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Name returns the sender name.
func (s *TelegramSender) Name() string {
	return "telegram"
}

// Send sends an alert to every configured chat.
func (s *TelegramSender) Send(ctx context.Context, n *Notification) error {
	message := formatTelegramMessage(n)

	for _, chatID := range s.chatIDs {
		if err := s.sendToChat(ctx, chatID, message); err != nil {
			return fmt.Errorf("failed to send to chat %s: %w", chatID, err)
		}
	}

	return nil
}

func (s *TelegramSender) sendToChat(ctx context.Context, chatID, message string) error {
	endpoint := fmt.Sprintf("%s%s/sendMessage", s.apiURL, s.botToken)

	data := url.Values{}
	data.Set("chat_id", chatID)
	data.Set("text", message)
	data.Set("parse_mode", "HTML")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("Telegram API returned status %d", resp.StatusCode)
	}

	return nil
}

func formatTelegramMessage(n *Notification) string {
	var sb strings.Builder
	summary := n.Report.Summary()

	sb.WriteString(fmt.Sprintf("<b>Helm upgrade preview: %s</b>\n\n", strings.ToUpper(n.Report.MaxSeverity().String())))
	sb.WriteString(fmt.Sprintf("<b>Release:</b> %s\n", html.EscapeString(n.Release)))
	sb.WriteString(fmt.Sprintf("<b>Namespace:</b> %s\n", html.EscapeString(n.Namespace)))
	if n.Chart != "" {
		sb.WriteString(fmt.Sprintf("<b>Chart:</b> %s\n", html.EscapeString(n.Chart)))
	}
	sb.WriteString(fmt.Sprintf("\n<b>Changes:</b> %d added, %d removed, %d changed, %d unchanged\n",
		summary.Added, summary.Removed, summary.Changed, summary.Unchanged))

	for _, e := range n.Report.Entries {
		for _, risk := range e.Risks {
			if risk.Severity < model.SeverityWarning {
				continue
			}
			sb.WriteString(fmt.Sprintf("• <b>%s</b> %s\n", risk.Severity, html.EscapeString(risk.Message)))
		}
	}

	return sb.String()
}
