package alerting

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/helm-preview/helm-preview/internal/model"
)

// Router routes preview results to configured alert senders.
type Router struct {
	senders     []Sender
	minSeverity model.Severity
}

// NewRouter creates a new alert router with the given configuration.
func NewRouter(cfg *Config) (*Router, error) {
	if cfg == nil {
		return nil, nil // No alerting configured
	}

	r := &Router{
		senders:     make([]Sender, 0),
		minSeverity: cfg.MinSeverity,
	}

	// Initialize Slack sender
	if cfg.Slack != nil && cfg.Slack.WebhookURL != "" {
		sender := NewSlackSender(cfg.Slack)
		r.senders = append(r.senders, sender)
		klog.V(1).Infof("Slack alerting enabled")
	}

	// Initialize Telegram sender
	if cfg.Telegram != nil && cfg.Telegram.BotToken != "" && len(cfg.Telegram.ChatIDs) > 0 {
		sender, err := NewTelegramSender(cfg.Telegram)
		if err != nil {
			return nil, fmt.Errorf("failed to create Telegram sender: %w", err)
		}
		r.senders = append(r.senders, sender)
		klog.V(1).Infof("Telegram alerting enabled for %d chat(s)", len(cfg.Telegram.ChatIDs))
	}

	// Initialize Email sender
	if cfg.Email != nil && cfg.Email.SMTPHost != "" && len(cfg.Email.To) > 0 {
		sender, err := NewEmailSender(cfg.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to create Email sender: %w", err)
		}
		r.senders = append(r.senders, sender)
		klog.V(1).Infof("Email alerting enabled to %d recipient(s)", len(cfg.Email.To))
	}

	// Initialize Webhook sender
	if cfg.Webhook != nil && cfg.Webhook.URL != "" {
		sender := NewWebhookSender(cfg.Webhook)
		r.senders = append(r.senders, sender)
		klog.V(1).Infof("Webhook alerting enabled: %s", cfg.Webhook.URL)
	}

	if len(r.senders) == 0 {
		return nil, nil // No senders configured
	}

	return r, nil
}

// NewRouterWithSenders creates a router for explicit senders.
func NewRouterWithSenders(minSeverity model.Severity, senders ...Sender) *Router {
	return &Router{senders: senders, minSeverity: minSeverity}
}

// ShouldAlert reports whether the report has changes at or above the
// configured severity.
func (r *Router) ShouldAlert(report *model.Report) bool {
	if r == nil || report == nil || len(report.Entries) == 0 {
		return false
	}
	return report.MaxSeverity() >= r.minSeverity
}

// Notify sends n to all configured senders concurrently and waits for them.
// Every failing sender contributes to the returned error.
func (r *Router) Notify(ctx context.Context, n *Notification) error {
	if r == nil || !r.ShouldAlert(n.Report) {
		return nil
	}

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	for _, sender := range r.senders {
		sender := sender
		g.Go(func() error {
			if err := sender.Send(ctx, n); err != nil {
				klog.Errorf("Failed to send alert via %s: %v", sender.Name(), err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", sender.Name(), err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}
