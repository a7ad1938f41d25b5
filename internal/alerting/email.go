package alerting

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/helm-preview/helm-preview/internal/model"
)

// EmailSender sends alerts via email.
type EmailSender struct {
	config   *EmailConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailSender creates a new email alert sender.
func NewEmailSender(cfg *EmailConfig) (*EmailSender, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.SMTPPort == 0 {
		return nil, fmt.Errorf("SMTP port is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("from address is required")
	}
	if len(cfg.To) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}

	return &EmailSender{
		config:   cfg,
		sendMail: smtp.SendMail,
	}, nil
}

// Name returns the sender name.
func (s *EmailSender) Name() string {
	return "email"
}

// Send sends an alert via email.
func (s *EmailSender) Send(ctx context.Context, n *Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	message := s.buildEmailMessage(s.getSubject(n), formatEmailBody(n))
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	var auth smtp.Auth
	if s.config.SMTPUsername != "" && s.config.SMTPPassword != "" {
		auth = smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	}

	if err := s.sendMail(addr, auth, s.config.From, s.config.To, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *EmailSender) getSubject(n *Notification) string {
	severity := n.Report.MaxSeverity().String()
	if s.config.Subject != "" {
		// Simple template replacement
		subject := s.config.Subject
		subject = strings.ReplaceAll(subject, "{{severity}}", severity)
		subject = strings.ReplaceAll(subject, "{{release}}", n.Release)
		subject = strings.ReplaceAll(subject, "{{namespace}}", n.Namespace)
		return subject
	}

	return fmt.Sprintf("[helm-preview] %s: %s/%s", severity, n.Namespace, n.Release)
}

func formatEmailBody(n *Notification) string {
	var sb strings.Builder
	summary := n.Report.Summary()

	sb.WriteString(fmt.Sprintf("Helm upgrade preview for %s/%s\n", n.Namespace, n.Release))
	sb.WriteString(strings.Repeat("=", 60) + "\n\n")
	if n.Chart != "" {
		sb.WriteString(fmt.Sprintf("Chart: %s\n", n.Chart))
	}
	sb.WriteString(fmt.Sprintf("Highest risk: %s\n", n.Report.MaxSeverity()))
	sb.WriteString(fmt.Sprintf("Added: %d\nRemoved: %d\nChanged: %d\nUnchanged: %d\n",
		summary.Added, summary.Removed, summary.Changed, summary.Unchanged))

	if len(n.Report.Entries) > 0 {
		sb.WriteString("\nResources:\n")
		sb.WriteString(strings.Repeat("-", 60) + "\n")
		for i, e := range n.Report.Entries {
			sb.WriteString(fmt.Sprintf("%d. %s %s (%d field change(s))\n", i+1, e.Record.Status, e.Record.ResourceKey, len(e.Record.Changes)))
			for _, risk := range e.Risks {
				if risk.Severity >= model.SeverityWarning {
					sb.WriteString(fmt.Sprintf("   %s [%s] %s\n", strings.ToUpper(risk.Severity.String()), risk.Rule, risk.Message))
				}
			}
		}
	}

	return sb.String()
}

func (s *EmailSender) buildEmailMessage(subject, body string) string {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("From: %s\r\n", s.config.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(s.config.To, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	return msg.String()
}
