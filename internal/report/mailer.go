package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// MailConfig holds the SMTP settings for report and alert delivery.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	CC       []string
	// AlertTo receives the emergency error mail. Falls back to To when
	// empty.
	AlertTo []string
}

// Mailer sends the run report workbook and the emergency alert mail.
type Mailer struct {
	cfg    MailConfig
	logger *slog.Logger
}

// NewMailer creates a Mailer.
func NewMailer(cfg MailConfig, logger *slog.Logger) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("mail from address is required")
	}
	if len(cfg.To) == 0 {
		return nil, fmt.Errorf("mail recipient is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{cfg: cfg, logger: logger}, nil
}

func (m *Mailer) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	return mail.NewClient(m.cfg.Host, opts...)
}

func (m *Mailer) send(ctx context.Context, to []string, cc []string, subject, body, attachment string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(to...); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	if len(cc) > 0 {
		if err := msg.Cc(cc...); err != nil {
			return fmt.Errorf("mail cc: %w", err)
		}
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	if attachment != "" {
		msg.AttachFile(attachment)
	}

	client, err := m.client()
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// SendReport mails the run report with the workbook attached.
func (m *Mailer) SendReport(ctx context.Context, subject, body, workbookPath string) error {
	m.logger.Info("sending run report", "to", m.cfg.To, "attachment", workbookPath)
	return m.send(ctx, m.cfg.To, m.cfg.CC, subject, body, workbookPath)
}

// SendAlert mails the emergency error notification, used for faults that
// escape the batch loop. Distinct from the per-run report path.
func (m *Mailer) SendAlert(ctx context.Context, subject, body string) error {
	to := m.cfg.AlertTo
	if len(to) == 0 {
		to = m.cfg.To
	}
	m.logger.Warn("sending alert mail", "to", to, "subject", subject)
	return m.send(ctx, to, nil, subject, body, "")
}
