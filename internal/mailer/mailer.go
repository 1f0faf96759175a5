// Package mailer sends outreach emails over SMTP, paced on the shared
// "email" rate channel and capped by a hard daily quota that survives
// restarts via the email ledger.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"mime/quotedprintable"
	"net/smtp"
	"strings"
	"time"

	"github.com/leadpitch/leadpitch/config"
	"github.com/leadpitch/leadpitch/internal/db/models"
	"github.com/leadpitch/leadpitch/internal/logger"
	"github.com/leadpitch/leadpitch/internal/ratelimit"
	"github.com/leadpitch/leadpitch/internal/validation"
)

// ErrDailyLimitReached is returned when the hard daily send quota is
// exhausted. The rate channel paces sends; this cap stops them.
var ErrDailyLimitReached = errors.New("daily email limit reached")

// Config holds the SMTP and sending settings.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromName    string
	FromAddress string
	DailyLimit  int
	DryRun      bool
}

// ConfigFromEnv reads the mailer settings from the environment.
func ConfigFromEnv() Config {
	return Config{
		Host:        config.GetEnv("SMTP_HOST", "smtp.gmail.com"),
		Port:        config.GetEnvInt("SMTP_PORT", 587),
		Username:    config.GetEnv("SMTP_USERNAME", ""),
		Password:    config.GetEnv("SMTP_PASSWORD", ""),
		FromName:    config.GetEnv("EMAIL_FROM_NAME", "LeadPitch"),
		FromAddress: config.GetEnv("EMAIL_FROM_ADDRESS", ""),
		DailyLimit:  config.GetEnvInt("EMAILS_PER_DAY_LIMIT", 50),
		DryRun:      config.GetEnvBool("EMAIL_DRY_RUN", false),
	}
}

// Ledger records send attempts and answers quota queries. Satisfied by
// repos.EmailRepository.
type Ledger interface {
	Create(ctx context.Context, email *models.EmailCampaign) error
	MarkSent(ctx context.Context, id uint) error
	MarkFailed(ctx context.Context, id uint, reason string) error
	CountSentSince(ctx context.Context, cutoff time.Time) (int64, error)
}

// sendFunc matches smtp.SendMail; swapped out in tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends personalized outreach emails.
type Mailer struct {
	cfg    Config
	limits *ratelimit.Registry
	ledger Ledger
	send   sendFunc
	now    func() time.Time
}

// New creates a mailer. ledger may not be nil: every attempt is recorded.
func New(cfg Config, limits *ratelimit.Registry, ledger Ledger) *Mailer {
	if cfg.FromAddress == "" {
		cfg.FromAddress = cfg.Username
	}
	return &Mailer{
		cfg:    cfg,
		limits: limits,
		ledger: ledger,
		send:   smtp.SendMail,
		now:    time.Now,
	}
}

// SendToLead renders the named template for the lead and sends it.
// Returns the recorded campaign entry.
func (m *Mailer) SendToLead(ctx context.Context, lead *models.Lead, templateName string, data TemplateData) (*models.EmailCampaign, error) {
	recipient, err := validation.CleanEmail(lead.Email, true)
	if err != nil {
		return nil, fmt.Errorf("lead has no usable email: %w", err)
	}

	if data.BusinessName == "" {
		data.BusinessName = lead.Name
	}
	if data.Website == "" {
		data.Website = lead.Website
	}
	rendered, err := Render(templateName, data)
	if err != nil {
		return nil, err
	}
	return m.Send(ctx, lead.ID, recipient, rendered)
}

// Send delivers one rendered email and records the attempt.
func (m *Mailer) Send(ctx context.Context, leadID uint, recipient string, email *RenderedEmail) (*models.EmailCampaign, error) {
	if err := m.checkDailyQuota(ctx); err != nil {
		return nil, err
	}
	if err := m.limits.Await(ctx, ratelimit.ChannelEmail); err != nil {
		return nil, err
	}

	record := &models.EmailCampaign{
		LeadID:       leadID,
		Recipient:    recipient,
		Subject:      email.Subject,
		Body:         email.Body,
		BodyHTML:     email.BodyHTML,
		Status:       models.EmailStatusPending,
		TemplateUsed: email.Template,
	}
	if err := m.ledger.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record email: %w", err)
	}

	log := logger.WithComponent("mailer")
	if m.cfg.DryRun {
		log.Infof("dry run: would send %q to %s", email.Subject, recipient)
		if err := m.ledger.MarkSent(ctx, record.ID); err != nil {
			return record, fmt.Errorf("failed to mark email sent: %w", err)
		}
		record.Status = models.EmailStatusSent
		return record, nil
	}

	msg := m.buildMessage(recipient, email)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	if err := m.send(addr, auth, m.cfg.FromAddress, []string{recipient}, msg); err != nil {
		m.limits.RecordRequest(ratelimit.ChannelEmail, false)
		if lerr := m.ledger.MarkFailed(ctx, record.ID, err.Error()); lerr != nil {
			log.Warnf("failed to record delivery failure: %v", lerr)
		}
		record.Status = models.EmailStatusFailed
		return record, fmt.Errorf("smtp delivery to %s failed: %w", recipient, err)
	}

	m.limits.RecordRequest(ratelimit.ChannelEmail, true)
	if err := m.ledger.MarkSent(ctx, record.ID); err != nil {
		return record, fmt.Errorf("failed to mark email sent: %w", err)
	}
	record.Status = models.EmailStatusSent
	log.Infof("sent %q to %s", email.Subject, recipient)
	return record, nil
}

// SentToday reports how many emails were delivered since local midnight.
func (m *Mailer) SentToday(ctx context.Context) (int64, error) {
	now := m.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return m.ledger.CountSentSince(ctx, midnight)
}

func (m *Mailer) checkDailyQuota(ctx context.Context) error {
	if m.cfg.DailyLimit <= 0 {
		return nil
	}
	sent, err := m.SentToday(ctx)
	if err != nil {
		return fmt.Errorf("failed to check daily quota: %w", err)
	}
	if sent >= int64(m.cfg.DailyLimit) {
		return ErrDailyLimitReached
	}
	return nil
}

// buildMessage assembles a multipart/alternative MIME message with the
// plain and HTML renditions.
func (m *Mailer) buildMessage(recipient string, email *RenderedEmail) []byte {
	const boundary = "leadpitch-alt-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.FromAddress)
	fmt.Fprintf(&b, "To: %s\r\n", recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", email.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	writePart := func(contentType, body string) {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		fmt.Fprintf(&b, "Content-Type: %s; charset=utf-8\r\n", contentType)
		b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
		qp := quotedprintable.NewWriter(&b)
		_, _ = qp.Write([]byte(body))
		_ = qp.Close()
		b.WriteString("\r\n")
	}
	writePart("text/plain", email.Body)
	if email.BodyHTML != "" {
		writePart("text/html", email.BodyHTML)
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
