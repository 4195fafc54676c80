package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/enkou97/ses-job-crawler/internal/model"
)

// emailSendTimeout bounds one SMTP delivery so a stuck server cannot stall
// the scheduler run.
const emailSendTimeout = 10 * time.Second

// SMTPConfig carries the transport credentials for the email channel.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailNotifier delivers the long-form digest over SMTP.
type EmailNotifier struct {
	cfg  SMTPConfig
	log  *slog.Logger
	send func(m *gomail.Message) error
}

// NewEmailNotifier returns an email notifier using the given SMTP transport.
func NewEmailNotifier(cfg SMTPConfig, log *slog.Logger) *EmailNotifier {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &EmailNotifier{
		cfg:  cfg,
		log:  log.With("component", "notifier", "channel", ChannelEmail),
		send: func(m *gomail.Message) error { return dialer.DialAndSend(m) },
	}
}

func (e *EmailNotifier) Name() string { return ChannelEmail }

// Send mails the digest to the configured address. Returns false when the
// channel is disabled, the recipient or SMTP host is missing, or delivery
// fails or times out.
func (e *EmailNotifier) Send(ctx context.Context, settings *model.NotificationSettings, jobs []model.Job) bool {
	if !settings.EmailEnabled || settings.EmailAddress == "" {
		return false
	}
	if e.cfg.Host == "" {
		e.log.Warn("email notification skipped: SMTP is not configured")
		return false
	}

	m := gomail.NewMessage()
	m.SetHeader("From", e.cfg.From)
	m.SetHeader("To", settings.EmailAddress)
	m.SetHeader("Subject", fmt.Sprintf("[ses-job-crawler] %d new postings", len(jobs)))
	m.SetBody("text/plain", buildEmailBody(jobs))

	// gomail has no context support, so the dial-and-send runs on its own
	// goroutine and is abandoned on timeout.
	done := make(chan error, 1)
	go func() { done <- e.send(m) }()

	select {
	case err := <-done:
		if err != nil {
			e.log.Error("failed to send email notification", "err", err)
			return false
		}
	case <-time.After(emailSendTimeout):
		e.log.Error("email notification timed out", "timeout", emailSendTimeout)
		return false
	case <-ctx.Done():
		e.log.Error("email notification canceled", "err", ctx.Err())
		return false
	}

	e.log.Info("email notification sent", "to", settings.EmailAddress, "jobs", len(jobs))
	return true
}

// buildEmailBody renders the long-form plain text digest: up to
// longFormLimit postings plus an "and N more" trailer.
func buildEmailBody(jobs []model.Job) string {
	var sb strings.Builder
	sb.WriteString("New postings matched your notification criteria.\n\n")
	sb.WriteString(strings.Repeat("=", 40) + "\n\n")

	shown := jobs
	if len(shown) > longFormLimit {
		shown = shown[:longFormLimit]
	}
	for _, j := range shown {
		sb.WriteString("* " + j.Title + "\n")
		if j.MaxPrice != nil {
			sb.WriteString(fmt.Sprintf("  Rate: up to %d\n", *j.MaxPrice))
		}
		if j.Location != "" {
			sb.WriteString("  Location: " + j.Location + "\n")
		}
		if j.RemoteType != "" {
			sb.WriteString("  Remote: " + string(j.RemoteType) + "\n")
		}
		sb.WriteString("  Link: " + j.SourceURL + "\n\n")
	}

	if len(jobs) > longFormLimit {
		sb.WriteString(fmt.Sprintf("... and %d more\n\n", len(jobs)-longFormLimit))
	}

	sb.WriteString(strings.Repeat("=", 40) + "\n")
	sb.WriteString("ses-job-crawler\n")
	return sb.String()
}
