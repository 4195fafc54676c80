package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/enkou97/ses-job-crawler/internal/metrics"
	"github.com/enkou97/ses-job-crawler/internal/model"
)

// dispatchTimeout bounds one channel attempt so no single channel can stall
// the run indefinitely.
const dispatchTimeout = 15 * time.Second

// SettingsStore is the settings persistence capability. Implemented by
// store.SettingsStore. Save covers the user-editable fields only; the
// watermark moves exclusively through the additive TouchLastNotified, so a
// run-end write and a concurrent settings update cannot clobber each other.
type SettingsStore interface {
	GetOrCreate(ctx context.Context) (*model.NotificationSettings, error)
	Save(ctx context.Context, ns *model.NotificationSettings) (*model.NotificationSettings, error)
	TouchLastNotified(ctx context.Context, id int64, t time.Time) error
}

// AuditLog records successful deliveries and serves them back for the
// history endpoint. Implemented by store.NotificationStore.
type AuditLog interface {
	Append(ctx context.Context, records []model.NotificationRecord) error
	SentSince(ctx context.Context, since time.Time) ([]model.NotificationRecord, error)
}

// Service orchestrates notification delivery: it owns the settings snapshot,
// applies the filter, fans out to every channel, and advances the watermark
// when at least one channel succeeded.
type Service struct {
	settings  SettingsStore
	audit     AuditLog
	notifiers []Notifier
	log       *slog.Logger
	now       func() time.Time
}

// NewService returns an orchestrator over the given channels.
func NewService(settings SettingsStore, audit AuditLog, log *slog.Logger, notifiers ...Notifier) *Service {
	return &Service{
		settings:  settings,
		audit:     audit,
		notifiers: notifiers,
		log:       log.With("component", "notify-service"),
		now:       time.Now,
	}
}

// NotifyNewJobs filters the candidate postings against the current settings
// and dispatches the survivors to every channel. Channels are independent:
// one failure or panic never blocks a sibling. lastNotifiedAt advances only
// when at least one channel accepted delivery — a total failure leaves the
// watermark alone so the next scheduled run retries the same candidates.
func (s *Service) NotifyNewJobs(ctx context.Context, jobs []model.Job) error {
	settings, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	filtered := FilterJobs(jobs, settings)
	if len(filtered) == 0 {
		s.log.Info("no jobs matching notification criteria", "candidates", len(jobs))
		return nil
	}

	s.log.Info("sending notifications", "jobs", len(filtered))

	anySent := false
	var sentChannels []string
	for _, n := range s.notifiers {
		ok := s.dispatch(ctx, n, settings, filtered)

		outcome := "failed"
		if ok {
			outcome = "sent"
			anySent = true
			sentChannels = append(sentChannels, n.Name())
		}
		metrics.NotificationSends.WithLabelValues(n.Name(), outcome).Inc()
		s.log.Info("channel dispatch finished", "channel", n.Name(), "ok", ok)
	}

	if !anySent {
		s.log.Warn("no channel accepted delivery; watermark untouched for retry",
			"jobs", len(filtered))
		return nil
	}

	sentAt := s.now()
	if err := s.settings.TouchLastNotified(ctx, settings.ID, sentAt); err != nil {
		return fmt.Errorf("advance watermark: %w", err)
	}

	s.appendAudit(ctx, filtered, sentChannels, sentAt)
	s.log.Info("notification run completed", "jobs", len(filtered), "channels", sentChannels)
	return nil
}

// dispatch runs one channel attempt under its own timeout, converting panics
// into a failed outcome.
func (s *Service) dispatch(ctx context.Context, n Notifier, settings *model.NotificationSettings, jobs []model.Job) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("notifier panicked", "channel", n.Name(), "panic", r)
			ok = false
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	return n.Send(ctx, settings, jobs)
}

// appendAudit writes one record per (job, successful channel). Audit failure
// is logged, not propagated — delivery already happened.
func (s *Service) appendAudit(ctx context.Context, jobs []model.Job, channels []string, sentAt time.Time) {
	if s.audit == nil {
		return
	}
	records := make([]model.NotificationRecord, 0, len(jobs)*len(channels))
	for _, channel := range channels {
		for _, j := range jobs {
			if j.ID == 0 {
				continue
			}
			records = append(records, model.NotificationRecord{
				JobID:   j.ID,
				Channel: channel,
				SentAt:  sentAt,
			})
		}
	}
	if err := s.audit.Append(ctx, records); err != nil {
		s.log.Warn("failed to append notification audit records", "err", err)
	}
}

// SendTestNotification routes one synthetic posting to exactly the named
// channel, bypassing the filter. Unknown channels return false.
func (s *Service) SendTestNotification(ctx context.Context, channel string) bool {
	settings, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		s.log.Error("failed to load settings for test notification", "err", err)
		return false
	}

	maxPrice := 80
	testJob := model.Job{
		Title:      "[Test] ses-job-crawler delivery check",
		MaxPrice:   &maxPrice,
		Location:   "Tokyo",
		RemoteType: model.RemoteFull,
		SourceURL:  "https://example.com/test",
		CrawledAt:  s.now(),
	}

	for _, n := range s.notifiers {
		if strings.EqualFold(n.Name(), channel) {
			return s.dispatch(ctx, n, settings, []model.Job{testJob})
		}
	}
	s.log.Warn("test notification for unknown channel", "channel", channel)
	return false
}

// GetSettings returns the singleton settings, creating defaults on first use.
func (s *Service) GetSettings(ctx context.Context) (*model.NotificationSettings, error) {
	return s.settings.GetOrCreate(ctx)
}

// History returns deliveries recorded since the given time, newest first.
func (s *Service) History(ctx context.Context, since time.Time) ([]model.NotificationRecord, error) {
	if s.audit == nil {
		return []model.NotificationRecord{}, nil
	}
	return s.audit.SentSince(ctx, since)
}

// UpdateSettingsRequest is a partial settings update: only non-nil fields
// are applied.
type UpdateSettingsRequest struct {
	EmailEnabled        *bool   `json:"emailEnabled"`
	EmailAddress        *string `json:"emailAddress"`
	LineEnabled         *bool   `json:"lineEnabled"`
	LineToken           *string `json:"lineToken"`
	SlackEnabled        *bool   `json:"slackEnabled"`
	SlackWebhookURL     *string `json:"slackWebhookUrl"`
	MinPriceThreshold   *int    `json:"minPriceThreshold"`
	SkillsFilter        *string `json:"skillsFilter"`
	RemoteOnly          *bool   `json:"remoteOnly"`
	NotifyIntervalHours *int    `json:"notifyIntervalHours"`
}

// UpdateSettings applies a partial update to the singleton settings row.
func (s *Service) UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (*model.NotificationSettings, error) {
	settings, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	if req.EmailEnabled != nil {
		settings.EmailEnabled = *req.EmailEnabled
	}
	if req.EmailAddress != nil {
		settings.EmailAddress = *req.EmailAddress
	}
	if req.LineEnabled != nil {
		settings.LineEnabled = *req.LineEnabled
	}
	if req.LineToken != nil {
		settings.LineToken = *req.LineToken
	}
	if req.SlackEnabled != nil {
		settings.SlackEnabled = *req.SlackEnabled
	}
	if req.SlackWebhookURL != nil {
		settings.SlackWebhookURL = *req.SlackWebhookURL
	}
	if req.MinPriceThreshold != nil {
		settings.MinPriceThreshold = req.MinPriceThreshold
	}
	if req.SkillsFilter != nil {
		settings.SkillsFilter = *req.SkillsFilter
	}
	if req.RemoteOnly != nil {
		settings.RemoteOnly = *req.RemoteOnly
	}
	if req.NotifyIntervalHours != nil && *req.NotifyIntervalHours > 0 {
		settings.NotifyIntervalHours = *req.NotifyIntervalHours
	}

	return s.settings.Save(ctx, settings)
}
