package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/enkou97/ses-job-crawler/internal/model"
)

const (
	lineNotifyAPI      = "https://notify-api.line.me/api/notify"
	channelHTTPTimeout = 5 * time.Second
)

// LineNotifier delivers the short-form digest through the LINE Notify API.
type LineNotifier struct {
	endpoint string
	client   *http.Client
	log      *slog.Logger
}

// NewLineNotifier returns a LINE notifier with a bounded HTTP client.
func NewLineNotifier(log *slog.Logger) *LineNotifier {
	return &LineNotifier{
		endpoint: lineNotifyAPI,
		client:   &http.Client{Timeout: channelHTTPTimeout},
		log:      log.With("component", "notifier", "channel", ChannelLine),
	}
}

func (l *LineNotifier) Name() string { return ChannelLine }

// Send posts the digest with the personal access token from settings.
// Returns false when disabled, unconfigured, or the API call fails.
func (l *LineNotifier) Send(ctx context.Context, settings *model.NotificationSettings, jobs []model.Job) bool {
	if !settings.LineEnabled || settings.LineToken == "" {
		return false
	}

	form := url.Values{}
	form.Set("message", buildLineMessage(jobs))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		l.log.Error("failed to build LINE request", "err", err)
		return false
	}
	req.Header.Set("Authorization", "Bearer "+settings.LineToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := l.client.Do(req)
	if err != nil {
		l.log.Error("failed to send LINE notification", "err", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		l.log.Error("LINE API rejected notification", "status", resp.StatusCode)
		return false
	}

	l.log.Info("LINE notification sent", "jobs", len(jobs))
	return true
}

// buildLineMessage renders the short-form digest: up to shortFormLimit
// postings plus an "and N more" trailer.
func buildLineMessage(jobs []model.Job) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n%d new postings\n\n", len(jobs)))

	shown := jobs
	if len(shown) > shortFormLimit {
		shown = shown[:shortFormLimit]
	}
	for _, j := range shown {
		sb.WriteString(j.Title + "\n")
		if j.MaxPrice != nil {
			sb.WriteString(fmt.Sprintf("up to %d\n", *j.MaxPrice))
		}
		sb.WriteString(j.SourceURL + "\n\n")
	}

	if len(jobs) > shortFormLimit {
		sb.WriteString(fmt.Sprintf("... and %d more", len(jobs)-shortFormLimit))
	}
	return sb.String()
}
