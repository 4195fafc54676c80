package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/enkou97/ses-job-crawler/internal/model"
)

// SlackNotifier delivers the short-form digest to a Slack incoming webhook.
type SlackNotifier struct {
	client *http.Client
	log    *slog.Logger
}

// NewSlackNotifier returns a Slack notifier with a bounded HTTP client.
func NewSlackNotifier(log *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		client: &http.Client{Timeout: channelHTTPTimeout},
		log:    log.With("component", "notifier", "channel", ChannelSlack),
	}
}

func (s *SlackNotifier) Name() string { return ChannelSlack }

// Send posts Block Kit JSON to the webhook URL from settings. Returns false
// when disabled, unconfigured, or the webhook call fails.
func (s *SlackNotifier) Send(ctx context.Context, settings *model.NotificationSettings, jobs []model.Job) bool {
	if !settings.SlackEnabled || settings.SlackWebhookURL == "" {
		return false
	}

	body, err := json.Marshal(buildSlackPayload(jobs))
	if err != nil {
		s.log.Error("failed to marshal Slack payload", "err", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		settings.SlackWebhookURL, bytes.NewReader(body))
	if err != nil {
		s.log.Error("failed to build Slack request", "err", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("failed to send Slack notification", "err", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.log.Error("Slack webhook rejected notification", "status", resp.StatusCode)
		return false
	}

	s.log.Info("Slack notification sent", "jobs", len(jobs))
	return true
}

// ─── Block Kit payload ───────────────────────────────────────────────────────

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// buildSlackPayload renders the short-form digest as Block Kit blocks: a
// header, up to shortFormLimit sections, and a context block for the rest.
func buildSlackPayload(jobs []model.Job) slackPayload {
	divider := slackBlock{Type: "divider"}
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: fmt.Sprintf("%d new postings", len(jobs))},
		},
		divider,
	}

	shown := jobs
	if len(shown) > shortFormLimit {
		shown = shown[:shortFormLimit]
	}
	for _, j := range shown {
		var sb strings.Builder
		sb.WriteString("*" + j.Title + "*\n")
		if j.MaxPrice != nil {
			sb.WriteString(fmt.Sprintf("up to %d", *j.MaxPrice))
		}
		if j.Location != "" {
			sb.WriteString(" | " + j.Location)
		}
		if j.RemoteType != "" {
			sb.WriteString(" | " + string(j.RemoteType))
		}
		sb.WriteString(fmt.Sprintf("\n<%s|view posting>", j.SourceURL))

		blocks = append(blocks,
			slackBlock{Type: "section", Text: &slackText{Type: "mrkdwn", Text: sb.String()}},
			divider,
		)
	}

	if len(jobs) > shortFormLimit {
		blocks = append(blocks, slackBlock{
			Type: "context",
			Elements: []slackText{{
				Type: "mrkdwn",
				Text: fmt.Sprintf("... and %d more new postings", len(jobs)-shortFormLimit),
			}},
		})
	}

	return slackPayload{Blocks: blocks}
}
