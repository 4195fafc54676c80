package notify

import (
	"context"

	"github.com/enkou97/ses-job-crawler/internal/model"
)

// Channel names, as stored in the audit log and matched by the test endpoint.
const (
	ChannelEmail = "email"
	ChannelLine  = "line"
	ChannelSlack = "slack"
)

// Rendered message bodies truncate the batch: long-form channels show the
// first 10 postings, short-form chat channels the first 5, each followed by
// an "and N more" suffix.
const (
	longFormLimit  = 10
	shortFormLimit = 5
)

// Notifier formats and delivers one batch of postings on one channel.
//
// Send never returns an error: a disabled channel, a missing credential or a
// transport failure all come back as false, logged internally. Channels are
// mutually independent — the orchestrator keeps calling siblings regardless
// of the outcome.
type Notifier interface {
	Name() string
	Send(ctx context.Context, settings *model.NotificationSettings, jobs []model.Job) bool
}
