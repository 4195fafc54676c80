package notify

import (
	"fmt"
	"strings"
	"testing"

	"github.com/enkou97/ses-job-crawler/internal/model"
)

func batchOf(n int) []model.Job {
	jobs := make([]model.Job, 0, n)
	for i := 0; i < n; i++ {
		price := 70 + i
		jobs = append(jobs, model.Job{
			Title:     fmt.Sprintf("posting-%02d", i),
			MaxPrice:  &price,
			SourceURL: fmt.Sprintf("https://example.com/jobs/%d", i),
		})
	}
	return jobs
}

// ── Long-form truncation (email: 10 + suffix) ──────────────────────────────

func TestBuildEmailBody_TruncatesAtTen(t *testing.T) {
	body := buildEmailBody(batchOf(12))

	rendered := strings.Count(body, "* posting-")
	if rendered != 10 {
		t.Errorf("email body renders %d postings, want 10", rendered)
	}
	if !strings.Contains(body, "and 2 more") {
		t.Errorf("email body missing the truncation suffix:\n%s", body)
	}
}

func TestBuildEmailBody_SmallBatchHasNoSuffix(t *testing.T) {
	body := buildEmailBody(batchOf(3))

	if strings.Count(body, "* posting-") != 3 {
		t.Errorf("email body should render all 3 postings:\n%s", body)
	}
	if strings.Contains(body, "more") {
		t.Errorf("email body must not carry a truncation suffix for 3 postings:\n%s", body)
	}
}

// ── Short-form truncation (LINE / Slack: 5 + suffix) ───────────────────────

func TestBuildLineMessage_TruncatesAtFive(t *testing.T) {
	msg := buildLineMessage(batchOf(12))

	rendered := strings.Count(msg, "posting-")
	if rendered != 5 {
		t.Errorf("LINE message renders %d postings, want 5", rendered)
	}
	if !strings.Contains(msg, "and 7 more") {
		t.Errorf("LINE message missing the truncation suffix:\n%s", msg)
	}
}

func TestBuildSlackPayload_TruncatesAtFive(t *testing.T) {
	payload := buildSlackPayload(batchOf(12))

	sections := 0
	contexts := 0
	for _, b := range payload.Blocks {
		switch b.Type {
		case "section":
			sections++
		case "context":
			contexts++
		}
	}
	if sections != 5 {
		t.Errorf("Slack payload has %d sections, want 5", sections)
	}
	if contexts != 1 {
		t.Error("Slack payload missing the context block for the remainder")
	}

	last := payload.Blocks[len(payload.Blocks)-1]
	if last.Type != "context" || len(last.Elements) != 1 ||
		!strings.Contains(last.Elements[0].Text, "and 7 more") {
		t.Errorf("Slack context block = %+v, want 'and 7 more'", last)
	}
}

func TestBuildSlackPayload_HeaderCountsWholeBatch(t *testing.T) {
	payload := buildSlackPayload(batchOf(12))
	if len(payload.Blocks) == 0 || payload.Blocks[0].Type != "header" {
		t.Fatal("first block must be the header")
	}
	if !strings.Contains(payload.Blocks[0].Text.Text, "12") {
		t.Errorf("header = %q, want the full batch count 12", payload.Blocks[0].Text.Text)
	}
}
