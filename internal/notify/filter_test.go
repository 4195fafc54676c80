package notify

import (
	"testing"

	"github.com/enkou97/ses-job-crawler/internal/model"
)

func intp(v int) *int { return &v }

func jobWith(title string, maxPrice *int, remote model.RemoteType, skills []string) model.Job {
	return model.Job{Title: title, MaxPrice: maxPrice, RemoteType: remote, RequiredSkills: skills}
}

// ── Price threshold ────────────────────────────────────────────────────────

func TestFilterJobs_MinPriceThreshold(t *testing.T) {
	settings := &model.NotificationSettings{MinPriceThreshold: intp(70)}
	jobs := []model.Job{
		jobWith("cheap", intp(60), "", nil),
		jobWith("ok", intp(70), "", nil),
		jobWith("rich", intp(90), "", nil),
		jobWith("unpriced", nil, "", nil), // no max price → threshold not applied
	}

	got := FilterJobs(jobs, settings)
	if len(got) != 3 {
		t.Fatalf("filtered = %d jobs, want 3", len(got))
	}
	for i, want := range []string{"ok", "rich", "unpriced"} {
		if got[i].Title != want {
			t.Errorf("filtered[%d] = %q, want %q (order must be preserved)", i, got[i].Title, want)
		}
	}
}

// ── Remote-only ────────────────────────────────────────────────────────────

func TestFilterJobs_RemoteOnly(t *testing.T) {
	settings := &model.NotificationSettings{RemoteOnly: true}
	jobs := []model.Job{
		jobWith("full", nil, model.RemoteFull, nil),
		jobWith("partial", nil, model.RemotePartial, nil),
		jobWith("onsite", nil, model.RemoteNone, nil),
		jobWith("unspecified", nil, "", nil),
	}

	got := FilterJobs(jobs, settings)
	if len(got) != 2 {
		t.Fatalf("filtered = %d jobs, want 2", len(got))
	}
	if got[0].Title != "full" || got[1].Title != "partial" {
		t.Errorf("filtered = [%q %q], want [full partial]", got[0].Title, got[1].Title)
	}
}

// ── Skills filter ──────────────────────────────────────────────────────────

func TestFilterJobs_SkillsSubstringMatch(t *testing.T) {
	// "go" must match "Golang" case-insensitively.
	settings := &model.NotificationSettings{SkillsFilter: "java, go"}
	jobs := []model.Job{
		jobWith("golang", nil, "", []string{"Golang", "SQL"}),
		jobWith("java", nil, "", []string{"Java EE"}),
		jobWith("python", nil, "", []string{"Python", "Django"}),
		jobWith("noskills", nil, "", nil),
	}

	got := FilterJobs(jobs, settings)
	if len(got) != 2 {
		t.Fatalf("filtered = %d jobs, want 2", len(got))
	}
	if got[0].Title != "golang" || got[1].Title != "java" {
		t.Errorf("filtered = [%q %q], want [golang java]", got[0].Title, got[1].Title)
	}
}

func TestFilterJobs_AllCommasFilterDropsNothing(t *testing.T) {
	// A token set that parses to empty never drops a posting.
	settings := &model.NotificationSettings{SkillsFilter: " , ,, "}
	jobs := []model.Job{
		jobWith("a", nil, "", []string{"Go"}),
		jobWith("b", nil, "", nil),
	}

	if got := FilterJobs(jobs, settings); len(got) != 2 {
		t.Errorf("filtered = %d jobs, want all 2", len(got))
	}
}

func TestFilterJobs_EmptySettingsKeepsEverything(t *testing.T) {
	jobs := []model.Job{
		jobWith("a", intp(10), model.RemoteNone, nil),
		jobWith("b", nil, "", []string{"COBOL"}),
	}
	if got := FilterJobs(jobs, &model.NotificationSettings{}); len(got) != 2 {
		t.Errorf("filtered = %d jobs, want all 2", len(got))
	}
}

func TestFilterJobs_AllClausesConjoined(t *testing.T) {
	settings := &model.NotificationSettings{
		MinPriceThreshold: intp(70),
		RemoteOnly:        true,
		SkillsFilter:      "go",
	}
	jobs := []model.Job{
		jobWith("match", intp(80), model.RemoteFull, []string{"Golang"}),
		jobWith("cheap", intp(50), model.RemoteFull, []string{"Golang"}),
		jobWith("onsite", intp(80), model.RemoteNone, []string{"Golang"}),
		jobWith("wrong skills", intp(80), model.RemoteFull, []string{"Java"}),
	}

	got := FilterJobs(jobs, settings)
	if len(got) != 1 || got[0].Title != "match" {
		t.Errorf("filtered = %v, want only the posting passing all clauses", got)
	}
}

// ── parseSkillTokens ───────────────────────────────────────────────────────

func TestParseSkillTokens(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"Java, Go", []string{"java", "go"}},
		{" java ,,GO, ", []string{"java", "go"}},
	}
	for _, c := range cases {
		got := parseSkillTokens(c.in)
		if len(got) != len(c.want) {
			t.Errorf("parseSkillTokens(%q) = %v, want %v", c.in, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("parseSkillTokens(%q)[%d] = %q, want %q", c.in, i, got[i], c.want[i])
			}
		}
	}
}
