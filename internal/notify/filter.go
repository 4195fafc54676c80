// Package notify implements criteria filtering, the per-channel notifiers
// and the orchestrator that fans a batch of new postings out to them.
package notify

import (
	"strings"

	"github.com/enkou97/ses-job-crawler/internal/model"
)

// FilterJobs narrows jobs to the ones matching the notification settings.
// Pure and order-preserving: the result is a subsequence of jobs.
func FilterJobs(jobs []model.Job, settings *model.NotificationSettings) []model.Job {
	tokens := parseSkillTokens(settings.SkillsFilter)

	filtered := make([]model.Job, 0, len(jobs))
	for _, j := range jobs {
		if settings.MinPriceThreshold != nil && j.MaxPrice != nil &&
			*j.MaxPrice < *settings.MinPriceThreshold {
			continue
		}

		if settings.RemoteOnly &&
			(j.RemoteType == "" || j.RemoteType == model.RemoteNone) {
			continue
		}

		if len(tokens) > 0 && !matchesAnySkill(j.RequiredSkills, tokens) {
			continue
		}

		filtered = append(filtered, j)
	}
	return filtered
}

// parseSkillTokens splits a comma-separated filter into trimmed, lowercased
// tokens, dropping empties. "java, ,Go," yields ["java", "go"].
func parseSkillTokens(filter string) []string {
	if strings.TrimSpace(filter) == "" {
		return nil
	}
	var tokens []string
	for _, raw := range strings.Split(filter, ",") {
		token := strings.ToLower(strings.TrimSpace(raw))
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// matchesAnySkill reports whether any required skill contains any token,
// case-insensitively. "go" matching "Golang" is intended: tokens are
// substrings, not whole words.
func matchesAnySkill(skills, tokens []string) bool {
	for _, skill := range skills {
		lowered := strings.ToLower(skill)
		for _, token := range tokens {
			if strings.Contains(lowered, token) {
				return true
			}
		}
	}
	return false
}
