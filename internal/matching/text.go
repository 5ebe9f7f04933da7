package matching

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/akirakaori/lakshya-match/internal/db"
)

const (
	// Prefix bounds keep the semantic request payload small; the similarity
	// service cares about the opening of these free-text fields, not the tail.
	maxExperienceChars = 500
	maxEducationChars  = 300
)

// BuildResumeText flattens a candidate profile into the text blob sent to
// the semantic similarity service. Empty fields are skipped; experience and
// education contribute a bounded prefix.
func BuildResumeText(profile *db.CandidateProfile) string {
	var parts []string
	if profile.Bio != "" {
		parts = append(parts, profile.Bio)
	}
	if profile.Summary != "" {
		parts = append(parts, profile.Summary)
	}
	if len(profile.Skills) > 0 {
		parts = append(parts, strings.Join(profile.Skills, ", "))
	}
	if profile.Experience != "" {
		parts = append(parts, truncateRunes(profile.Experience, maxExperienceChars))
	}
	if profile.Education != "" {
		parts = append(parts, truncateRunes(profile.Education, maxEducationChars))
	}
	if profile.Title != "" {
		parts = append(parts, profile.Title)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// BuildJobText flattens a job posting into the text blob sent to the
// semantic similarity service. Rich-text descriptions are stripped to
// plain text first.
func BuildJobText(job *db.JobPosting) string {
	var parts []string
	if desc := StripHTML(job.Description); desc != "" {
		parts = append(parts, desc)
	}
	if len(job.Requirements) > 0 {
		parts = append(parts, strings.Join(job.Requirements, ". "))
	}
	if len(job.SkillsRequired) > 0 {
		parts = append(parts, strings.Join(job.SkillsRequired, ", "))
	}
	if job.Title != "" {
		parts = append(parts, job.Title)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// StripHTML reduces a rich-text job description to plain text. Plain
// descriptions pass through untouched; if markup fails to parse, the raw
// string is used rather than dropping the field.
func StripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	doc.Find("script, style").Remove()

	return strings.Join(strings.Fields(doc.Text()), " ")
}

// truncateRunes bounds s to at most n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
