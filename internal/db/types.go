package db

import (
	"time"

	"github.com/google/uuid"
)

// CandidateProfile is the job-seeker profile as the match engine sees it.
// The profile and resume-parsing subsystems own these rows; the engine
// only ever reads them.
type CandidateProfile struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Bio        string    `json:"bio"`
	Summary    string    `json:"summary"`
	Experience string    `json:"experience"`
	Education  string    `json:"education"`
	Skills     []string  `json:"skills"`

	// ProfileUpdatedAt and ResumeParsedAt mark the last time structured
	// fields or resume-derived fields changed. They drive cache staleness,
	// not wall-clock age alone.
	ProfileUpdatedAt *time.Time `json:"profileUpdatedAt"`
	ResumeParsedAt   *time.Time `json:"resumeParsedAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// JobPosting is the job listing as the match engine sees it (read-only).
type JobPosting struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Requirements   []string  `json:"requirements"`
	SkillsRequired []string  `json:"skillsRequired"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Suggestion sources for a MatchAnalysis.
const (
	SuggestionSourceLLM  = "llm"
	SuggestionSourceRule = "rule"
)

// AnalysisVersion tags the persisted analysis format.
const AnalysisVersion = "v1"

// MatchAnalysis is the persisted result of one match evaluation. Exactly
// one live record exists per (user, job) pair; recomputation replaces the
// record wholesale.
type MatchAnalysis struct {
	UserID uuid.UUID `json:"userId"`
	JobID  uuid.UUID `json:"jobId"`

	// MatchScore is always round((0.6*SkillScore + 0.4*SemanticScore)*100).
	MatchScore        int     `json:"matchScore"`
	SkillScore        float64 `json:"skillScore"`
	SemanticScore     float64 `json:"semanticScore"`
	SkillScorePercent int     `json:"skillScorePercent"`
	SemanticPercent   int     `json:"semanticPercent"`

	MatchedSkills []string `json:"matchedSkills"`
	MissingSkills []string `json:"missingSkills"`

	Suggestions      []string `json:"suggestions"`
	SummaryRewrite   string   `json:"summaryRewrite"`
	SuggestionSource string   `json:"suggestionSource"`

	AnalyzedAt time.Time `json:"analyzedAt"`

	// Snapshots of the candidate's versioning fields at analysis time.
	// Staleness detection compares these, not AnalyzedAt alone.
	ProfileUpdatedAtUsed *time.Time `json:"profileUpdatedAtUsed"`
	ResumeParsedAtUsed   *time.Time `json:"resumeParsedAtUsed"`

	Version string `json:"version"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
