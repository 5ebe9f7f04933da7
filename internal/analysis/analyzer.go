// Package analysis implements the job-candidate match engine: score
// aggregation, suggestion strategy selection, and the per-(user, job)
// analysis cache with change-aware freshness.
package analysis

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/akirakaori/lakshya-match/internal/db"
	"github.com/akirakaori/lakshya-match/internal/matching"
	"github.com/akirakaori/lakshya-match/internal/semantic"
	"github.com/akirakaori/lakshya-match/internal/suggest"
)

// Score weighting: the deterministic skill component dominates the
// externally computed semantic component.
const (
	skillWeight    = 0.6
	semanticWeight = 0.4
)

// SemanticScorer is the outbound text-similarity dependency. Implementations
// degrade to a zero result on failure rather than returning an error.
type SemanticScorer interface {
	Score(ctx context.Context, resumeText, jobText string) semantic.Result
}

// Analyzer assembles a full MatchAnalysis from a profile and a job posting.
// Suggestion generators are tried in order; the last one is expected to be
// the infallible rule-based strategy, so the pipeline always yields advice.
type Analyzer struct {
	semantic   SemanticScorer
	generators []suggest.Generator
	now        func() time.Time
}

// NewAnalyzer creates an Analyzer. Generators are tried in the given order;
// pass the LLM-backed strategy first and the rule-based one last.
func NewAnalyzer(scorer SemanticScorer, generators ...suggest.Generator) *Analyzer {
	return &Analyzer{
		semantic:   scorer,
		generators: generators,
		now:        time.Now,
	}
}

// ComputeMatch evaluates profile against job and returns the assembled,
// not-yet-persisted analysis. It never fails: an unexpected panic inside
// the pipeline is absorbed into a safe all-zero analysis, because a scoring
// bug must not hard-fail the caller's request.
func (a *Analyzer) ComputeMatch(ctx context.Context, profile *db.CandidateProfile, job *db.JobPosting) (result *db.MatchAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[analyzer] compute panicked for user=%s job=%s: %v", profile.ID, job.ID, r)
			result = a.safeAnalysis(profile, job)
		}
	}()

	skillMatch := matching.MatchSkills(profile.Skills, job.SkillsRequired)

	resumeText := matching.BuildResumeText(profile)
	jobText := matching.BuildJobText(job)
	sem := a.semantic.Score(ctx, resumeText, jobText)

	matchScore := weightedScore(skillMatch.SkillScore, sem.SemanticScore)

	advice := a.generateSuggestions(ctx, suggest.Input{
		MissingSkills: skillMatch.Missing,
		MatchScore:    matchScore,
		JobTitle:      job.Title,
		Summary:       candidateSummary(profile),
	})

	return &db.MatchAnalysis{
		UserID:               profile.ID,
		JobID:                job.ID,
		MatchScore:           matchScore,
		SkillScore:           skillMatch.SkillScore,
		SemanticScore:        sem.SemanticScore,
		SkillScorePercent:    int(math.Round(skillMatch.SkillScore * 100)),
		SemanticPercent:      sem.SemanticPercent,
		MatchedSkills:        skillMatch.Matched,
		MissingSkills:        skillMatch.Missing,
		Suggestions:          advice.Suggestions,
		SummaryRewrite:       advice.SummaryRewrite,
		SuggestionSource:     advice.Source,
		AnalyzedAt:           a.now().UTC(),
		ProfileUpdatedAtUsed: profile.ProfileUpdatedAt,
		ResumeParsedAtUsed:   profile.ResumeParsedAt,
		Version:              db.AnalysisVersion,
	}
}

// generateSuggestions tries each strategy in order and takes the first
// usable result. Strategy failures are logged, never propagated.
func (a *Analyzer) generateSuggestions(ctx context.Context, in suggest.Input) *suggest.Result {
	for _, g := range a.generators {
		result, err := g.Generate(ctx, in)
		if err != nil {
			log.Printf("[analyzer] suggestion strategy failed, trying next: %v", err)
			continue
		}
		if result != nil && len(result.Suggestions) > 0 {
			return result
		}
	}

	// All strategies failed. Reachable only when the caller wired no
	// rule-based fallback.
	return &suggest.Result{
		Suggestions: []string{"Match advice is temporarily unavailable. Please try again later."},
		Source:      db.SuggestionSourceRule,
	}
}

// safeAnalysis is the fail-open result: all-zero scores, every required
// skill reported missing, one retry suggestion.
func (a *Analyzer) safeAnalysis(profile *db.CandidateProfile, job *db.JobPosting) *db.MatchAnalysis {
	missing := make([]string, len(job.SkillsRequired))
	copy(missing, job.SkillsRequired)

	return &db.MatchAnalysis{
		UserID:               profile.ID,
		JobID:                job.ID,
		MatchedSkills:        []string{},
		MissingSkills:        missing,
		Suggestions:          []string{"We could not analyze this match right now. Please try again later."},
		SuggestionSource:     db.SuggestionSourceRule,
		AnalyzedAt:           a.now().UTC(),
		ProfileUpdatedAtUsed: profile.ProfileUpdatedAt,
		ResumeParsedAtUsed:   profile.ResumeParsedAt,
		Version:              db.AnalysisVersion,
	}
}

// weightedScore combines the two sub-scores into the 0-100 match score.
func weightedScore(skillScore, semanticScore float64) int {
	return int(math.Round((skillWeight*skillScore + semanticWeight*semanticScore) * 100))
}

func candidateSummary(profile *db.CandidateProfile) string {
	if profile.Bio != "" {
		return profile.Bio
	}
	return profile.Summary
}
