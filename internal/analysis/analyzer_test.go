package analysis

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akirakaori/lakshya-match/internal/db"
	"github.com/akirakaori/lakshya-match/internal/semantic"
	"github.com/akirakaori/lakshya-match/internal/suggest"
)

type fakeScorer struct {
	result semantic.Result
}

func (f *fakeScorer) Score(_ context.Context, _, _ string) semantic.Result {
	return f.result
}

type fakeGenerator struct {
	result *suggest.Result
	err    error
	calls  int
}

func (f *fakeGenerator) Generate(_ context.Context, _ suggest.Input) (*suggest.Result, error) {
	f.calls++
	return f.result, f.err
}

type panicGenerator struct{}

func (panicGenerator) Generate(_ context.Context, _ suggest.Input) (*suggest.Result, error) {
	panic("generator bug")
}

func testProfile(skills ...string) *db.CandidateProfile {
	return &db.CandidateProfile{
		ID:     uuid.New(),
		Title:  "Engineer",
		Bio:    "Experienced engineer.",
		Skills: skills,
	}
}

func testJob(required ...string) *db.JobPosting {
	return &db.JobPosting{
		ID:             uuid.New(),
		Title:          "Platform Engineer",
		Description:    "Build the platform.",
		SkillsRequired: required,
	}
}

func TestComputeMatch_WeightedScore(t *testing.T) {
	// Four required skills so the skill score steps through 0, 0.25, ... 1.
	required := []string{"go", "kubernetes", "terraform", "aws"}

	for have := 0; have <= len(required); have++ {
		for _, sem := range []float64{0, 0.25, 0.5, 1} {
			analyzer := NewAnalyzer(
				&fakeScorer{result: semantic.Result{SemanticScore: sem, SemanticPercent: int(sem * 100)}},
				suggest.NewRuleGenerator(),
			)

			result := analyzer.ComputeMatch(context.Background(),
				testProfile(required[:have]...), testJob(required...))

			skillScore := float64(have) / float64(len(required))
			want := int(math.Round((0.6*skillScore + 0.4*sem) * 100))
			assert.Equal(t, want, result.MatchScore, "have=%d sem=%v", have, sem)
			assert.GreaterOrEqual(t, result.MatchScore, 0)
			assert.LessOrEqual(t, result.MatchScore, 100)
		}
	}
}

func TestComputeMatch_AssemblesFullAnalysis(t *testing.T) {
	profile := testProfile("Go", "SQL")
	job := testJob("go", "docker")

	profileUpdated := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	resumeParsed := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	profile.ProfileUpdatedAt = &profileUpdated
	profile.ResumeParsedAt = &resumeParsed

	analyzedAt := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	analyzer := NewAnalyzer(
		&fakeScorer{result: semantic.Result{SemanticScore: 0.5, SemanticPercent: 50}},
		suggest.NewRuleGenerator(),
	)
	analyzer.now = func() time.Time { return analyzedAt }

	result := analyzer.ComputeMatch(context.Background(), profile, job)

	assert.Equal(t, profile.ID, result.UserID)
	assert.Equal(t, job.ID, result.JobID)
	assert.Equal(t, []string{"go"}, result.MatchedSkills)
	assert.Equal(t, []string{"docker"}, result.MissingSkills)
	assert.Equal(t, 0.5, result.SkillScore)
	assert.Equal(t, 50, result.SkillScorePercent)
	assert.Equal(t, 0.5, result.SemanticScore)
	assert.Equal(t, 50, result.SemanticPercent)
	assert.Equal(t, 50, result.MatchScore)
	assert.Equal(t, analyzedAt, result.AnalyzedAt)
	assert.Equal(t, &profileUpdated, result.ProfileUpdatedAtUsed)
	assert.Equal(t, &resumeParsed, result.ResumeParsedAtUsed)
	assert.Equal(t, db.AnalysisVersion, result.Version)
	assert.NotEmpty(t, result.Suggestions)
}

func TestComputeMatch_PrefersFirstGenerator(t *testing.T) {
	llmResult := &suggest.Result{
		Suggestions:    []string{"a", "b", "c"},
		SummaryRewrite: "Polished summary.",
		Source:         db.SuggestionSourceLLM,
	}
	primary := &fakeGenerator{result: llmResult}
	fallback := &fakeGenerator{result: &suggest.Result{Suggestions: []string{"x", "y", "z"}, Source: db.SuggestionSourceRule}}

	analyzer := NewAnalyzer(&fakeScorer{}, primary, fallback)
	result := analyzer.ComputeMatch(context.Background(), testProfile("go"), testJob("go"))

	assert.Equal(t, db.SuggestionSourceLLM, result.SuggestionSource)
	assert.Equal(t, "Polished summary.", result.SummaryRewrite)
	assert.Equal(t, 0, fallback.calls)
}

func TestComputeMatch_FallsBackToRuleGenerator(t *testing.T) {
	primary := &fakeGenerator{err: errors.New("model unavailable")}
	analyzer := NewAnalyzer(&fakeScorer{}, primary, suggest.NewRuleGenerator())

	result := analyzer.ComputeMatch(context.Background(), testProfile("go"), testJob("go", "rust"))

	assert.Equal(t, db.SuggestionSourceRule, result.SuggestionSource)
	assert.GreaterOrEqual(t, len(result.Suggestions), suggest.MinSuggestions)
	assert.LessOrEqual(t, len(result.Suggestions), suggest.MaxSuggestions)
	assert.Equal(t, 1, primary.calls)
}

func TestComputeMatch_AllGeneratorsFail(t *testing.T) {
	analyzer := NewAnalyzer(&fakeScorer{}, &fakeGenerator{err: errors.New("down")})

	result := analyzer.ComputeMatch(context.Background(), testProfile("go"), testJob("go"))

	require.Len(t, result.Suggestions, 1)
	assert.Contains(t, result.Suggestions[0], "temporarily unavailable")
	assert.Equal(t, db.SuggestionSourceRule, result.SuggestionSource)
}

func TestComputeMatch_RecoversFromPanic(t *testing.T) {
	profile := testProfile("go")
	job := testJob("go", "kubernetes")

	analyzer := NewAnalyzer(&fakeScorer{}, panicGenerator{})
	result := analyzer.ComputeMatch(context.Background(), profile, job)

	require.NotNil(t, result)
	assert.Equal(t, profile.ID, result.UserID)
	assert.Equal(t, job.ID, result.JobID)
	assert.Equal(t, 0, result.MatchScore)
	assert.Empty(t, result.MatchedSkills)
	assert.Equal(t, job.SkillsRequired, result.MissingSkills)
	require.Len(t, result.Suggestions, 1)
	assert.Contains(t, result.Suggestions[0], "try again later")
}

func TestCandidateSummary_PrefersBio(t *testing.T) {
	assert.Equal(t, "bio", candidateSummary(&db.CandidateProfile{Bio: "bio", Summary: "summary"}))
	assert.Equal(t, "summary", candidateSummary(&db.CandidateProfile{Summary: "summary"}))
	assert.Equal(t, "", candidateSummary(&db.CandidateProfile{}))
}
