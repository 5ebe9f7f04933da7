package suggest

import (
	"context"
	"fmt"
	"strings"

	"github.com/akirakaori/lakshya-match/internal/db"
)

// Match score thresholds that change the tailoring advice.
const (
	lowMatchThreshold      = 50
	moderateMatchThreshold = 75
)

// padTips top up the result when the branch logic produced fewer than
// MinSuggestions tips.
var padTips = []string{
	"Keep your profile up to date with your latest projects and accomplishments.",
	"Ask a peer or mentor to review your profile for clarity and impact.",
}

// RuleGenerator produces deterministic advice from the match context alone.
// It is pure, needs no I/O, and never fails, which makes it the fallback
// strategy that keeps the suggestion feature always available.
type RuleGenerator struct{}

// NewRuleGenerator creates the rule-based generator.
func NewRuleGenerator() *RuleGenerator {
	return &RuleGenerator{}
}

// Generate builds 3-5 tips from missing skills and the match score.
func (g *RuleGenerator) Generate(_ context.Context, in Input) (*Result, error) {
	var tips []string

	if len(in.MissingSkills) > 0 {
		top := strings.Join(firstN(in.MissingSkills, 3), ", ")
		tips = append(tips, fmt.Sprintf("Add these in-demand skills to your profile: %s.", top))
	}

	if len(in.MissingSkills) > 3 {
		rest := strings.Join(firstN(in.MissingSkills[3:], 3), ", ")
		tips = append(tips, fmt.Sprintf("Consider taking online courses in %s to strengthen your application.", rest))
	}

	switch {
	case in.MatchScore < lowMatchThreshold:
		tips = append(tips, fmt.Sprintf("Your match score is below 50%%. Tailor your resume summary to highlight relevant experience for %q.", in.JobTitle))
	case in.MatchScore < moderateMatchThreshold:
		tips = append(tips, fmt.Sprintf("You're a moderate match. Emphasize projects or certifications related to %q in your profile.", in.JobTitle))
	}

	tips = append(tips, "Write a targeted cover letter explaining how your experience directly maps to the job requirements.")

	for i := 0; len(tips) < MinSuggestions && i < len(padTips); i++ {
		tips = append(tips, padTips[i])
	}

	if len(tips) > MaxSuggestions {
		tips = tips[:MaxSuggestions]
	}

	return &Result{
		Suggestions: tips,
		Source:      db.SuggestionSourceRule,
	}, nil
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
