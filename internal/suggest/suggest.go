// Package suggest produces advisory tips for a computed job match. Two
// interchangeable strategies implement the Generator contract: an
// LLM-backed one and a deterministic rule-based one. Strategy selection
// and fallback belong to the caller, not to either strategy.
package suggest

import "context"

// Tip count bounds for any generator output.
const (
	MinSuggestions = 3
	MaxSuggestions = 5
)

// Input carries the match context a generator advises on.
type Input struct {
	MissingSkills []string
	MatchScore    int
	JobTitle      string
	// Summary is the candidate's current bio or summary text, used for
	// the rewritten-summary output.
	Summary string
}

// Result is the shared output shape of all generators.
type Result struct {
	// Suggestions holds 1..5 short advisory strings.
	Suggestions []string
	// SummaryRewrite is a short rewritten profile summary, empty when the
	// generator does not produce one.
	SummaryRewrite string
	// Source tags the strategy that produced the result ("llm" or "rule").
	Source string
}

// Generator produces advice for one match. Implementations return an error
// to report that they could not produce a usable result; they never panic
// past the caller.
type Generator interface {
	Generate(ctx context.Context, in Input) (*Result, error)
}
