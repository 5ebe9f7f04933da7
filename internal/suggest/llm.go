package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/akirakaori/lakshya-match/internal/db"
	"github.com/akirakaori/lakshya-match/internal/llm"
)

// maxSummaryPromptChars bounds how much of the candidate summary is quoted
// in the prompt.
const maxSummaryPromptChars = 300

// payloadSchema is the strict shape expected back from the model. The
// response is an untrusted payload; anything that fails this schema is
// rejected rather than partially trusted.
const payloadSchema = `{
	"type": "object",
	"required": ["suggestions"],
	"properties": {
		"suggestions": {"type": "array"},
		"summaryRewrite": {}
	}
}`

// LLMGenerator produces advice by prompting a generation model for strict
// JSON. It reports failure (an error) whenever the model cannot be reached
// or returns nothing usable; the caller substitutes the rule-based strategy.
type LLMGenerator struct {
	client llm.Client
}

// NewLLMGenerator creates an LLM-backed generator on top of the given client.
func NewLLMGenerator(client llm.Client) *LLMGenerator {
	return &LLMGenerator{client: client}
}

// Generate prompts the model and defensively parses its response.
func (g *LLMGenerator) Generate(ctx context.Context, in Input) (*Result, error) {
	raw, err := g.client.Generate(ctx, buildPrompt(in))
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	payload, err := parsePayload(raw)
	if err != nil {
		return nil, err
	}

	suggestions := validStrings(payload.Suggestions)
	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("model returned no usable suggestions")
	}

	summaryRewrite := ""
	if s, ok := payload.SummaryRewrite.(string); ok {
		summaryRewrite = s
	}

	return &Result{
		Suggestions:    suggestions,
		SummaryRewrite: summaryRewrite,
		Source:         db.SuggestionSourceLLM,
	}, nil
}

type rawPayload struct {
	Suggestions    []any `json:"suggestions"`
	SummaryRewrite any   `json:"summaryRewrite"`
}

// parsePayload extracts the JSON object from the model's response text.
// Direct parsing is attempted first; failing that, the first balanced
// {...} substring is tried, since models routinely wrap the object in
// extra prose despite instructions.
func parsePayload(raw string) (*rawPayload, error) {
	text := llm.CleanJSONBlock(raw)

	candidate := text
	if !json.Valid([]byte(candidate)) {
		candidate = llm.ExtractJSONObject(text)
		if candidate == "" {
			return nil, fmt.Errorf("no JSON object in model response")
		}
	}

	var generic any
	if err := json.Unmarshal([]byte(candidate), &generic); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(payloadSchema),
		gojsonschema.NewGoLoader(generic))
	if err != nil {
		return nil, fmt.Errorf("failed to validate model response: %w", err)
	}
	if !result.Valid() {
		var reasons []string
		for _, e := range result.Errors() {
			reasons = append(reasons, e.String())
		}
		return nil, fmt.Errorf("model response failed schema validation: %s", strings.Join(reasons, "; "))
	}

	var payload rawPayload
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	return &payload, nil
}

// validStrings keeps string elements and drops everything else.
func validStrings(items []any) []string {
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func buildPrompt(in Input) string {
	missing := strings.Join(in.MissingSkills, ", ")
	if missing == "" {
		missing = "none"
	}

	summary := in.Summary
	if runes := []rune(summary); len(runes) > maxSummaryPromptChars {
		summary = string(runes[:maxSummaryPromptChars])
	}

	return fmt.Sprintf(`You are a career advisor AI. Given the following data, produce ONLY valid JSON (no markdown, no extra text) with this exact structure:
{"suggestions":["tip1","tip2","tip3"],"summaryRewrite":"One or two polished sentences rewriting the candidate summary for the job."}

Data:
- Job title: %q
- Match score: %d%%
- Missing skills: %s
- Current summary: %q

Requirements:
- suggestions: 3-5 actionable, concise tips
- summaryRewrite: 1-2 sentence polished rewrite of the candidate summary targeted at the job
- Return ONLY the JSON object, nothing else`,
		in.JobTitle, in.MatchScore, missing, summary)
}
