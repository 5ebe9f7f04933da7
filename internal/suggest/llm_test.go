package suggest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akirakaori/lakshya-match/internal/db"
)

// fakeLLMClient returns a canned response or error.
type fakeLLMClient struct {
	response string
	err      error
	prompt   string
}

func (f *fakeLLMClient) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func (f *fakeLLMClient) Close() error { return nil }

func TestLLMGenerator_CleanJSON(t *testing.T) {
	client := &fakeLLMClient{
		response: `{"suggestions":["Learn Go","Add metrics experience","Polish your summary"],"summaryRewrite":"Experienced engineer targeting platform roles."}`,
	}

	result, err := NewLLMGenerator(client).Generate(context.Background(), Input{
		MissingSkills: []string{"Go"},
		MatchScore:    64,
		JobTitle:      "Platform Engineer",
		Summary:       "I build things.",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Learn Go", "Add metrics experience", "Polish your summary"}, result.Suggestions)
	assert.Equal(t, "Experienced engineer targeting platform roles.", result.SummaryRewrite)
	assert.Equal(t, db.SuggestionSourceLLM, result.Source)
}

func TestLLMGenerator_PromptCarriesMatchContext(t *testing.T) {
	client := &fakeLLMClient{response: `{"suggestions":["a","b","c"]}`}

	_, err := NewLLMGenerator(client).Generate(context.Background(), Input{
		MissingSkills: []string{"Terraform", "AWS"},
		MatchScore:    41,
		JobTitle:      "Cloud Engineer",
		Summary:       "Ops background.",
	})
	require.NoError(t, err)

	assert.Contains(t, client.prompt, "Terraform, AWS")
	assert.Contains(t, client.prompt, "41%")
	assert.Contains(t, client.prompt, "Cloud Engineer")
	assert.Contains(t, client.prompt, "Ops background.")
}

func TestLLMGenerator_JSONWrappedInProse(t *testing.T) {
	client := &fakeLLMClient{
		response: `Here is my advice: {"suggestions":["Tip one","Tip two","Tip three"],"summaryRewrite":"Rewritten."} Let me know if you need more.`,
	}

	result, err := NewLLMGenerator(client).Generate(context.Background(), Input{})
	require.NoError(t, err)

	assert.Len(t, result.Suggestions, 3)
	assert.Equal(t, "Rewritten.", result.SummaryRewrite)
}

func TestLLMGenerator_MarkdownFencedJSON(t *testing.T) {
	client := &fakeLLMClient{
		response: "```json\n{\"suggestions\":[\"Tip one\",\"Tip two\",\"Tip three\"]}\n```",
	}

	result, err := NewLLMGenerator(client).Generate(context.Background(), Input{})
	require.NoError(t, err)

	assert.Len(t, result.Suggestions, 3)
}

func TestLLMGenerator_DropsNonStringElements(t *testing.T) {
	client := &fakeLLMClient{
		response: `{"suggestions":["Keep this",42,null,"  ","And this"]}`,
	}

	result, err := NewLLMGenerator(client).Generate(context.Background(), Input{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Keep this", "And this"}, result.Suggestions)
}

func TestLLMGenerator_TruncatesToFive(t *testing.T) {
	client := &fakeLLMClient{
		response: `{"suggestions":["1","2","3","4","5","6","7"]}`,
	}

	result, err := NewLLMGenerator(client).Generate(context.Background(), Input{})
	require.NoError(t, err)

	assert.Len(t, result.Suggestions, MaxSuggestions)
}

func TestLLMGenerator_NonStringSummaryIgnored(t *testing.T) {
	client := &fakeLLMClient{
		response: `{"suggestions":["a","b","c"],"summaryRewrite":12345}`,
	}

	result, err := NewLLMGenerator(client).Generate(context.Background(), Input{})
	require.NoError(t, err)

	assert.Empty(t, result.SummaryRewrite)
}

func TestLLMGenerator_Errors(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{name: "client failure", err: errors.New("connection refused")},
		{name: "no JSON at all", response: "I cannot help with that."},
		{name: "missing suggestions key", response: `{"summaryRewrite":"only this"}`},
		{name: "suggestions not an array", response: `{"suggestions":"learn go"}`},
		{name: "all suggestions unusable", response: `{"suggestions":[1,2,null]}`},
		{name: "empty suggestions", response: `{"suggestions":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeLLMClient{response: tt.response, err: tt.err}
			result, err := NewLLMGenerator(client).Generate(context.Background(), Input{})

			assert.Error(t, err)
			assert.Nil(t, result)
		})
	}
}
