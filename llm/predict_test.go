package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	response string
	err      error
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.response}},
	}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return m.response, m.err
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "fenced json block",
			input:    "Here is the plan:\n```json\n{\"sub_tasks\": []}\n```\nDone.",
			expected: `{"sub_tasks": []}`,
		},
		{
			name:     "plain fence",
			input:    "```\n{\"a\": 1}\n```",
			expected: `{"a": 1}`,
		},
		{
			name:     "bare object with prose",
			input:    `Sure! {"a": 1} hope that helps`,
			expected: `{"a": 1}`,
		},
		{
			name:     "no json at all",
			input:    "no structured output here",
			expected: "no structured output here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJSON(tt.input))
		})
	}
}

func TestPredictPlan(t *testing.T) {
	model := &fakeModel{response: "```json\n" + `{
		"sub_tasks": [
			{"name": "search", "input": "find sources", "expected_output": "a list of sources", "dependencies": []},
			{"name": "summarize", "input": "summarize sources", "expected_output": "a summary", "dependencies": ["search"]}
		]
	}` + "\n```"}

	p, err := NewModelPredictor(model).PredictPlan(context.Background(), "plan it")
	require.NoError(t, err)
	require.Len(t, p.SubTasks, 2)
	assert.Equal(t, "search", p.SubTasks[0].Name)
	assert.Equal(t, []string{"search"}, p.SubTasks[1].Dependencies)
}

func TestPredictPlanInvalidJSON(t *testing.T) {
	model := &fakeModel{response: "I cannot produce a plan for that."}

	_, err := NewModelPredictor(model).PredictPlan(context.Background(), "plan it")
	assert.Error(t, err)
}

func TestPredictPlanInvalidStructure(t *testing.T) {
	// Parses as JSON but fails plan validation (unknown dependency).
	model := &fakeModel{response: `{"sub_tasks": [{"name": "a", "input": "x", "expected_output": "", "dependencies": ["missing"]}]}`}

	_, err := NewModelPredictor(model).PredictPlan(context.Background(), "plan it")
	assert.Error(t, err)
}

func TestPredictPlanModelError(t *testing.T) {
	model := &fakeModel{err: errors.New("rate limited")}

	_, err := NewModelPredictor(model).PredictPlan(context.Background(), "plan it")
	assert.ErrorContains(t, err, "rate limited")
}
