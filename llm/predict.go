package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/planweave/plan"
)

// PlanPredictor asks an LLM for a structured plan and validates the result.
// A prediction that cannot be parsed into a valid plan returns an error; the
// planner decides how to degrade.
type PlanPredictor interface {
	PredictPlan(ctx context.Context, prompt string) (*plan.Plan, error)
}

// ModelPredictor implements PlanPredictor on top of any langchaingo model.
type ModelPredictor struct {
	model llms.Model
}

var _ PlanPredictor = (*ModelPredictor)(nil)

// NewModelPredictor creates a predictor backed by the given model.
func NewModelPredictor(model llms.Model) *ModelPredictor {
	return &ModelPredictor{model: model}
}

// PredictPlan renders the prompt as a single human message, generates a
// completion, extracts the JSON payload, and unmarshals + validates the plan.
func (p *ModelPredictor) PredictPlan(ctx context.Context, prompt string) (*plan.Plan, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart("You are a planning assistant that responds only with JSON matching the requested schema.")},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	resp, err := p.model.GenerateContent(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from model")
	}

	return ParsePlan(resp.Choices[0].Content)
}

// ParsePlan extracts JSON from an LLM response and unmarshals it into a
// validated plan.
func ParsePlan(text string) (*plan.Plan, error) {
	jsonText := ExtractJSON(text)

	var p plan.Plan
	if err := json.Unmarshal([]byte(jsonText), &p); err != nil {
		return nil, fmt.Errorf("failed to parse plan JSON: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

var (
	codeBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*({.*?})\\s*```")
	jsonRegex      = regexp.MustCompile("(?s){.*}")
)

// ExtractJSON extracts a JSON object from text that may wrap it in markdown
// code fences or surround it with prose.
func ExtractJSON(text string) string {
	matches := codeBlockRegex.FindStringSubmatch(text)
	if len(matches) > 1 {
		return matches[1]
	}

	matches = jsonRegex.FindStringSubmatch(text)
	if len(matches) > 0 {
		return matches[0]
	}

	return text
}
