package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/smallnest/planweave/llm"
	"github.com/smallnest/planweave/plan"
)

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("openai: missing API key")

// Predictor is a plan predictor backed by the OpenAI chat completion API.
// It requests JSON response mode, so the model is constrained to emit a
// single JSON object instead of prose around a code fence.
type Predictor struct {
	client *openai.Client
	model  string
}

var _ llm.PlanPredictor = (*Predictor)(nil)

type options struct {
	apiKey  string
	baseURL string
	model   string
}

// Option configures the predictor.
type Option func(*options)

// WithAPIKey sets the API key. Falls back to the OPENAI_API_KEY environment
// variable when unset.
func WithAPIKey(apiKey string) Option {
	return func(o *options) {
		o.apiKey = apiKey
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// WithModel sets the model name. Default is gpt-4o-mini.
func WithModel(model string) Option {
	return func(o *options) {
		o.model = model
	}
}

// New creates a new OpenAI-backed plan predictor.
func New(opts ...Option) (*Predictor, error) {
	o := &options{
		apiKey: os.Getenv("OPENAI_API_KEY"),
		model:  openai.GPT4oMini,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := openai.DefaultConfig(o.apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}

	return &Predictor{
		client: openai.NewClientWithConfig(cfg),
		model:  o.model,
	}, nil
}

// PredictPlan sends the planning prompt with JSON response mode enabled and
// parses the reply into a validated plan.
func (p *Predictor) PredictPlan(ctx context.Context, prompt string) (*plan.Plan, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a planning assistant. Respond only with a JSON object matching the requested schema.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai: chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty response")
	}

	return llm.ParsePlan(resp.Choices[0].Message.Content)
}
