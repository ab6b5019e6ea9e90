package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/smallnest/planweave/llm"
	"github.com/smallnest/planweave/log"
	"github.com/smallnest/planweave/planner"
)

const scratchpadKey = "scratchpad"

// stepDecision is what the model returns for each step: either a tool to run
// or a final answer.
type stepDecision struct {
	Tool      string `json:"tool,omitempty"`
	ToolInput string `json:"tool_input,omitempty"`
	Answer    string `json:"answer,omitempty"`
}

// ToolCallingExecutor is a StepExecutor that lets an LLM pick one tool per
// step. Each step the model sees the task input and the observations gathered
// so far, and returns either a tool invocation or a final answer. Observations
// accumulate in the task's ExtraState under the "scratchpad" key.
type ToolCallingExecutor struct {
	model    llms.Model
	executor *ToolExecutor
	logger   log.Logger
	verbose  bool
}

var _ planner.StepExecutor = (*ToolCallingExecutor)(nil)

// ToolCallingOption configures a ToolCallingExecutor.
type ToolCallingOption func(*ToolCallingExecutor)

// WithVerbose enables step-by-step logging.
func WithVerbose(verbose bool) ToolCallingOption {
	return func(e *ToolCallingExecutor) {
		e.verbose = verbose
	}
}

// WithLogger sets the logger used for verbose output.
func WithLogger(logger log.Logger) ToolCallingOption {
	return func(e *ToolCallingExecutor) {
		e.logger = logger
	}
}

// NewToolCallingExecutor creates a step executor over the given model and tools.
func NewToolCallingExecutor(model llms.Model, inputTools []tools.Tool, opts ...ToolCallingOption) *ToolCallingExecutor {
	e := &ToolCallingExecutor{
		model:    model,
		executor: NewToolExecutor(inputTools),
		logger:   log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Step runs one increment of the task: ask the model for a decision, then
// either execute the chosen tool (IsLast=false) or return the final answer
// (IsLast=true).
func (e *ToolCallingExecutor) Step(ctx context.Context, task *planner.Task, mode planner.Mode, toolChoice planner.ToolChoice) (planner.TaskStepOutput, error) {
	decision, err := e.decide(ctx, task, toolChoice)
	if err != nil {
		return planner.TaskStepOutput{}, err
	}

	if decision.Answer != "" {
		if e.verbose {
			e.logger.Info("task %s finished: %s", task.ID, decision.Answer)
		}
		return planner.TaskStepOutput{
			TaskID: task.ID,
			Output: decision.Answer,
			IsLast: true,
		}, nil
	}

	if decision.Tool == "" {
		return planner.TaskStepOutput{}, fmt.Errorf("model returned neither a tool nor an answer for task %s", task.ID)
	}

	observation, err := e.executor.Execute(ctx, ToolInvocation{
		Tool:      decision.Tool,
		ToolInput: decision.ToolInput,
	})
	if err != nil {
		return planner.TaskStepOutput{}, err
	}

	if e.verbose {
		e.logger.Info("task %s ran tool %s: %s", task.ID, decision.Tool, observation)
	}

	appendObservation(task, fmt.Sprintf("%s(%s) -> %s", decision.Tool, decision.ToolInput, observation))

	return planner.TaskStepOutput{
		TaskID: task.ID,
		Output: observation,
		IsLast: false,
		Metadata: map[string]any{
			"tool":       decision.Tool,
			"tool_input": decision.ToolInput,
		},
	}, nil
}

func (e *ToolCallingExecutor) decide(ctx context.Context, task *planner.Task, toolChoice planner.ToolChoice) (*stepDecision, error) {
	prompt := e.buildPrompt(task, toolChoice)

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart("You are a task execution assistant that responds only with JSON.")},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	resp, err := e.model.GenerateContent(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to generate step decision: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from model")
	}

	text := resp.Choices[0].Content
	var decision stepDecision
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &decision); err != nil {
		return nil, fmt.Errorf("failed to parse step decision: %w (response: %s)", err, text)
	}
	return &decision, nil
}

func (e *ToolCallingExecutor) buildPrompt(task *planner.Task, toolChoice planner.ToolChoice) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Task: %s\n\n", task.Input)

	sb.WriteString("Available tools:\n")
	for _, name := range e.executor.Tools() {
		sb.WriteString("- " + name + "\n")
	}
	sb.WriteString("\n")

	observations := taskObservations(task)
	if len(observations) > 0 {
		sb.WriteString("Observations so far:\n")
		for _, obs := range observations {
			sb.WriteString("- " + obs + "\n")
		}
		sb.WriteString("\n")
	}

	if toolChoice != planner.ToolChoiceAuto && e.executor.Has(string(toolChoice)) {
		fmt.Fprintf(&sb, "You must use the tool %q for this step.\n\n", string(toolChoice))
	}

	sb.WriteString(`Decide the next step. Return ONLY a JSON object in one of these forms:
{"tool": "tool_name", "tool_input": "input string"}
{"answer": "final answer to the task"}

Return an answer only when the observations are sufficient to complete the task.`)

	return sb.String()
}

func appendObservation(task *planner.Task, observation string) {
	if task.ExtraState == nil {
		task.ExtraState = make(map[string]any)
	}
	observations, _ := task.ExtraState[scratchpadKey].([]string)
	task.ExtraState[scratchpadKey] = append(observations, observation)
}

func taskObservations(task *planner.Task) []string {
	if task.ExtraState == nil {
		return nil
	}
	observations, _ := task.ExtraState[scratchpadKey].([]string)
	return observations
}
