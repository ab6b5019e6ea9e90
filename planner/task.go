package planner

import (
	"context"
	"time"
)

// Mode selects how a step's output is delivered.
type Mode int

const (
	// ModeWait blocks until the step's full output is available.
	ModeWait Mode = iota
	// ModeStream delivers output incrementally; the step output's Metadata
	// carries the executor-specific stream handle.
	ModeStream
)

func (m Mode) String() string {
	switch m {
	case ModeWait:
		return "wait"
	case ModeStream:
		return "stream"
	default:
		return "unknown"
	}
}

// ToolChoice directs the step executor's tool selection for a step.
// ToolChoiceAuto lets the executor decide; any other value forces the named
// tool. The task runner resets the choice to auto after the first step so a
// forced tool cannot loop forever.
type ToolChoice string

// ToolChoiceAuto lets the executor pick its own tool.
const ToolChoiceAuto ToolChoice = "auto"

// Task is one execution instance created when a sub-task is dispatched.
// The task runner owns every Task and its step history.
type Task struct {
	// ID of the task. The planner reuses the sub-task name as the task ID.
	ID string

	// Input is the sub-task's input prompt
	Input string

	// CreatedAt records when the task was registered
	CreatedAt time.Time

	// Steps holds the output of every executed step, in order
	Steps []TaskStepOutput

	// ExtraState carries executor-owned state for this task. The runner
	// never touches it; executors use it to keep per-task conversation
	// state between steps.
	ExtraState map[string]any
}

// TaskStepOutput is the result of one increment of task execution.
type TaskStepOutput struct {
	// TaskID identifies the task this step belongs to
	TaskID string

	// Output is the partial (or, when IsLast is set, final) content
	Output string

	// IsLast reports whether this step terminated the task
	IsLast bool

	// Metadata carries auxiliary step information
	Metadata map[string]any
}

// StepExecutor produces one incremental step of a task. Implementations own
// all conversational state for a task (via Task.ExtraState) and must treat
// repeated calls for the same task as a single logical conversation.
//
// Executors are interchangeable strategies: a ReAct loop, a function-calling
// loop, or anything else that can report "this step was the last one".
type StepExecutor interface {
	Step(ctx context.Context, task *Task, mode Mode, toolChoice ToolChoice) (TaskStepOutput, error)
}

// Finalizer is an optional interface a StepExecutor may implement to package
// the final response after the last step, e.g. to strip scratch-pad notes.
type Finalizer interface {
	Finalize(ctx context.Context, task *Task, last TaskStepOutput) (string, error)
}
