package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/smallnest/planweave/log"
)

// DefaultMaxSteps bounds the number of steps a single task may take.
const DefaultMaxSteps = 20

var (
	// ErrTaskNotFound is returned when a task ID is not registered.
	ErrTaskNotFound = errors.New("task not found")

	// ErrMaxSteps is returned when a task does not report a terminal step
	// within the configured step budget.
	ErrMaxSteps = errors.New("max steps reached")
)

// TaskRunner drives individual tasks to completion by looping a step
// executor until it reports a terminal step. It owns all Task objects.
type TaskRunner struct {
	executor    StepExecutor
	maxSteps    int
	stepTimeout time.Duration
	logger      log.Logger

	mu    sync.Mutex
	tasks map[string]*Task
}

// RunnerOption configures a TaskRunner.
type RunnerOption func(*TaskRunner)

// WithMaxSteps overrides the per-task step budget.
func WithMaxSteps(n int) RunnerOption {
	return func(r *TaskRunner) {
		if n > 0 {
			r.maxSteps = n
		}
	}
}

// WithStepTimeout applies a timeout to every individual executor step.
func WithStepTimeout(d time.Duration) RunnerOption {
	return func(r *TaskRunner) {
		r.stepTimeout = d
	}
}

// WithRunnerLogger sets the runner's logger.
func WithRunnerLogger(logger log.Logger) RunnerOption {
	return func(r *TaskRunner) {
		r.logger = logger
	}
}

// NewTaskRunner creates a runner around the given step executor.
func NewTaskRunner(executor StepExecutor, opts ...RunnerOption) *TaskRunner {
	r := &TaskRunner{
		executor: executor,
		maxSteps: DefaultMaxSteps,
		logger:   &log.NoOpLogger{},
		tasks:    make(map[string]*Task),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateTask registers a new task. An existing task with the same ID is
// replaced, which is what plan refinement relies on.
func (r *TaskRunner) CreateTask(taskID, input string) *Task {
	task := &Task{
		ID:         taskID,
		Input:      input,
		CreatedAt:  time.Now(),
		ExtraState: make(map[string]any),
	}

	r.mu.Lock()
	r.tasks[taskID] = task
	r.mu.Unlock()
	return task
}

// Task returns a registered task.
func (r *TaskRunner) Task(taskID string) (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return task, nil
}

// DeleteTask removes a task and its step history.
func (r *TaskRunner) DeleteTask(taskID string) {
	r.mu.Lock()
	delete(r.tasks, taskID)
	r.mu.Unlock()
}

// TaskIDs returns the IDs of all registered tasks.
func (r *TaskRunner) TaskIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.tasks))
	for id := range r.tasks {
		ids = append(ids, id)
	}
	return ids
}

// RunTask executes a task to completion: it loops the step executor until a
// step reports IsLast, then finalizes the response. The caller-supplied tool
// choice applies only to the first step; later steps always use auto, so a
// forced tool cannot produce an endless loop.
func (r *TaskRunner) RunTask(ctx context.Context, taskID string, mode Mode, toolChoice ToolChoice) (TaskStepOutput, error) {
	task, err := r.Task(taskID)
	if err != nil {
		return TaskStepOutput{}, err
	}
	if toolChoice == "" {
		toolChoice = ToolChoiceAuto
	}

	var last TaskStepOutput
	for step := 0; ; step++ {
		if step >= r.maxSteps {
			return TaskStepOutput{}, fmt.Errorf("%w: task %s did not finish within %d steps", ErrMaxSteps, taskID, r.maxSteps)
		}

		out, err := r.runStep(ctx, task, mode, toolChoice)
		if err != nil {
			return TaskStepOutput{}, fmt.Errorf("step %d of task %s failed: %w", step, taskID, err)
		}

		task.Steps = append(task.Steps, out)
		r.logger.Debug("task %s step %d (last=%v)", taskID, step, out.IsLast)

		if out.IsLast {
			last = out
			break
		}

		toolChoice = ToolChoiceAuto
	}

	return r.finalize(ctx, task, last)
}

func (r *TaskRunner) runStep(ctx context.Context, task *Task, mode Mode, toolChoice ToolChoice) (TaskStepOutput, error) {
	if r.stepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.stepTimeout)
		defer cancel()
	}
	return r.executor.Step(ctx, task, mode, toolChoice)
}

func (r *TaskRunner) finalize(ctx context.Context, task *Task, last TaskStepOutput) (TaskStepOutput, error) {
	finalizer, ok := r.executor.(Finalizer)
	if !ok {
		return last, nil
	}

	content, err := finalizer.Finalize(ctx, task, last)
	if err != nil {
		return TaskStepOutput{}, fmt.Errorf("failed to finalize task %s: %w", task.ID, err)
	}
	last.Output = content
	return last, nil
}
