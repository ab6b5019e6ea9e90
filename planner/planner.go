package planner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/smallnest/planweave/llm"
	"github.com/smallnest/planweave/log"
	"github.com/smallnest/planweave/memory"
	"github.com/smallnest/planweave/plan"
	"github.com/smallnest/planweave/store"
)

// DefaultMaxRefineRounds bounds how many times a single Chat call may ask the
// LLM to refine the plan. The frontier-empty condition is the primary stop;
// the round budget protects against a model that keeps the frontier non-empty
// forever.
const DefaultMaxRefineRounds = 10

// ErrNoTools is returned when neither a tool list nor a tool retriever is
// configured. Planning cannot proceed without tool descriptions.
var ErrNoTools = errors.New("no tools provided or retriever set")

// ToolRetriever resolves the tools relevant to a query, for callers with too
// many tools to put in every prompt.
type ToolRetriever interface {
	Retrieve(ctx context.Context, query string) ([]tools.Tool, error)
}

// Config holds everything a Planner needs. There is no ambient global
// configuration: the model, tools, prompts, and logger are all injected here.
type Config struct {
	// Model is the LLM used for plan prediction when Predictor is unset
	Model llms.Model

	// Predictor overrides the default langchaingo-based plan predictor
	Predictor llm.PlanPredictor

	// Tools available to the planner. Mutually exclusive with ToolRetriever;
	// when both are set, Tools wins.
	Tools []tools.Tool

	// ToolRetriever resolves tools per query when Tools is unset
	ToolRetriever ToolRetriever

	// InitialPlanPrompt overrides DefaultInitialPlanPrompt
	InitialPlanPrompt string

	// PlanRefinePrompt overrides DefaultPlanRefinePrompt
	PlanRefinePrompt string

	// DefaultToolChoice applies to the first step of every task. Default auto.
	DefaultToolChoice ToolChoice

	// Mode selects how step output is delivered. Default ModeWait.
	Mode Mode

	// MaxRefineRounds caps refinement rounds per Chat call. Zero means
	// DefaultMaxRefineRounds; negative means unbounded.
	MaxRefineRounds int

	// MaxSteps caps the steps of a single task. Zero means DefaultMaxSteps.
	MaxSteps int

	// StepTimeout bounds each executor step. Zero disables the timeout.
	StepTimeout time.Duration

	// DeleteTaskOnFinish removes task objects once a Chat call completes
	DeleteTaskOnFinish bool

	// Verbose enables progress logging
	Verbose bool

	// Logger receives planner logs. Defaults to the package logger when
	// Verbose is set, and to a no-op logger otherwise.
	Logger log.Logger

	// Store, when set, receives a plan snapshot after every round
	Store store.PlanStore

	// Memory, when set, records the user message and final answer
	Memory *memory.Buffer
}

// Planner converts a free-text request into a dependency-respecting plan of
// sub-tasks, dispatches ready sub-tasks concurrently through a task runner,
// and adaptively re-plans between rounds.
type Planner struct {
	predictor         llm.PlanPredictor
	tools             []tools.Tool
	toolRetriever     ToolRetriever
	initialPlanPrompt string
	planRefinePrompt  string
	defaultToolChoice ToolChoice
	mode              Mode
	maxRefineRounds   int
	deleteOnFinish    bool
	verbose           bool
	logger            log.Logger
	planStore         store.PlanStore
	memory            *memory.Buffer

	state  *plan.State
	runner *TaskRunner
}

// New creates a Planner around the given step executor.
func New(executor StepExecutor, cfg Config) (*Planner, error) {
	if executor == nil {
		return nil, fmt.Errorf("step executor is required")
	}

	predictor := cfg.Predictor
	if predictor == nil {
		if cfg.Model == nil {
			return nil, fmt.Errorf("model or predictor is required")
		}
		predictor = llm.NewModelPredictor(cfg.Model)
	}

	logger := cfg.Logger
	if logger == nil {
		if cfg.Verbose {
			logger = log.GetDefaultLogger()
		} else {
			logger = &log.NoOpLogger{}
		}
	}

	initialPrompt := cfg.InitialPlanPrompt
	if initialPrompt == "" {
		initialPrompt = DefaultInitialPlanPrompt
	}
	refinePrompt := cfg.PlanRefinePrompt
	if refinePrompt == "" {
		refinePrompt = DefaultPlanRefinePrompt
	}

	toolChoice := cfg.DefaultToolChoice
	if toolChoice == "" {
		toolChoice = ToolChoiceAuto
	}

	maxRounds := cfg.MaxRefineRounds
	if maxRounds == 0 {
		maxRounds = DefaultMaxRefineRounds
	}

	runnerOpts := []RunnerOption{WithRunnerLogger(logger)}
	if cfg.MaxSteps > 0 {
		runnerOpts = append(runnerOpts, WithMaxSteps(cfg.MaxSteps))
	}
	if cfg.StepTimeout > 0 {
		runnerOpts = append(runnerOpts, WithStepTimeout(cfg.StepTimeout))
	}

	return &Planner{
		predictor:         predictor,
		tools:             cfg.Tools,
		toolRetriever:     cfg.ToolRetriever,
		initialPlanPrompt: initialPrompt,
		planRefinePrompt:  refinePrompt,
		defaultToolChoice: toolChoice,
		mode:              cfg.Mode,
		maxRefineRounds:   maxRounds,
		deleteOnFinish:    cfg.DeleteTaskOnFinish,
		verbose:           cfg.Verbose,
		logger:            logger,
		planStore:         cfg.Store,
		memory:            cfg.Memory,
		state:             plan.NewState(),
		runner:            NewTaskRunner(executor, runnerOpts...),
	}, nil
}

// State exposes the planner's plan state, mainly for inspection and tests.
func (p *Planner) State() *plan.State {
	return p.state
}

// Runner exposes the underlying task runner.
func (p *Planner) Runner() *TaskRunner {
	return p.runner
}

// CreateTasks builds an execution plan for the input and registers a runnable
// task for every sub-task, ready or not; dependency enforcement happens at
// dispatch time. When the LLM fails to produce a valid structured plan, the
// planner falls back to a single sub-task named "default" carrying the
// original input, so a failed planning call never blocks execution. The
// returned Outcome reports which of the two happened.
func (p *Planner) CreateTasks(ctx context.Context, input string) (string, plan.Outcome, error) {
	toolList, err := p.getTools(ctx, input)
	if err != nil {
		return "", 0, err
	}

	prompt := fmt.Sprintf(p.initialPlanPrompt, toolsDescription(toolList), input)

	outcome := plan.OutcomePredicted
	predicted, err := p.predictor.PredictPlan(ctx, prompt)
	if err != nil {
		p.logger.Info("no structured plan predicted, defaulting to a single task plan: %v", err)
		predicted = &plan.Plan{SubTasks: []plan.SubTask{
			{Name: "default", Input: input, ExpectedOutput: "", Dependencies: []string{}},
		}}
		outcome = plan.OutcomeFellBackToDefault
	}

	planID := uuid.New().String()
	if err := p.state.AddPlan(planID, predicted); err != nil {
		return "", 0, err
	}

	if p.verbose {
		p.logger.Info("=== Initial plan ===")
		for _, st := range predicted.SubTasks {
			p.logger.Info("%s", st.String())
		}
	}

	for _, st := range predicted.SubTasks {
		p.runner.CreateTask(st.Name, st.Input)
	}

	return planID, outcome, nil
}

// RefinePlan asks the LLM to revise the remaining sub-tasks given the outputs
// collected so far. On success the stored plan is replaced wholesale: the old
// plan's tasks are deleted and fresh tasks are created for the new sub-tasks.
// When the LLM fails to produce a valid plan the previous plan stays in place
// untouched and the outcome is OutcomeKeptPrevious; refinement is best-effort
// and never a point of failure for the run.
func (p *Planner) RefinePlan(ctx context.Context, planID, task string, completed []plan.CompletedOutput) (plan.Outcome, error) {
	remaining, err := p.state.RemainingSubTasks(planID)
	if err != nil {
		return 0, err
	}

	remainingLines := make([]string, 0, len(remaining))
	for _, st := range remaining {
		remainingLines = append(remainingLines, st.String())
	}
	remainingStr := strings.Join(remainingLines, "\n")

	toolList, err := p.getTools(ctx, remainingStr)
	if err != nil {
		return 0, err
	}

	pairs := make([]string, 0, len(completed))
	for _, c := range completed {
		pairs = append(pairs, fmt.Sprintf("%s -> %s", c.SubTask.Name, c.Response))
	}

	prompt := fmt.Sprintf(p.planRefinePrompt,
		toolsDescription(toolList), task, strings.Join(pairs, "\n"), remainingStr)

	newPlan, err := p.predictor.PredictPlan(ctx, prompt)
	if err != nil {
		p.logger.Debug("refinement produced no usable plan, keeping previous: %v", err)
		return plan.OutcomeKeptPrevious, nil
	}

	oldPlan, err := p.state.Plan(planID)
	if err != nil {
		return 0, err
	}
	if err := p.state.ReplacePlan(planID, newPlan); err != nil {
		p.logger.Debug("refined plan rejected, keeping previous: %v", err)
		return plan.OutcomeKeptPrevious, nil
	}

	for _, st := range oldPlan.SubTasks {
		p.runner.DeleteTask(st.Name)
	}
	for _, st := range newPlan.SubTasks {
		p.runner.CreateTask(st.Name, st.Input)
	}

	if p.verbose {
		p.logger.Info("=== Refined plan ===")
		for _, st := range newPlan.SubTasks {
			p.logger.Info("%s", st.String())
		}
	}

	return plan.OutcomePredicted, nil
}

// ChatResponse is the final result of a Chat call.
type ChatResponse struct {
	// Content is the response of the most recently completed sub-task. A
	// coherent final answer therefore requires the plan to end with a
	// synthesis sub-task, which the default prompts ask for.
	Content string

	// PlanID identifies the plan this run executed
	PlanID string

	// PlanOutcome reports how the initial planning call concluded
	PlanOutcome plan.Outcome

	// Completed holds every completed sub-task with its output, in
	// completion order
	Completed []plan.CompletedOutput
}

// PartialPlanError reports a run that stopped because one or more sub-tasks
// failed. Sibling sub-tasks of the same round that succeeded are recorded in
// Completed, so the caller keeps the partial results.
type PartialPlanError struct {
	PlanID    string
	Failed    map[string]error
	Completed []plan.CompletedOutput
}

func (e *PartialPlanError) Error() string {
	names := make([]string, 0, len(e.Failed))
	for name := range e.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("plan %s: %d sub-task(s) failed: %s",
		e.PlanID, len(names), strings.Join(names, ", "))
}

// Chat plans the request and drives the plan to completion. Each round
// dispatches the entire ready frontier concurrently, records the results,
// and then refines the remaining plan with the accumulated outputs. The run
// stops when the frontier is empty (checked both before and after each round,
// because the LLM may otherwise keep appending satisfiable sub-tasks forever)
// or when the refinement round budget is exhausted.
func (p *Planner) Chat(ctx context.Context, message string) (*ChatResponse, error) {
	if p.memory != nil {
		p.memory.AddUser(message)
	}

	planID, outcome, err := p.CreateTasks(ctx, message)
	if err != nil {
		return nil, err
	}

	var completedPairs []plan.CompletedOutput
	round := 0
	for {
		next, err := p.state.NextSubTasks(planID)
		if err != nil {
			return nil, err
		}
		if len(next) == 0 {
			break
		}

		if p.verbose {
			p.logger.Info("round %d: dispatching %d ready sub-task(s)", round, len(next))
		}

		results := p.runRound(ctx, next)

		// Record results only after the whole round has joined; the
		// fan-out itself never touches planner state.
		failed := make(map[string]error)
		for i, res := range results {
			if res.err != nil {
				p.logger.Error("sub-task %s failed: %v", next[i].Name, res.err)
				failed[next[i].Name] = res.err
				continue
			}
			completedPairs = append(completedPairs, plan.CompletedOutput{
				SubTask:  next[i],
				Response: res.output.Output,
			})
			if err := p.state.AddCompleted(planID, next[i]); err != nil {
				return nil, err
			}
		}

		p.persist(ctx, planID, message, round)

		if len(failed) > 0 {
			return nil, &PartialPlanError{
				PlanID:    planID,
				Failed:    failed,
				Completed: completedPairs,
			}
		}

		next, err = p.state.NextSubTasks(planID)
		if err != nil {
			return nil, err
		}
		if len(next) == 0 {
			break
		}

		round++
		if p.maxRefineRounds > 0 && round >= p.maxRefineRounds {
			p.logger.Warn("refinement round budget (%d) exhausted for plan %s, stopping", p.maxRefineRounds, planID)
			break
		}

		if _, err := p.RefinePlan(ctx, planID, message, completedPairs); err != nil {
			return nil, err
		}
	}

	if p.deleteOnFinish {
		if current, err := p.state.Plan(planID); err == nil {
			for _, st := range current.SubTasks {
				p.runner.DeleteTask(st.Name)
			}
		}
	}

	resp := &ChatResponse{
		PlanID:      planID,
		PlanOutcome: outcome,
		Completed:   completedPairs,
	}
	if len(completedPairs) > 0 {
		resp.Content = completedPairs[len(completedPairs)-1].Response
	}

	if p.memory != nil && resp.Content != "" {
		p.memory.AddAI(resp.Content)
	}

	return resp, nil
}

type roundResult struct {
	index  int
	output TaskStepOutput
	err    error
}

// runRound executes every ready sub-task concurrently and waits for the
// whole round. One sub-task failing does not interrupt its siblings; each
// result (or error) is reported in dispatch order.
func (p *Planner) runRound(ctx context.Context, subTasks []plan.SubTask) []roundResult {
	results := make(chan roundResult, len(subTasks))
	var wg sync.WaitGroup

	for i, st := range subTasks {
		wg.Add(1)
		go func(idx int, st plan.SubTask) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results <- roundResult{
						index: idx,
						err:   fmt.Errorf("panic in sub-task %s: %v", st.Name, r),
					}
				}
			}()

			out, err := p.runner.RunTask(ctx, st.Name, p.mode, p.defaultToolChoice)
			results <- roundResult{index: idx, output: out, err: err}
		}(i, st)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]roundResult, len(subTasks))
	for res := range results {
		ordered[res.index] = res
	}
	return ordered
}

func (p *Planner) persist(ctx context.Context, planID, task string, version int) {
	if p.planStore == nil {
		return
	}

	current, err := p.state.Plan(planID)
	if err != nil {
		return
	}
	completed, err := p.state.Completed(planID)
	if err != nil {
		return
	}

	record := &store.PlanRecord{
		PlanID:    planID,
		Task:      task,
		Plan:      current,
		Completed: completed,
		UpdatedAt: time.Now(),
		Version:   version,
	}
	if err := p.planStore.Save(ctx, record); err != nil {
		p.logger.Warn("failed to persist plan %s: %v", planID, err)
	}
}

func (p *Planner) getTools(ctx context.Context, input string) ([]tools.Tool, error) {
	if p.tools != nil {
		return p.tools, nil
	}
	if p.toolRetriever != nil {
		return p.toolRetriever.Retrieve(ctx, input)
	}
	return nil, ErrNoTools
}

func toolsDescription(toolList []tools.Tool) string {
	var sb strings.Builder
	for _, t := range toolList {
		sb.WriteString(t.Name() + ": " + t.Description() + "\n")
	}
	return sb.String()
}
