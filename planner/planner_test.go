package planner

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/tools"

	"github.com/smallnest/planweave/memory"
	"github.com/smallnest/planweave/plan"
	memstore "github.com/smallnest/planweave/store/memory"
)

// stubTool satisfies tools.Tool for prompt construction.
type stubTool struct {
	name string
}

func (t *stubTool) Name() string        { return t.name }
func (t *stubTool) Description() string { return t.name + " tool" }
func (t *stubTool) Call(ctx context.Context, input string) (string, error) {
	return "ok", nil
}

// scriptedPredictor replays plans (or errors) in call order.
type scriptedPredictor struct {
	mu      sync.Mutex
	plans   []*plan.Plan
	errs    []error
	calls   int
	prompts []string
}

func (p *scriptedPredictor) PredictPlan(ctx context.Context, prompt string) (*plan.Plan, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.calls
	p.calls++
	p.prompts = append(p.prompts, prompt)

	if idx >= len(p.plans) {
		return nil, errors.New("no scripted plan left")
	}
	if p.errs != nil && p.errs[idx] != nil {
		return nil, p.errs[idx]
	}
	return p.plans[idx], nil
}

// oneStepExecutor finishes every task in a single step, with optional
// per-task failures.
type oneStepExecutor struct {
	mu       sync.Mutex
	outputs  map[string]string
	failures map[string]error
	ran      []string
}

func (e *oneStepExecutor) Step(ctx context.Context, task *Task, mode Mode, toolChoice ToolChoice) (TaskStepOutput, error) {
	e.mu.Lock()
	e.ran = append(e.ran, task.ID)
	e.mu.Unlock()

	if err, ok := e.failures[task.ID]; ok {
		return TaskStepOutput{}, err
	}
	output := e.outputs[task.ID]
	if output == "" {
		output = "done " + task.ID
	}
	return TaskStepOutput{TaskID: task.ID, Output: output, IsLast: true}, nil
}

func chainPlan() *plan.Plan {
	return &plan.Plan{SubTasks: []plan.SubTask{
		{Name: "a", Input: "do a", Dependencies: []string{}},
		{Name: "b", Input: "do b", Dependencies: []string{"a"}},
		{Name: "c", Input: "do c", Dependencies: []string{"b"}},
	}}
}

func TestNewRequiresExecutorAndModel(t *testing.T) {
	_, err := New(nil, Config{Predictor: &scriptedPredictor{}})
	assert.Error(t, err)

	_, err = New(&oneStepExecutor{}, Config{})
	assert.Error(t, err)
}

func TestCreateTasksPredicted(t *testing.T) {
	predictor := &scriptedPredictor{plans: []*plan.Plan{chainPlan()}}
	p, err := New(&oneStepExecutor{}, Config{
		Predictor: predictor,
		Tools:     []tools.Tool{&stubTool{name: "search"}},
	})
	require.NoError(t, err)

	planID, outcome, err := p.CreateTasks(context.Background(), "research the topic")
	require.NoError(t, err)
	assert.Equal(t, plan.OutcomePredicted, outcome)

	stored, err := p.State().Plan(planID)
	require.NoError(t, err)
	assert.Len(t, stored.SubTasks, 3)

	// Every sub-task gets a registered task up front, ready or not.
	assert.Len(t, p.Runner().TaskIDs(), 3)

	// The prompt carries the tool descriptions and the request.
	require.Len(t, predictor.prompts, 1)
	assert.Contains(t, predictor.prompts[0], "search: search tool")
	assert.Contains(t, predictor.prompts[0], "research the topic")
}

func TestCreateTasksFallsBackToDefault(t *testing.T) {
	predictor := &scriptedPredictor{
		plans: []*plan.Plan{nil},
		errs:  []error{errors.New("malformed json")},
	}
	p, err := New(&oneStepExecutor{}, Config{
		Predictor: predictor,
		Tools:     []tools.Tool{&stubTool{name: "search"}},
	})
	require.NoError(t, err)

	planID, outcome, err := p.CreateTasks(context.Background(), "just answer this")
	require.NoError(t, err)
	assert.Equal(t, plan.OutcomeFellBackToDefault, outcome)

	stored, err := p.State().Plan(planID)
	require.NoError(t, err)
	require.Len(t, stored.SubTasks, 1)
	assert.Equal(t, "default", stored.SubTasks[0].Name)
	assert.Equal(t, "just answer this", stored.SubTasks[0].Input)
	assert.Empty(t, stored.SubTasks[0].Dependencies)
}

func TestCreateTasksNoTools(t *testing.T) {
	p, err := New(&oneStepExecutor{}, Config{Predictor: &scriptedPredictor{}})
	require.NoError(t, err)

	_, _, err = p.CreateTasks(context.Background(), "anything")
	assert.True(t, errors.Is(err, ErrNoTools))
}

func TestRefinePlanKeepsPreviousOnFailure(t *testing.T) {
	predictor := &scriptedPredictor{
		plans: []*plan.Plan{chainPlan(), nil},
		errs:  []error{nil, errors.New("not json")},
	}
	p, err := New(&oneStepExecutor{}, Config{
		Predictor: predictor,
		Tools:     []tools.Tool{&stubTool{name: "search"}},
	})
	require.NoError(t, err)

	planID, _, err := p.CreateTasks(context.Background(), "task")
	require.NoError(t, err)
	before, err := p.State().Plan(planID)
	require.NoError(t, err)

	outcome, err := p.RefinePlan(context.Background(), planID, "task", nil)
	require.NoError(t, err)
	assert.Equal(t, plan.OutcomeKeptPrevious, outcome)

	after, err := p.State().Plan(planID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRefinePlanReplacesTasks(t *testing.T) {
	refined := &plan.Plan{SubTasks: []plan.SubTask{
		{Name: "summarize", Input: "summarize everything", Dependencies: []string{}},
	}}
	predictor := &scriptedPredictor{plans: []*plan.Plan{chainPlan(), refined}}
	p, err := New(&oneStepExecutor{}, Config{
		Predictor: predictor,
		Tools:     []tools.Tool{&stubTool{name: "search"}},
	})
	require.NoError(t, err)

	planID, _, err := p.CreateTasks(context.Background(), "task")
	require.NoError(t, err)

	outcome, err := p.RefinePlan(context.Background(), planID, "task", []plan.CompletedOutput{
		{SubTask: plan.SubTask{Name: "a"}, Response: "found it"},
	})
	require.NoError(t, err)
	assert.Equal(t, plan.OutcomePredicted, outcome)

	// The old plan's tasks are gone; only the refined plan's remain.
	assert.Equal(t, []string{"summarize"}, p.Runner().TaskIDs())

	// Completed outputs reach the refinement prompt.
	require.Len(t, predictor.prompts, 2)
	assert.Contains(t, predictor.prompts[1], "a -> found it")
}

func TestChatDependencyChain(t *testing.T) {
	predictor := &scriptedPredictor{
		plans: []*plan.Plan{chainPlan(), nil, nil},
		errs:  []error{nil, errors.New("skip"), errors.New("skip")},
	}
	exec := &oneStepExecutor{outputs: map[string]string{"c": "the final summary"}}
	p, err := New(exec, Config{
		Predictor: predictor,
		Tools:     []tools.Tool{&stubTool{name: "search"}},
	})
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(), "research and summarize")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, exec.ran)
	require.Len(t, resp.Completed, 3)
	assert.Equal(t, "the final summary", resp.Content)
	assert.Equal(t, plan.OutcomePredicted, resp.PlanOutcome)
}

func TestChatIndependentSubTasksShareRound(t *testing.T) {
	p2 := &plan.Plan{SubTasks: []plan.SubTask{
		{Name: "x", Input: "do x", Dependencies: []string{}},
		{Name: "y", Input: "do y", Dependencies: []string{}},
	}}
	predictor := &scriptedPredictor{plans: []*plan.Plan{p2}}
	exec := &oneStepExecutor{}
	p, err := New(exec, Config{
		Predictor: predictor,
		Tools:     []tools.Tool{&stubTool{name: "search"}},
	})
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(), "two independent things")
	require.NoError(t, err)

	assert.Len(t, resp.Completed, 2)
	assert.ElementsMatch(t, []string{"x", "y"}, exec.ran)
	// The frontier emptied after one round, so no refinement happened.
	assert.Equal(t, 1, predictor.calls)
}

func TestChatPartialFailureKeepsSiblingResults(t *testing.T) {
	p2 := &plan.Plan{SubTasks: []plan.SubTask{
		{Name: "good", Input: "works", Dependencies: []string{}},
		{Name: "bad", Input: "breaks", Dependencies: []string{}},
	}}
	predictor := &scriptedPredictor{plans: []*plan.Plan{p2}}
	exec := &oneStepExecutor{failures: map[string]error{"bad": errors.New("tool exploded")}}
	p, err := New(exec, Config{
		Predictor: predictor,
		Tools:     []tools.Tool{&stubTool{name: "search"}},
	})
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(), "mixed bag")
	require.Error(t, err)
	assert.Nil(t, resp)

	var partial *PartialPlanError
	require.True(t, errors.As(err, &partial))
	assert.Contains(t, partial.Failed, "bad")
	require.Len(t, partial.Completed, 1)
	assert.Equal(t, "good", partial.Completed[0].SubTask.Name)
	assert.Contains(t, err.Error(), "bad")
}

func TestChatRefineRoundBudget(t *testing.T) {
	growing := func(n int) *plan.Plan {
		subTasks := []plan.SubTask{{Name: "s0", Input: "step 0", Dependencies: []string{}}}
		for i := 1; i <= n; i++ {
			subTasks = append(subTasks, plan.SubTask{
				Name:         "s" + string(rune('0'+i)),
				Input:        "next step",
				Dependencies: []string{subTasks[i-1].Name},
			})
		}
		return &plan.Plan{SubTasks: subTasks}
	}

	// Each refinement appends another pending sub-task, so the frontier
	// never empties on its own.
	predictor := &scriptedPredictor{plans: []*plan.Plan{
		growing(1), growing(2), growing(3), growing(4),
	}}
	exec := &oneStepExecutor{}
	p, err := New(exec, Config{
		Predictor:       predictor,
		Tools:           []tools.Tool{&stubTool{name: "search"}},
		MaxRefineRounds: 2,
	})
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(), "never-ending plan")
	require.NoError(t, err)
	assert.Len(t, resp.Completed, 2)
}

func TestChatRecordsMemoryAndStore(t *testing.T) {
	single := &plan.Plan{SubTasks: []plan.SubTask{
		{Name: "solo", Input: "just do it", Dependencies: []string{}},
	}}
	predictor := &scriptedPredictor{plans: []*plan.Plan{single}}
	buf := memory.NewBuffer()
	st := memstore.NewMemoryPlanStore()

	p, err := New(&oneStepExecutor{}, Config{
		Predictor: predictor,
		Tools:     []tools.Tool{&stubTool{name: "search"}},
		Memory:    buf,
		Store:     st,
	})
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(), "remember this")
	require.NoError(t, err)

	assert.Equal(t, 2, buf.Len())

	record, err := st.Load(context.Background(), resp.PlanID)
	require.NoError(t, err)
	assert.Equal(t, "remember this", record.Task)
	require.Len(t, record.Completed, 1)
	assert.Equal(t, "solo", record.Completed[0].Name)
}

func TestChatDeleteTaskOnFinish(t *testing.T) {
	single := &plan.Plan{SubTasks: []plan.SubTask{
		{Name: "solo", Input: "just do it", Dependencies: []string{}},
	}}
	predictor := &scriptedPredictor{plans: []*plan.Plan{single}}
	p, err := New(&oneStepExecutor{}, Config{
		Predictor:          predictor,
		Tools:              []tools.Tool{&stubTool{name: "search"}},
		DeleteTaskOnFinish: true,
	})
	require.NoError(t, err)

	_, err = p.Chat(context.Background(), "one shot")
	require.NoError(t, err)
	assert.Empty(t, p.Runner().TaskIDs())
}
