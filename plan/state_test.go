package plan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainPlan() *Plan {
	return &Plan{SubTasks: []SubTask{
		{Name: "A", Input: "do A", Dependencies: []string{}},
		{Name: "B", Input: "do B", Dependencies: []string{"A"}},
		{Name: "C", Input: "do C", Dependencies: []string{"B"}},
	}}
}

func names(subTasks []SubTask) []string {
	out := make([]string, 0, len(subTasks))
	for _, st := range subTasks {
		out = append(out, st.Name)
	}
	return out
}

func TestStateFrontierChain(t *testing.T) {
	state := NewState()
	require.NoError(t, state.AddPlan("p1", chainPlan()))

	// Initially only A is runnable.
	next, err := state.NextSubTasks("p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, names(next))

	// Completing A unlocks B, then B unlocks C, then the frontier drains.
	require.NoError(t, state.AddCompleted("p1", SubTask{Name: "A"}))
	next, _ = state.NextSubTasks("p1")
	assert.Equal(t, []string{"B"}, names(next))

	require.NoError(t, state.AddCompleted("p1", SubTask{Name: "B"}))
	next, _ = state.NextSubTasks("p1")
	assert.Equal(t, []string{"C"}, names(next))

	require.NoError(t, state.AddCompleted("p1", SubTask{Name: "C"}))
	next, _ = state.NextSubTasks("p1")
	assert.Empty(t, next)
}

func TestStateFrontierNeverReturnsUnmetDependencies(t *testing.T) {
	state := NewState()
	p := &Plan{SubTasks: []SubTask{
		{Name: "fetch", Dependencies: []string{}},
		{Name: "analyze", Dependencies: []string{"fetch"}},
		{Name: "summarize", Dependencies: []string{"fetch", "analyze"}},
	}}
	require.NoError(t, state.AddPlan("p1", p))

	for {
		next, err := state.NextSubTasks("p1")
		require.NoError(t, err)
		if len(next) == 0 {
			break
		}

		completed, _ := state.Completed("p1")
		done := make(map[string]bool)
		for _, st := range completed {
			done[st.Name] = true
		}
		for _, st := range next {
			for _, dep := range st.Dependencies {
				assert.True(t, done[dep], "frontier returned %s with unmet dependency %s", st.Name, dep)
			}
		}

		require.NoError(t, state.AddCompleted("p1", next[0]))
	}
}

func TestStateIndependentSubTasksShareFrontier(t *testing.T) {
	state := NewState()
	p := &Plan{SubTasks: []SubTask{
		{Name: "A", Dependencies: []string{}},
		{Name: "B", Dependencies: []string{}},
	}}
	require.NoError(t, state.AddPlan("p1", p))

	next, err := state.NextSubTasks("p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names(next))
}

func TestStateRemainingSubTasksDoesNotMutate(t *testing.T) {
	state := NewState()
	require.NoError(t, state.AddPlan("p1", chainPlan()))

	first, err := state.RemainingSubTasks("p1")
	require.NoError(t, err)
	second, err := state.RemainingSubTasks("p1")
	require.NoError(t, err)

	assert.Equal(t, names(first), names(second))
	assert.Equal(t, []string{"A", "B", "C"}, names(second))

	completed, _ := state.Completed("p1")
	assert.Empty(t, completed)
}

func TestStateRemainingIgnoresReadiness(t *testing.T) {
	state := NewState()
	require.NoError(t, state.AddPlan("p1", chainPlan()))
	require.NoError(t, state.AddCompleted("p1", SubTask{Name: "A"}))

	remaining, err := state.RemainingSubTasks("p1")
	require.NoError(t, err)
	// C is blocked on B but still remaining.
	assert.Equal(t, []string{"B", "C"}, names(remaining))
}

func TestStateAddCompletedDeduplicates(t *testing.T) {
	state := NewState()
	require.NoError(t, state.AddPlan("p1", chainPlan()))

	require.NoError(t, state.AddCompleted("p1", SubTask{Name: "A"}))
	require.NoError(t, state.AddCompleted("p1", SubTask{Name: "A"}))

	completed, err := state.Completed("p1")
	require.NoError(t, err)
	assert.Len(t, completed, 1)
}

func TestStateUnknownPlanID(t *testing.T) {
	state := NewState()

	_, err := state.NextSubTasks("missing")
	assert.True(t, errors.Is(err, ErrPlanNotFound))

	_, err = state.RemainingSubTasks("missing")
	assert.True(t, errors.Is(err, ErrPlanNotFound))

	err = state.AddCompleted("missing", SubTask{Name: "A"})
	assert.True(t, errors.Is(err, ErrPlanNotFound))

	err = state.ReplacePlan("missing", chainPlan())
	assert.True(t, errors.Is(err, ErrPlanNotFound))
}

func TestStateReplacePlanKeepsCompleted(t *testing.T) {
	state := NewState()
	require.NoError(t, state.AddPlan("p1", chainPlan()))
	require.NoError(t, state.AddCompleted("p1", SubTask{Name: "A"}))

	newPlan := &Plan{SubTasks: []SubTask{
		{Name: "A", Dependencies: []string{}},
		{Name: "D", Dependencies: []string{"A"}},
	}}
	require.NoError(t, state.ReplacePlan("p1", newPlan))

	next, err := state.NextSubTasks("p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"D"}, names(next))
}

func TestStateReset(t *testing.T) {
	state := NewState()
	require.NoError(t, state.AddPlan("p1", chainPlan()))
	state.Reset()

	_, err := state.Plan("p1")
	assert.True(t, errors.Is(err, ErrPlanNotFound))
	assert.Empty(t, state.PlanIDs())
}
