package plan

import (
	"fmt"
	"strings"
)

// SubTask is a single named unit of work inside a Plan.
//
// The JSON tags match the schema the planner asks the LLM to produce,
// so a predicted plan can be unmarshaled directly into these types.
type SubTask struct {
	// Name of the sub-task, unique within a plan
	Name string `json:"name"`

	// Input is the prompt handed to the step executor for this sub-task
	Input string `json:"input"`

	// ExpectedOutput describes what a successful result looks like
	ExpectedOutput string `json:"expected_output"`

	// Dependencies lists sub-task names that must complete before this one runs
	Dependencies []string `json:"dependencies"`
}

func (s SubTask) String() string {
	return fmt.Sprintf("%s: %s -> %s (deps: %s)",
		s.Name, s.Input, s.ExpectedOutput, strings.Join(s.Dependencies, ", "))
}

// Plan is an ordered series of sub-tasks produced by one planning call.
// A plan is immutable once stored; refinement replaces it wholesale.
type Plan struct {
	SubTasks []SubTask `json:"sub_tasks"`
}

// ValidationError reports a structurally invalid plan.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid plan: " + e.Reason
}

// Validate checks the structural invariants of a plan: it must contain at
// least one sub-task, names must be unique, every dependency must reference a
// sub-task in the same plan, and the dependency relation must be acyclic.
func (p *Plan) Validate() error {
	if len(p.SubTasks) == 0 {
		return &ValidationError{Reason: "plan has no sub-tasks"}
	}

	names := make(map[string]bool, len(p.SubTasks))
	for _, st := range p.SubTasks {
		if st.Name == "" {
			return &ValidationError{Reason: "sub-task with empty name"}
		}
		if names[st.Name] {
			return &ValidationError{Reason: fmt.Sprintf("duplicate sub-task name %q", st.Name)}
		}
		names[st.Name] = true
	}

	for _, st := range p.SubTasks {
		for _, dep := range st.Dependencies {
			if !names[dep] {
				return &ValidationError{
					Reason: fmt.Sprintf("sub-task %q depends on unknown sub-task %q", st.Name, dep),
				}
			}
		}
	}

	if cycle := findCycle(p.SubTasks); cycle != "" {
		return &ValidationError{Reason: "dependency cycle involving sub-task " + cycle}
	}

	return nil
}

// findCycle runs Kahn's algorithm over the dependency edges and returns the
// name of one sub-task stuck in a cycle, or "" if the graph is acyclic.
func findCycle(subTasks []SubTask) string {
	inDegree := make(map[string]int, len(subTasks))
	dependents := make(map[string][]string, len(subTasks))

	for _, st := range subTasks {
		inDegree[st.Name] += 0
		for _, dep := range st.Dependencies {
			inDegree[st.Name]++
			dependents[dep] = append(dependents[dep], st.Name)
		}
	}

	var queue []string
	for _, st := range subTasks {
		if inDegree[st.Name] == 0 {
			queue = append(queue, st.Name)
		}
	}

	visited := 0
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range dependents[name] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited == len(subTasks) {
		return ""
	}
	for _, st := range subTasks {
		if inDegree[st.Name] > 0 {
			return st.Name
		}
	}
	return ""
}
