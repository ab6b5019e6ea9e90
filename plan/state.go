package plan

import (
	"errors"
	"fmt"
	"sync"
)

// ErrPlanNotFound is returned when a plan ID is not registered in the state.
var ErrPlanNotFound = errors.New("plan not found")

// State tracks every plan owned by a planner and the completed sub-tasks of
// each plan. It is safe for concurrent use, although the planner's run loop
// only mutates it between fan-out rounds.
type State struct {
	mu        sync.RWMutex
	plans     map[string]*Plan
	completed map[string][]SubTask
}

// NewState creates an empty planner state.
func NewState() *State {
	return &State{
		plans:     make(map[string]*Plan),
		completed: make(map[string][]SubTask),
	}
}

// AddPlan validates the plan and registers it under the given ID.
func (s *State) AddPlan(planID string, p *Plan) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.plans[planID]; exists {
		return fmt.Errorf("plan %q already registered", planID)
	}
	s.plans[planID] = p
	s.completed[planID] = nil
	return nil
}

// ReplacePlan validates the new plan and swaps it in wholesale for an
// existing plan ID. The completed list is preserved: sub-tasks finished under
// the old plan stay finished under the new one.
func (s *State) ReplacePlan(planID string, p *Plan) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.plans[planID]; !exists {
		return fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
	}
	s.plans[planID] = p
	return nil
}

// Plan returns the current plan for the given ID.
func (s *State) Plan(planID string) (*Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[planID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
	}
	return p, nil
}

// NextSubTasks returns the frontier: every sub-task that is not completed and
// whose dependencies are all completed. The plan's original sub-task order is
// preserved. The state is not mutated.
func (s *State) NextSubTasks(planID string) ([]SubTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[planID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
	}

	done := completedNames(s.completed[planID])

	var next []SubTask
	for _, st := range p.SubTasks {
		if done[st.Name] {
			continue
		}
		ready := true
		for _, dep := range st.Dependencies {
			if !done[dep] {
				ready = false
				break
			}
		}
		if ready {
			next = append(next, st)
		}
	}
	return next, nil
}

// RemainingSubTasks returns every sub-task not yet completed, regardless of
// whether its dependencies are satisfied.
func (s *State) RemainingSubTasks(planID string) ([]SubTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[planID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
	}

	done := completedNames(s.completed[planID])

	var remaining []SubTask
	for _, st := range p.SubTasks {
		if !done[st.Name] {
			remaining = append(remaining, st)
		}
	}
	return remaining, nil
}

// AddCompleted records a sub-task as completed. Completing the same sub-task
// name twice is a no-op, so the completed list never holds duplicates.
func (s *State) AddCompleted(planID string, st SubTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[planID]; !ok {
		return fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
	}
	for _, existing := range s.completed[planID] {
		if existing.Name == st.Name {
			return nil
		}
	}
	s.completed[planID] = append(s.completed[planID], st)
	return nil
}

// Completed returns the ordered list of completed sub-tasks for a plan.
func (s *State) Completed(planID string) ([]SubTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.plans[planID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
	}
	out := make([]SubTask, len(s.completed[planID]))
	copy(out, s.completed[planID])
	return out, nil
}

// PlanIDs returns the IDs of all registered plans.
func (s *State) PlanIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.plans))
	for id := range s.plans {
		ids = append(ids, id)
	}
	return ids
}

// Reset clears all plans and completion bookkeeping. It is always an explicit
// operation, never triggered by the planner itself.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = make(map[string]*Plan)
	s.completed = make(map[string][]SubTask)
}

func completedNames(completed []SubTask) map[string]bool {
	names := make(map[string]bool, len(completed))
	for _, st := range completed {
		names[st.Name] = true
	}
	return names
}
