// Package planner implements a structured planning agent: it asks an LLM to
// decompose a request into a dependency-ordered plan of sub-tasks, runs every
// ready sub-task concurrently through a step executor, and refines the
// remaining plan between rounds using the outputs collected so far.
//
// # Roles
//
//   - Planner: owns the plan state, computes the ready frontier, dispatches
//     rounds, and re-plans. See Planner.Chat for the full loop.
//   - TaskRunner: drives one task to completion by looping a StepExecutor
//     until it reports a terminal step, with a configurable step budget.
//   - StepExecutor: pluggable strategy producing one increment of execution
//     per call. The executor package ships a tool-calling reference
//     implementation; any ReAct-style or function-calling loop fits.
//
// # Degradation instead of failure
//
// Planning never blocks execution: if the LLM cannot produce a valid
// structured plan, the planner substitutes a single default sub-task carrying
// the original request. Refinement failures keep the previous plan. Both are
// reported through plan.Outcome so callers and tests can tell the cases
// apart. Sub-task execution failures, by contrast, stop the run after the
// current round with a PartialPlanError that retains the partial results.
//
// # Example
//
//	exec := executor.NewToolCallingExecutor(model, tools)
//	p, err := planner.New(exec, planner.Config{
//		Model: model,
//		Tools: tools,
//	})
//	if err != nil {
//		// handle
//	}
//	resp, err := p.Chat(ctx, "research X and write a summary")
package planner
