// Package plan defines the structured planner's data model: plans, sub-tasks
// with declared dependencies, and the per-planner state that tracks which
// sub-tasks of which plan have completed.
//
// A Plan is an ordered list of SubTasks. Each sub-task names the sub-tasks it
// depends on; the set of sub-tasks whose dependencies are all completed but
// which are themselves not yet completed is the frontier, computed by
// State.NextSubTasks. Plans are validated at registration time: dependency
// names must resolve within the plan and the dependency relation must be
// acyclic.
//
// The package also provides presentation helpers: Mermaid export of the
// dependency graph, a lipgloss-styled terminal progress view, and a markdown
// (or HTML) run report.
package plan
