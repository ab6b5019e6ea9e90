package planner

// DefaultInitialPlanPrompt is the planning prompt template. It is rendered
// with fmt.Sprintf; the first verb receives the tool list, the second the
// overall task.
const DefaultInitialPlanPrompt = `Think step-by-step. Given a task and a set of tools, create a comprehensive, end-to-end plan to accomplish the task.
Keep in mind not every task needs to be decomposed into multiple sub-tasks if it is simple enough.
The plan should end with a sub-task that satisfies the overall task.

The tools available are:
%s

Overall Task: %s

Respond ONLY with a JSON object in this exact format:
{
  "sub_tasks": [
    {
      "name": "unique_sub_task_name",
      "input": "the input prompt for this sub-task",
      "expected_output": "what a successful result looks like",
      "dependencies": ["names", "of", "prerequisite", "sub-tasks"]
    }
  ]
}

Rules:
1. Sub-task names must be unique within the plan
2. Dependencies may only reference sub-task names that appear in the plan
3. The dependency graph must not contain cycles
4. Return ONLY the JSON object, no additional text`

// DefaultPlanRefinePrompt is the refinement prompt template. It is rendered
// with fmt.Sprintf in the order: tool list, overall task, completed sub-task
// outputs, remaining sub-tasks.
const DefaultPlanRefinePrompt = `Think step-by-step. Given an overall task, a set of tools, and completed sub-tasks, update (if needed) the remaining sub-tasks so that the overall task can still be completed.
The plan should end with a sub-task that satisfies the overall task.
If the remaining sub-tasks are sufficient, you can skip this step.

The tools available are:
%s

Overall Task:
%s

Completed Sub-Tasks + Outputs:
%s

Remaining Sub-Tasks:
%s

Respond ONLY with a JSON object in this exact format:
{
  "sub_tasks": [
    {
      "name": "unique_sub_task_name",
      "input": "the input prompt for this sub-task",
      "expected_output": "what a successful result looks like",
      "dependencies": ["names", "of", "prerequisite", "sub-tasks"]
    }
  ]
}`
