// Package planweave turns a free-text request into a structured plan of
// dependent sub-tasks and drives the plan to completion.
//
// An LLM predicts the plan as a dependency DAG of sub-tasks. The planner
// dispatches every ready sub-task concurrently, collects their outputs, and
// asks the LLM to refine the remaining plan between rounds. A failed planning
// call degrades to a single catch-all sub-task; a failed refinement keeps the
// previous plan. Execution itself is pluggable through the StepExecutor
// interface.
//
// # Quick Start
//
// Install the package:
//
//	go get github.com/smallnest/planweave
//
// Basic example:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		"github.com/tmc/langchaingo/llms/openai"
//		"github.com/tmc/langchaingo/tools"
//
//		"github.com/smallnest/planweave/executor"
//		"github.com/smallnest/planweave/planner"
//		"github.com/smallnest/planweave/tool"
//	)
//
//	func main() {
//		model, _ := openai.New()
//
//		toolList := []tools.Tool{tool.NewWebpageReader()}
//		exec := executor.NewToolCallingExecutor(model, toolList)
//
//		p, _ := planner.New(exec, planner.Config{
//			Model:   model,
//			Tools:   toolList,
//			Verbose: true,
//		})
//
//		resp, err := p.Chat(context.Background(), "Summarize the Go 1.25 release notes")
//		if err != nil {
//			panic(err)
//		}
//		fmt.Println(resp.Content)
//	}
//
// # Packages
//
//   - plan: the sub-task/plan data model, validation, frontier computation,
//     and rendering (Mermaid, progress, run reports)
//   - planner: the Planner (plan, dispatch, refine) and the TaskRunner
//   - executor: step executors, including an LLM tool-calling loop
//   - llm: plan prediction over langchaingo models; llm/openai adds a
//     JSON-mode predictor
//   - store: plan persistence with memory, file, SQLite, Redis and
//     PostgreSQL backends
//   - memory: a bounded chat history buffer
//   - tool: ready-to-use tools for step executors
//   - log: the logging interface used across the module
package planweave
