// Package tool provides ready-to-use tools for planner step executors.
//
// Tools implement the langchaingo tools.Tool interface, so they plug into
// executor.NewToolCallingExecutor directly:
//
//	reader := tool.NewWebpageReader()
//	exec := executor.NewToolCallingExecutor(model, []tools.Tool{reader})
package tool
