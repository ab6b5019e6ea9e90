// Package executor provides step executors that drive a single task forward.
//
// ToolExecutor is a plain registry that dispatches tool invocations.
// ToolCallingExecutor wraps it in an LLM loop: each step the model returns
// either a tool to run or a final answer, and observations accumulate in the
// task's scratchpad until the model answers.
package executor
