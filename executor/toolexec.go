package executor

import (
	"context"
	"fmt"
	"sort"

	"github.com/tmc/langchaingo/tools"
)

// ToolInvocation is a single request to run a named tool.
type ToolInvocation struct {
	Tool      string `json:"tool"`
	ToolInput string `json:"tool_input"`
}

// ToolExecutor dispatches tool invocations to a registry of tools.
type ToolExecutor struct {
	tools map[string]tools.Tool
}

// NewToolExecutor creates a tool executor over the given tools.
func NewToolExecutor(inputTools []tools.Tool) *ToolExecutor {
	toolMap := make(map[string]tools.Tool, len(inputTools))
	for _, t := range inputTools {
		toolMap[t.Name()] = t
	}
	return &ToolExecutor{tools: toolMap}
}

// Tools returns the names of the registered tools, sorted.
func (e *ToolExecutor) Tools() []string {
	names := make([]string, 0, len(e.tools))
	for name := range e.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a tool with the given name is registered.
func (e *ToolExecutor) Has(name string) bool {
	_, ok := e.tools[name]
	return ok
}

// Execute runs the invoked tool and returns its observation.
func (e *ToolExecutor) Execute(ctx context.Context, invocation ToolInvocation) (string, error) {
	tool, ok := e.tools[invocation.Tool]
	if !ok {
		return "", fmt.Errorf("tool %q not found", invocation.Tool)
	}

	result, err := tool.Call(ctx, invocation.ToolInput)
	if err != nil {
		return "", fmt.Errorf("tool %q failed: %w", invocation.Tool, err)
	}
	return result, nil
}
