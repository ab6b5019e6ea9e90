package plan

import (
	"fmt"
	"strings"
)

// MermaidOptions defines configuration for Mermaid diagram generation
type MermaidOptions struct {
	// Direction of the flowchart (e.g., "TD", "LR")
	Direction string

	// Completed sub-task names to highlight
	Completed []string
}

// DrawMermaid generates a Mermaid flowchart of the plan's dependency graph.
func (p *Plan) DrawMermaid() string {
	return p.DrawMermaidWithOptions(MermaidOptions{Direction: "TD"})
}

// DrawMermaidWithOptions generates a Mermaid diagram with custom options.
// Completed sub-tasks are rendered with a distinct style class.
func (p *Plan) DrawMermaidWithOptions(opts MermaidOptions) string {
	var sb strings.Builder

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}
	sb.WriteString(fmt.Sprintf("flowchart %s\n", direction))

	done := make(map[string]bool, len(opts.Completed))
	for _, name := range opts.Completed {
		done[name] = true
	}

	for _, st := range p.SubTasks {
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", sanitizeMermaidID(st.Name), escapeMermaidLabel(st.Name)))
	}

	for _, st := range p.SubTasks {
		for _, dep := range st.Dependencies {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", sanitizeMermaidID(dep), sanitizeMermaidID(st.Name)))
		}
	}

	if len(done) > 0 {
		sb.WriteString("    classDef completed fill:#9f9,stroke:#333\n")
		for _, st := range p.SubTasks {
			if done[st.Name] {
				sb.WriteString(fmt.Sprintf("    class %s completed\n", sanitizeMermaidID(st.Name)))
			}
		}
	}

	return sb.String()
}

// sanitizeMermaidID makes a sub-task name safe to use as a Mermaid node ID.
func sanitizeMermaidID(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

func escapeMermaidLabel(label string) string {
	return strings.ReplaceAll(label, "\"", "#quot;")
}
