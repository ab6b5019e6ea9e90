package plan

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	readyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	blockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
)

// RenderProgress renders a terminal-friendly status view of the plan:
// completed sub-tasks in green, runnable ones in yellow, blocked ones dimmed.
// Intended for verbose/interactive use the way agent demos print their plans.
func (p *Plan) RenderProgress(completed []string) string {
	done := make(map[string]bool, len(completed))
	for _, name := range completed {
		done[name] = true
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Plan"))
	sb.WriteString("\n")

	for _, st := range p.SubTasks {
		switch {
		case done[st.Name]:
			sb.WriteString(doneStyle.Render("  [done]    " + st.Name))
		case depsMet(st, done):
			sb.WriteString(readyStyle.Render("  [ready]   " + st.Name))
		default:
			sb.WriteString(blockedStyle.Render("  [blocked] " + st.Name + " <- " + strings.Join(st.Dependencies, ", ")))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func depsMet(st SubTask, done map[string]bool) bool {
	for _, dep := range st.Dependencies {
		if !done[dep] {
			return false
		}
	}
	return true
}
