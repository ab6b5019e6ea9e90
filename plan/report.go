package plan

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// CompletedOutput pairs a completed sub-task with the response it produced.
type CompletedOutput struct {
	SubTask  SubTask
	Response string
}

// RunReport renders a markdown document summarizing a finished (or partially
// finished) run: the original task, each completed sub-task with its output,
// and any sub-tasks that never ran.
func RunReport(task string, completed []CompletedOutput, remaining []SubTask) string {
	var sb strings.Builder

	sb.WriteString("# Run Report\n\n")
	sb.WriteString("## Task\n\n")
	sb.WriteString(task + "\n\n")

	sb.WriteString("## Completed Sub-Tasks\n\n")
	if len(completed) == 0 {
		sb.WriteString("_none_\n\n")
	}
	for _, c := range completed {
		sb.WriteString(fmt.Sprintf("### %s\n\n", c.SubTask.Name))
		sb.WriteString(fmt.Sprintf("**Input:** %s\n\n", c.SubTask.Input))
		if c.SubTask.ExpectedOutput != "" {
			sb.WriteString(fmt.Sprintf("**Expected:** %s\n\n", c.SubTask.ExpectedOutput))
		}
		sb.WriteString(fmt.Sprintf("**Output:**\n\n%s\n\n", c.Response))
	}

	if len(remaining) > 0 {
		sb.WriteString("## Not Executed\n\n")
		for _, st := range remaining {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", st.Name, st.Input))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RunReportHTML renders the run report as a standalone HTML fragment.
func RunReportHTML(task string, completed []CompletedOutput, remaining []SubTask) string {
	md := RunReport(task, completed, remaining)

	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return string(markdown.Render(doc, renderer))
}
