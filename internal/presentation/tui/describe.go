// Package tui renders flows for humans at a terminal.
package tui

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/validator"
)

// Markdown describes a flow and its validation report as markdown.
func Markdown(f *domain.Flow, report validator.Report) string {
	var sb strings.Builder

	status := "inactive"
	if f.IsActive {
		status = "active"
	}
	fmt.Fprintf(&sb, "# %s\n\n", f.Name)
	if f.Tenant != "" {
		fmt.Fprintf(&sb, "- **Tenant:** %s\n", f.Tenant)
	}
	fmt.Fprintf(&sb, "- **Status:** %s\n", status)
	if f.TriggerKeyword != "" {
		fmt.Fprintf(&sb, "- **Keyword:** `%s`\n", f.TriggerKeyword)
	}
	fmt.Fprintf(&sb, "- **Nodes:** %d, **Edges:** %d\n\n", len(f.Nodes), len(f.Edges))

	sb.WriteString("## Nodes\n\n")
	sb.WriteString("| ID | Type | Content | Next |\n|---|---|---|---|\n")
	for _, n := range f.Nodes {
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n", n.ID, n.Variant(), cell(content(n)), cell(next(f, n)))
	}

	sb.WriteString("\n## Validation\n\n")
	if len(report) == 0 {
		sb.WriteString("No issues found.\n")
		return sb.String()
	}
	for _, issue := range report {
		marker := "⚠️"
		if issue.Severity == validator.SeverityError {
			marker = "❌"
		}
		fmt.Fprintf(&sb, "- %s **%s** %s\n", marker, issue.Kind, issue.Message)
	}
	return sb.String()
}

// Describe renders Markdown with glamour when stdout is a terminal and
// returns plain markdown otherwise.
func Describe(f *domain.Flow, report validator.Report) string {
	md := Markdown(f, report)
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return md
	}

	width, _, err := term.GetSize(fd)
	if err != nil {
		width = 0
	}
	render, err := NewRenderer(width)
	if err != nil {
		return md
	}
	out, err := render(md)
	if err != nil {
		return md
	}
	return out
}

func content(n domain.Node) string {
	switch d := n.Data.(type) {
	case domain.TriggerData:
		return fmt.Sprintf("keyword `%s`", d.Keyword)
	case domain.MessageData:
		return d.Text
	case domain.ButtonsData:
		return fmt.Sprintf("%s [%s]", d.Text, strings.Join(d.Buttons, " / "))
	case domain.ListData:
		return fmt.Sprintf("%s (%s: %s)", d.Text, d.ButtonText, strings.Join(d.Items, ", "))
	case domain.AskTextData:
		if d.Variable != "" {
			return fmt.Sprintf("%s → `%s`", d.Text, d.Variable)
		}
		return d.Text
	case domain.ConditionData:
		return fmt.Sprintf("%s %s `%s`", d.Field, d.Operator, d.Value)
	case domain.AgentData:
		return "hand off to a human"
	}
	return ""
}

func next(f *domain.Flow, n domain.Node) string {
	var parts []string
	for _, e := range f.Outgoing(n.ID) {
		if e.SourceHandle == "" {
			parts = append(parts, "`"+e.Target+"`")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s → `%s`", e.SourceHandle, e.Target))
	}
	return strings.Join(parts, ", ")
}

// cell keeps a value on one table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.Join(strings.Fields(s), " ")
}
