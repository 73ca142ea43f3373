package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/chatflow/pkg/domain"
)

// Overlay contains conversation state to visualize on the graph.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFor builds the overlay of a stored position. A nil position yields nil.
func OverlayFor(pos *domain.Position) *Overlay {
	if pos == nil {
		return nil
	}
	return &Overlay{VisitedNodes: pos.History, CurrentNode: pos.CurrentNodeID}
}

// GenerateMermaid produces a Mermaid flowchart of a flow.
// It applies semantic styling:
// - Trigger: ((Circle))
// - Buttons/List: {{Hexagon}}
// - AskText: [/Parallelogram/]
// - Condition: {Rhombus}
// - Agent: [[Subroutine]]
// - Message: [Rectangle]
// Edges leaving options are labeled with the option text.
func GenerateMermaid(f *domain.Flow, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range f.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch node.Variant() {
		case domain.VariantTrigger:
			opener, closer = "((", "))"
		case domain.VariantButtons, domain.VariantList:
			opener, closer = "{{", "}}"
		case domain.VariantAskText:
			opener, closer = "[/", "/]"
		case domain.VariantCondition:
			opener, closer = "{", "}"
		case domain.VariantAgent:
			opener, closer = "[[", "]]"
		}

		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, nodeLabel(node), closer)
	}

	for _, e := range f.Edges {
		from, to := sanitizeMermaidID(e.Source), sanitizeMermaidID(e.Target)
		if label := edgeLabel(f, e); label != "" {
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", from, escape(label), to)
			continue
		}
		fmt.Fprintf(&sb, "    %s --> %s\n", from, to)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			// History may name nodes removed since the visit.
			if _, ok := f.Node(id); !ok {
				continue
			}
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if _, ok := f.Node(overlay.CurrentNode); ok {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func nodeLabel(n domain.Node) string {
	var detail string
	switch d := n.Data.(type) {
	case domain.TriggerData:
		detail = "keyword: " + d.Keyword
	case domain.MessageData:
		detail = d.Text
	case domain.ButtonsData:
		detail = d.Text
	case domain.ListData:
		detail = d.Text
	case domain.AskTextData:
		detail = d.Text
	case domain.ConditionData:
		detail = fmt.Sprintf("%s %s '%s'", d.Field, d.Operator, d.Value)
	case domain.AgentData:
		detail = "human agent"
	}
	if detail == "" {
		return escape(n.ID)
	}
	return escape(n.ID) + " <br/> " + escape(truncate(detail, 40))
}

func edgeLabel(f *domain.Flow, e domain.Edge) string {
	if e.SourceHandle == "" {
		return ""
	}
	src, ok := f.Node(e.Source)
	if !ok {
		return e.SourceHandle
	}
	if chooser, ok := src.Data.(domain.Chooser); ok {
		if i, ok := domain.ParseOptionHandle(e.SourceHandle); ok && i < len(chooser.Options()) {
			return chooser.Options()[i]
		}
	}
	return e.SourceHandle
}

func truncate(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}

// escape replaces double quotes, which terminate Mermaid labels.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
