// Package validator checks flows for structural soundness before activation.
package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/chatflow/pkg/domain"
)

// Validate checks a flow for structural soundness. A flow whose report has
// no error-severity issues may be activated; warnings never block it.
func Validate(f *domain.Flow) Report {
	c := &checker{flow: f, nodes: make(map[string]domain.Node, len(f.Nodes))}
	c.checkNodes()
	c.checkEdges()
	c.checkTrigger()
	c.crawl()
	c.checkHandles()
	c.checkLoops()
	c.checkOrphans()
	return c.report
}

type checker struct {
	flow    *domain.Flow
	nodes   map[string]domain.Node
	out     map[string][]domain.Edge
	reached map[string]bool
	report  Report
}

func (c *checker) add(kind Kind, sev Severity, nodeID, edgeID, format string, args ...any) {
	c.report = append(c.report, Issue{
		Kind:     kind,
		Severity: sev,
		NodeID:   nodeID,
		EdgeID:   edgeID,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *checker) checkNodes() {
	for _, n := range c.flow.Nodes {
		if _, dup := c.nodes[n.ID]; dup {
			c.add(KindDuplicateNode, SeverityError, n.ID, "", "node id is used more than once")
			continue
		}
		c.nodes[n.ID] = n
	}
}

// checkEdges drops dangling edges from the adjacency used by later rules.
func (c *checker) checkEdges() {
	c.out = make(map[string][]domain.Edge)
	for _, e := range c.flow.Edges {
		_, srcOK := c.nodes[e.Source]
		_, dstOK := c.nodes[e.Target]
		if !srcOK || !dstOK {
			missing := e.Source
			if srcOK {
				missing = e.Target
			}
			c.add(KindDanglingEdge, SeverityError, "", e.ID, "references missing node %q", missing)
			continue
		}
		c.out[e.Source] = append(c.out[e.Source], e)
	}
}

func (c *checker) checkTrigger() {
	triggers := c.triggers()
	switch len(triggers) {
	case 0:
		c.add(KindMissingTrigger, SeverityError, "", "", "flow has no trigger node")
		return
	case 1:
	default:
		for _, t := range triggers[1:] {
			c.add(KindMultipleTriggers, SeverityError, t.ID, "", "flow already has trigger %q", triggers[0].ID)
		}
	}

	for _, t := range triggers {
		for _, e := range c.flow.Edges {
			if e.Target == t.ID {
				c.add(KindTriggerIncoming, SeverityError, t.ID, e.ID, "trigger nodes cannot have incoming edges")
			}
		}
		data, _ := t.Data.(domain.TriggerData)
		if strings.TrimSpace(data.Keyword) == "" {
			c.add(KindEmptyKeyword, SeverityError, t.ID, "", "trigger keyword is empty")
		}
	}
}

func (c *checker) triggers() []domain.Node {
	var out []domain.Node
	for _, n := range c.flow.Nodes {
		if n.Variant() == domain.VariantTrigger && c.nodes[n.ID].Variant() == domain.VariantTrigger {
			out = append(out, n)
		}
	}
	return out
}

// crawl marks every node the interpreter can enter, starting at the triggers.
// Edges leaving an agent are never followed.
func (c *checker) crawl() {
	c.reached = make(map[string]bool)
	var queue []string
	for _, t := range c.triggers() {
		if !c.reached[t.ID] {
			c.reached[t.ID] = true
			queue = append(queue, t.ID)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if c.nodes[id].Variant() == domain.VariantAgent {
			continue
		}
		for _, e := range c.out[id] {
			if !c.reached[e.Target] {
				c.reached[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}
}

func (c *checker) checkHandles() {
	for _, n := range c.flow.Nodes {
		if !c.reached[n.ID] || c.nodes[n.ID].Variant() != n.Variant() {
			continue
		}
		edges := c.out[n.ID]

		switch d := n.Data.(type) {
		case domain.TriggerData, domain.MessageData, domain.AskTextData:
			c.checkSingleExit(n, edges)
		case domain.ButtonsData:
			c.checkOptionHandles(n, edges, len(d.Buttons))
		case domain.ListData:
			c.checkOptionHandles(n, edges, len(d.Items))
		case domain.ConditionData:
			c.checkConditionHandles(n, edges)
		case domain.AgentData:
			for _, e := range edges {
				c.add(KindUnusedEdge, SeverityWarning, n.ID, e.ID, "edges leaving an agent node are never followed")
			}
		}
	}
}

func (c *checker) checkSingleExit(n domain.Node, edges []domain.Edge) {
	var plain int
	for _, e := range edges {
		if e.SourceHandle != "" {
			c.add(KindInvalidHandle, SeverityError, n.ID, e.ID, "%s nodes have a single unlabeled exit, got handle %q", n.Variant(), e.SourceHandle)
			continue
		}
		plain++
		if plain > 1 {
			c.add(KindDuplicateHandle, SeverityError, n.ID, e.ID, "%s nodes have at most one outgoing edge", n.Variant())
		}
	}
}

func (c *checker) checkOptionHandles(n domain.Node, edges []domain.Edge, options int) {
	seen := make(map[string]bool)
	for _, e := range edges {
		i, ok := domain.ParseOptionHandle(e.SourceHandle)
		if !ok || i >= options {
			c.add(KindInvalidHandle, SeverityError, n.ID, e.ID, "handle %q does not match any of the %d options", e.SourceHandle, options)
			continue
		}
		if seen[e.SourceHandle] {
			c.add(KindDuplicateHandle, SeverityError, n.ID, e.ID, "more than one edge leaves handle %q", e.SourceHandle)
			continue
		}
		seen[e.SourceHandle] = true
	}
}

func (c *checker) checkConditionHandles(n domain.Node, edges []domain.Edge) {
	seen := make(map[string]bool)
	for _, e := range edges {
		if e.SourceHandle != domain.HandleTrue && e.SourceHandle != domain.HandleFalse {
			c.add(KindInvalidHandle, SeverityError, n.ID, e.ID, "condition edges must leave %q or %q, got %q", domain.HandleTrue, domain.HandleFalse, e.SourceHandle)
			continue
		}
		if seen[e.SourceHandle] {
			c.add(KindDuplicateHandle, SeverityError, n.ID, e.ID, "more than one edge leaves handle %q", e.SourceHandle)
			continue
		}
		seen[e.SourceHandle] = true
	}
}

func (c *checker) checkOrphans() {
	if len(c.triggers()) == 0 {
		return
	}
	for _, n := range c.flow.Nodes {
		if !c.reached[n.ID] {
			c.add(KindOrphan, SeverityWarning, n.ID, "", "node is unreachable from the trigger")
		}
	}
}
