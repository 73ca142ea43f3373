package validator

import (
	"strings"

	"github.com/aretw0/chatflow/pkg/domain"
)

// checkLoops warns about cycles that never pass through a condition node.
// A cycle made only of message nodes never suspends, so the interpreter
// stops it at its step limit and hands the conversation to a human.
func (c *checker) checkLoops() {
	t := &tarjan{
		c:       c,
		index:   make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
	}
	for _, n := range c.flow.Nodes {
		if c.inLoopGraph(n.ID) {
			if _, seen := t.index[n.ID]; !seen {
				t.strongConnect(n.ID)
			}
		}
	}

	for _, scc := range t.components {
		if len(scc) == 1 && !c.selfLoop(scc[0]) {
			continue
		}
		ordered := c.inFlowOrder(scc)
		msg := "nodes [" + strings.Join(ordered, " ") + "] form a loop that never passes a condition"
		if c.allMessages(ordered) {
			msg += "; it never waits for a reply and will hit the step limit"
		}
		c.add(KindLoop, SeverityWarning, ordered[0], "", "%s", msg)
	}
}

// inLoopGraph reports whether a node takes part in cycle detection.
func (c *checker) inLoopGraph(id string) bool {
	if !c.reached[id] {
		return false
	}
	switch c.nodes[id].Variant() {
	case domain.VariantCondition, domain.VariantAgent:
		return false
	}
	return true
}

func (c *checker) selfLoop(id string) bool {
	for _, e := range c.out[id] {
		if e.Target == id {
			return true
		}
	}
	return false
}

func (c *checker) allMessages(ids []string) bool {
	for _, id := range ids {
		if c.nodes[id].Variant() != domain.VariantMessage {
			return false
		}
	}
	return true
}

func (c *checker) inFlowOrder(ids []string) []string {
	member := make(map[string]bool, len(ids))
	for _, id := range ids {
		member[id] = true
	}
	ordered := make([]string, 0, len(ids))
	for _, n := range c.flow.Nodes {
		if member[n.ID] {
			ordered = append(ordered, n.ID)
			delete(member, n.ID)
		}
	}
	return ordered
}

type tarjan struct {
	c          *checker
	counter    int
	index      map[string]int
	lowlink    map[string]int
	onStack    map[string]bool
	stack      []string
	components [][]string
}

func (t *tarjan) strongConnect(v string) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, e := range t.c.out[v] {
		w := e.Target
		if !t.c.inLoopGraph(w) {
			continue
		}
		if _, seen := t.index[w]; !seen {
			t.strongConnect(w)
			t.lowlink[v] = min(t.lowlink[v], t.lowlink[w])
		} else if t.onStack[w] {
			t.lowlink[v] = min(t.lowlink[v], t.index[w])
		}
	}

	if t.lowlink[v] != t.index[v] {
		return
	}
	var scc []string
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == v {
			break
		}
	}
	t.components = append(t.components, scc)
}
