package domain

import "time"

// Flow is a named, tenant-owned conversation graph.
//
// Nodes and Edges are flat lists. Lookups go through an index built by
// Reindex; a Flow published by a store is indexed and must be treated as
// read-only.
type Flow struct {
	Tenant         string
	Name           string
	TriggerKeyword string
	IsActive       bool
	Nodes          []Node
	Edges          []Edge
	UpdatedAt      time.Time

	byID map[string]int
	out  map[string][]int
	in   map[string][]int
}

// Key identifies a flow within a store.
type Key struct {
	Tenant string
	Name   string
}

// Key returns the store key of the flow.
func (f *Flow) Key() Key {
	return Key{Tenant: f.Tenant, Name: f.Name}
}

// Reindex rebuilds the id and adjacency index. Call it after mutating Nodes or Edges.
func (f *Flow) Reindex() {
	f.byID = make(map[string]int, len(f.Nodes))
	for i, n := range f.Nodes {
		if _, dup := f.byID[n.ID]; !dup {
			f.byID[n.ID] = i
		}
	}
	f.out = make(map[string][]int)
	f.in = make(map[string][]int)
	for i, e := range f.Edges {
		f.out[e.Source] = append(f.out[e.Source], i)
		f.in[e.Target] = append(f.in[e.Target], i)
	}
}

func (f *Flow) ensureIndex() {
	if f.byID == nil {
		f.Reindex()
	}
}

// Node returns the node with the given id.
func (f *Flow) Node(id string) (Node, bool) {
	f.ensureIndex()
	i, ok := f.byID[id]
	if !ok {
		return Node{}, false
	}
	return f.Nodes[i], true
}

// Triggers returns every trigger node in declaration order.
func (f *Flow) Triggers() []Node {
	var out []Node
	for _, n := range f.Nodes {
		if n.Variant() == VariantTrigger {
			out = append(out, n)
		}
	}
	return out
}

// Trigger returns the first trigger node.
func (f *Flow) Trigger() (Node, bool) {
	triggers := f.Triggers()
	if len(triggers) == 0 {
		return Node{}, false
	}
	return triggers[0], true
}

// Outgoing returns the edges leaving the node with the given id.
func (f *Flow) Outgoing(id string) []Edge {
	f.ensureIndex()
	idx := f.out[id]
	edges := make([]Edge, 0, len(idx))
	for _, i := range idx {
		edges = append(edges, f.Edges[i])
	}
	return edges
}

// Incoming returns the edges arriving at the node with the given id.
func (f *Flow) Incoming(id string) []Edge {
	f.ensureIndex()
	idx := f.in[id]
	edges := make([]Edge, 0, len(idx))
	for _, i := range idx {
		edges = append(edges, f.Edges[i])
	}
	return edges
}

// EdgeFrom returns the first edge leaving source through handle.
func (f *Flow) EdgeFrom(source, handle string) (Edge, bool) {
	f.ensureIndex()
	for _, i := range f.out[source] {
		if f.Edges[i].SourceHandle == handle {
			return f.Edges[i], true
		}
	}
	return Edge{}, false
}

// Next follows the edge leaving source through handle and returns its target node.
func (f *Flow) Next(source, handle string) (Node, bool) {
	e, ok := f.EdgeFrom(source, handle)
	if !ok {
		return Node{}, false
	}
	return f.Node(e.Target)
}

// Clone returns an indexed deep copy of the flow.
func (f *Flow) Clone() *Flow {
	if f == nil {
		return nil
	}
	c := &Flow{
		Tenant:         f.Tenant,
		Name:           f.Name,
		TriggerKeyword: f.TriggerKeyword,
		IsActive:       f.IsActive,
		UpdatedAt:      f.UpdatedAt,
		Nodes:          make([]Node, len(f.Nodes)),
		Edges:          append([]Edge(nil), f.Edges...),
	}
	for i, n := range f.Nodes {
		c.Nodes[i] = n.Clone()
	}
	c.Reindex()
	return c
}
