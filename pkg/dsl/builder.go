package dsl

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graphstore"
	"github.com/aretw0/chatflow/pkg/schema"
)

// Builder manages the flow construction.
type Builder struct {
	flow  domain.Flow
	order []string
	nodes map[string]*NodeBuilder
	edges []domain.Edge
	newID func() string
}

// New creates a builder for a flow with the given name.
func New(name string) *Builder {
	return &Builder{
		flow:  domain.Flow{Name: name},
		nodes: make(map[string]*NodeBuilder),
		newID: uuid.NewString,
	}
}

// Tenant sets the owning tenant.
func (b *Builder) Tenant(tenant string) *Builder {
	b.flow.Tenant = tenant
	return b
}

// Active marks the flow eligible for routing.
func (b *Builder) Active() *Builder {
	b.flow.IsActive = true
	return b
}

// Add creates a new node in the flow.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    domain.Node{ID: id},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

func (b *Builder) connect(source, target, handle string) {
	b.edges = append(b.edges, domain.Edge{
		ID:           b.newID(),
		Source:       source,
		Target:       target,
		SourceHandle: handle,
	})
}

// Build assembles the flow, checks payloads and identity integrity, and
// returns it indexed. Semantic validation is left to the caller.
func (b *Builder) Build() (*domain.Flow, error) {
	f := b.flow
	f.Nodes = make([]domain.Node, 0, len(b.order))
	for _, id := range b.order {
		n := b.nodes[id].node
		if n.Data == nil {
			return nil, fmt.Errorf("node %q has no content", id)
		}
		f.Nodes = append(f.Nodes, n.Clone())
	}
	f.Edges = append([]domain.Edge(nil), b.edges...)
	for _, n := range f.Nodes {
		if t, ok := n.Data.(domain.TriggerData); ok {
			f.TriggerKeyword = t.Keyword
			break
		}
	}

	if err := graphstore.CheckIntegrity(&f); err != nil {
		return nil, err
	}
	if err := schema.ValidateFlow(&f); err != nil {
		return nil, err
	}
	f.Reindex()
	return &f, nil
}
