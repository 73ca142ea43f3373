// Package codec converts flows to and from their persisted record form and
// provides the byte codecs used by position stores.
//
// A Record keeps nodes and edges as flat lists so stores can index them by id.
// Node payloads travel untyped and are re-validated by the schema library on
// the way back in, so a record that decodes is always a well-formed flow.
package codec

import (
	"fmt"
	"time"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/schema"
)

// Record is the persisted form of a flow.
type Record struct {
	Tenant         string        `json:"tenant,omitempty" yaml:"tenant,omitempty"`
	FlowName       string        `json:"flowName" yaml:"flowName"`
	TriggerKeyword string        `json:"triggerKeyword" yaml:"triggerKeyword"`
	IsActive       bool          `json:"isActive" yaml:"isActive"`
	Nodes          []NodeRecord  `json:"nodes" yaml:"nodes"`
	Edges          []domain.Edge `json:"edges" yaml:"edges"`
	UpdatedAt      time.Time     `json:"updatedAt" yaml:"updatedAt,omitempty"`
}

// NodeRecord is the persisted form of a node.
type NodeRecord struct {
	ID       string         `json:"id" yaml:"id"`
	Type     domain.Variant `json:"type" yaml:"type"`
	Data     map[string]any `json:"data" yaml:"data"`
	Position domain.Point   `json:"position" yaml:"position,omitempty"`
}

// FromFlow builds the record of a flow.
func FromFlow(f *domain.Flow) (Record, error) {
	rec := Record{
		Tenant:         f.Tenant,
		FlowName:       f.Name,
		TriggerKeyword: f.TriggerKeyword,
		IsActive:       f.IsActive,
		Nodes:          make([]NodeRecord, 0, len(f.Nodes)),
		Edges:          append([]domain.Edge{}, f.Edges...),
		UpdatedAt:      f.UpdatedAt,
	}
	for _, n := range f.Nodes {
		nr, err := FromNode(n)
		if err != nil {
			return Record{}, err
		}
		rec.Nodes = append(rec.Nodes, nr)
	}
	return rec, nil
}

// FromNode builds the record of a single node.
func FromNode(n domain.Node) (NodeRecord, error) {
	raw, err := schema.Raw(n.Data)
	if err != nil {
		return NodeRecord{}, fmt.Errorf("node %q: %w", n.ID, err)
	}
	return NodeRecord{ID: n.ID, Type: n.Variant(), Data: raw, Position: n.Position}, nil
}

// ToNode parses a node record through the schema library.
func (nr NodeRecord) ToNode() (domain.Node, error) {
	n, err := schema.Parse(nr.ID, nr.Type, nr.Data)
	if err != nil {
		return domain.Node{}, err
	}
	n.Position = nr.Position
	return n, nil
}

// ToFlow parses every node of the record. Schema failures across nodes are
// aggregated into a single *schema.AggregateError.
func (r Record) ToFlow() (*domain.Flow, error) {
	f := &domain.Flow{
		Tenant:         r.Tenant,
		Name:           r.FlowName,
		TriggerKeyword: r.TriggerKeyword,
		IsActive:       r.IsActive,
		Nodes:          make([]domain.Node, 0, len(r.Nodes)),
		Edges:          append([]domain.Edge{}, r.Edges...),
		UpdatedAt:      r.UpdatedAt,
	}

	var errs []error
	for _, nr := range r.Nodes {
		n, err := nr.ToNode()
		if err != nil {
			for _, se := range schema.SchemaErrors(err) {
				errs = append(errs, se)
			}
			continue
		}
		f.Nodes = append(f.Nodes, n)
	}
	switch len(errs) {
	case 0:
	case 1:
		return nil, errs[0]
	default:
		return nil, &schema.AggregateError{Errors: errs}
	}

	f.Reindex()
	return f, nil
}
