package graphstore

import (
	"fmt"

	"github.com/aretw0/chatflow/pkg/domain"
)

// CheckIntegrity verifies that node and edge ids are present and unique and
// that every edge references existing nodes.
func CheckIntegrity(f *domain.Flow) error {
	var violations []string
	if f.Name == "" {
		violations = append(violations, "flow name is required")
	}

	nodes := make(map[string]bool, len(f.Nodes))
	for i, n := range f.Nodes {
		switch {
		case n.ID == "":
			violations = append(violations, fmt.Sprintf("node #%d has no id", i))
		case nodes[n.ID]:
			violations = append(violations, fmt.Sprintf("duplicate node id %q", n.ID))
		}
		nodes[n.ID] = true
	}

	edges := make(map[string]bool, len(f.Edges))
	for i, e := range f.Edges {
		switch {
		case e.ID == "":
			violations = append(violations, fmt.Sprintf("edge #%d has no id", i))
		case edges[e.ID]:
			violations = append(violations, fmt.Sprintf("duplicate edge id %q", e.ID))
		}
		edges[e.ID] = true

		if !nodes[e.Source] {
			violations = append(violations, fmt.Sprintf("edge %q: source %q does not exist", e.ID, e.Source))
		}
		if !nodes[e.Target] {
			violations = append(violations, fmt.Sprintf("edge %q: target %q does not exist", e.ID, e.Target))
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return &IntegrityError{Tenant: f.Tenant, Flow: f.Name, Violations: violations}
}
