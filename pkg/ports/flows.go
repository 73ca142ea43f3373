package ports

import (
	"context"

	"github.com/aretw0/chatflow/pkg/domain"
)

// FlowReader retrieves a single flow.
type FlowReader interface {
	// Get returns domain.ErrFlowNotFound if the flow does not exist.
	Get(ctx context.Context, tenant, name string) (*domain.Flow, error)
}

// FlowRepository defines how whole flows are persisted.
// Put is a full replace: the stored node and edge sets are exactly those of the flow given.
type FlowRepository interface {
	FlowReader

	// Put creates or replaces the flow identified by its tenant and name.
	Put(ctx context.Context, flow *domain.Flow) error

	// Delete removes the flow. Deleting a missing flow is not an error.
	Delete(ctx context.Context, tenant, name string) error

	// List returns every flow of the tenant.
	List(ctx context.Context, tenant string) ([]*domain.Flow, error)
}

// ActiveFlowSource lists the flows eligible for routing.
type ActiveFlowSource interface {
	ListActive(ctx context.Context, tenant string) ([]*domain.Flow, error)
}
