package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/aretw0/chatflow/pkg/domain"
)

type snapshot map[domain.Key]*domain.Flow

// FlowRepository implements ports.FlowRepository in memory.
//
// Reads load an immutable snapshot and never wait on writers. Writers are
// serialized and publish a new snapshot, so a reader sees either the old or
// the new version of a flow, never a mix.
type FlowRepository struct {
	current atomic.Pointer[snapshot]
	writeMu sync.Mutex
}

// NewFlowRepository creates an empty repository, optionally seeded with flows.
func NewFlowRepository(flows ...*domain.Flow) *FlowRepository {
	r := &FlowRepository{}
	snap := make(snapshot, len(flows))
	for _, f := range flows {
		snap[f.Key()] = f.Clone()
	}
	r.current.Store(&snap)
	return r
}

func (r *FlowRepository) load() snapshot {
	return *r.current.Load()
}

// Get returns a copy of the stored flow.
func (r *FlowRepository) Get(ctx context.Context, tenant, name string) (*domain.Flow, error) {
	f, ok := r.load()[domain.Key{Tenant: tenant, Name: name}]
	if !ok {
		return nil, domain.ErrFlowNotFound
	}
	return f.Clone(), nil
}

// Put replaces the flow.
func (r *FlowRepository) Put(ctx context.Context, flow *domain.Flow) error {
	stored := flow.Clone()
	r.update(func(next snapshot) { next[stored.Key()] = stored })
	return nil
}

// Delete removes the flow.
func (r *FlowRepository) Delete(ctx context.Context, tenant, name string) error {
	r.update(func(next snapshot) { delete(next, domain.Key{Tenant: tenant, Name: name}) })
	return nil
}

// List returns copies of the tenant's flows ordered by name.
func (r *FlowRepository) List(ctx context.Context, tenant string) ([]*domain.Flow, error) {
	var out []*domain.Flow
	for key, f := range r.load() {
		if key.Tenant == tenant {
			out = append(out, f.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *FlowRepository) update(mutate func(snapshot)) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	prev := r.load()
	next := make(snapshot, len(prev)+1)
	for k, v := range prev {
		next[k] = v
	}
	mutate(next)
	r.current.Store(&next)
}
