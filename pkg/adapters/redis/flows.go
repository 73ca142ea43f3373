package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/chatflow/pkg/codec"
	"github.com/aretw0/chatflow/pkg/domain"
)

// DefaultFlowPrefix namespaces flow keys.
const DefaultFlowPrefix = "chatflow:flow:"

// FlowRepository implements ports.FlowRepository using Redis.
// Each flow is one JSON record; a set per tenant indexes flow names.
type FlowRepository struct {
	client *backend.Client
	prefix string
}

// NewFlowRepository creates a flow repository on an existing client.
// An empty prefix uses DefaultFlowPrefix.
func NewFlowRepository(client *backend.Client, prefix string) *FlowRepository {
	if prefix == "" {
		prefix = DefaultFlowPrefix
	}
	return &FlowRepository{client: client, prefix: prefix}
}

func (r *FlowRepository) key(tenant, name string) string {
	return r.prefix + tenant + ":" + name
}

func (r *FlowRepository) indexKey(tenant string) string {
	return r.prefix + "index:" + tenant
}

// Get loads the flow record.
func (r *FlowRepository) Get(ctx context.Context, tenant, name string) (*domain.Flow, error) {
	val, err := r.client.Get(ctx, r.key(tenant, name)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrFlowNotFound
		}
		return nil, fmt.Errorf("failed to get flow from redis: %w", err)
	}
	return decodeFlow(val)
}

// Put replaces the record and indexes it in one transaction.
func (r *FlowRepository) Put(ctx context.Context, f *domain.Flow) error {
	rec, err := codec.FromFlow(f)
	if err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal flow: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Set(ctx, r.key(f.Tenant, f.Name), data, 0)
		pipe.SAdd(ctx, r.indexKey(f.Tenant), f.Name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save flow to redis: %w", err)
	}
	return nil
}

// Delete removes the record and its index entry.
func (r *FlowRepository) Delete(ctx context.Context, tenant, name string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Del(ctx, r.key(tenant, name))
		pipe.SRem(ctx, r.indexKey(tenant), name)
		return nil
	})
	return err
}

// List loads every flow indexed for the tenant.
func (r *FlowRepository) List(ctx context.Context, tenant string) ([]*domain.Flow, error) {
	names, err := r.client.SMembers(ctx, r.indexKey(tenant)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	if len(names) == 0 {
		return nil, nil
	}
	sort.Strings(names)

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = r.key(tenant, name)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load flows: %w", err)
	}

	flows := make([]*domain.Flow, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			// Indexed but gone, e.g. deleted by hand.
			continue
		}
		f, err := decodeFlow([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("flow %q: %w", names[i], err)
		}
		flows = append(flows, f)
	}
	return flows, nil
}

func decodeFlow(data []byte) (*domain.Flow, error) {
	var rec codec.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flow: %w", err)
	}
	return rec.ToFlow()
}
