package ports

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunPositionStoreContract runs a suite of tests to verify that a PositionStore
// implementation adheres to the defined interface contract.
func RunPositionStoreContract(t *testing.T, store PositionStore) {
	ctx := context.Background()
	convID := "contract-conv-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		pos := domain.NewPosition(convID, "acme", "orders", "menu")
		pos.Status = domain.StatusAwaiting
		pos.Awaiting = domain.AwaitingButtonReply
		pos.Variables["choice"] = "Track"
		pos.History = []string{"start", "menu"}
		pos.LastInbound = "order status"

		require.NoError(t, store.Save(ctx, pos), "Save should not return error")

		loaded, err := store.Load(ctx, convID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, pos.FlowName, loaded.FlowName)
		assert.Equal(t, pos.CurrentNodeID, loaded.CurrentNodeID)
		assert.Equal(t, domain.AwaitingButtonReply, loaded.Awaiting)
		assert.Equal(t, domain.StatusAwaiting, loaded.Status)
		assert.Equal(t, "Track", loaded.Variables["choice"])
		assert.Equal(t, []string{"start", "menu"}, loaded.History)
		assert.Equal(t, "order status", loaded.LastInbound)
	})

	t.Run("Loaded copy is isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, convID)
		require.NoError(t, err)
		loaded.Variables["choice"] = "mutated"

		again, err := store.Load(ctx, convID)
		require.NoError(t, err)
		assert.Equal(t, "Track", again.Variables["choice"])
	})

	t.Run("Save overwrites", func(t *testing.T) {
		pos := domain.NewPosition(convID, "acme", "orders", "track")
		require.NoError(t, store.Save(ctx, pos))

		loaded, err := store.Load(ctx, convID)
		require.NoError(t, err)
		assert.Equal(t, "track", loaded.CurrentNodeID)
		assert.Empty(t, loaded.Variables)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+convID)
		assert.ErrorIs(t, err, domain.ErrPositionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewPosition(convID, "", "orders", "start")))

		require.NoError(t, store.Delete(ctx, convID), "Delete should not return error")

		_, err := store.Load(ctx, convID)
		assert.ErrorIs(t, err, domain.ErrPositionNotFound, "Load after Delete should return ErrPositionNotFound")

		assert.NoError(t, store.Delete(ctx, convID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := convID + "-1"
		id2 := convID + "-2"
		require.NoError(t, store.Save(ctx, domain.NewPosition(id1, "", "orders", "start")))
		require.NoError(t, store.Save(ctx, domain.NewPosition(id2, "", "orders", "start")))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// ContractFlow returns a small, valid flow used by repository contract tests.
func ContractFlow(tenant, name string) *domain.Flow {
	return &domain.Flow{
		Tenant:         tenant,
		Name:           name,
		TriggerKeyword: "order",
		IsActive:       true,
		UpdatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Nodes: []domain.Node{
			{ID: "start", Data: domain.TriggerData{Keyword: "order"}},
			{ID: "menu", Data: domain.ButtonsData{Text: "Pick one", Buttons: []string{"Track", "Cancel"}, Variable: "choice"}},
			{ID: "track", Data: domain.MessageData{Text: "Tracking {{var.choice}}"}},
			{ID: "human", Data: domain.AgentData{}},
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "start", Target: "menu"},
			{ID: "e2", Source: "menu", Target: "track", SourceHandle: "handle-0"},
			{ID: "e3", Source: "menu", Target: "human", SourceHandle: "handle-1"},
		},
	}
}

// RunFlowRepositoryContract runs a suite of tests to verify that a FlowRepository
// implementation adheres to the defined interface contract.
func RunFlowRepositoryContract(t *testing.T, repo FlowRepository) {
	ctx := context.Background()
	tenant := "contract-" + time.Now().Format("20060102150405")
	name := "orders"

	t.Run("Put and Get", func(t *testing.T) {
		flow := ContractFlow(tenant, name)
		require.NoError(t, repo.Put(ctx, flow))

		got, err := repo.Get(ctx, tenant, name)
		require.NoError(t, err)
		assert.Equal(t, tenant, got.Tenant)
		assert.Equal(t, name, got.Name)
		assert.Equal(t, "order", got.TriggerKeyword)
		assert.True(t, got.IsActive)
		assert.True(t, flow.UpdatedAt.Equal(got.UpdatedAt), "UpdatedAt should round trip")
		assert.ElementsMatch(t, nodeIDs(flow), nodeIDs(got))
		assert.ElementsMatch(t, flow.Edges, got.Edges)

		menu, ok := got.Node("menu")
		require.True(t, ok)
		assert.Equal(t, flow.Nodes[1].Data, menu.Data)
	})

	t.Run("Put replaces the whole graph", func(t *testing.T) {
		flow := ContractFlow(tenant, name)
		flow.Nodes = flow.Nodes[:2]
		flow.Edges = flow.Edges[:1]
		flow.IsActive = false
		require.NoError(t, repo.Put(ctx, flow))

		got, err := repo.Get(ctx, tenant, name)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"start", "menu"}, nodeIDs(got))
		assert.Len(t, got.Edges, 1)
		assert.False(t, got.IsActive)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := repo.Get(ctx, tenant, "missing")
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)
	})

	t.Run("List is tenant scoped", func(t *testing.T) {
		other := tenant + "-other"
		require.NoError(t, repo.Put(ctx, ContractFlow(tenant, "second")))
		require.NoError(t, repo.Put(ctx, ContractFlow(other, "foreign")))
		defer func() { _ = repo.Delete(ctx, other, "foreign") }()

		flows, err := repo.List(ctx, tenant)
		require.NoError(t, err)
		names := make([]string, 0, len(flows))
		for _, f := range flows {
			assert.Equal(t, tenant, f.Tenant)
			names = append(names, f.Name)
		}
		sort.Strings(names)
		assert.Equal(t, []string{name, "second"}, names)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, tenant, "second"))
		_, err := repo.Get(ctx, tenant, "second")
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)

		assert.NoError(t, repo.Delete(ctx, tenant, "second"), "Deleting twice is not an error")
		require.NoError(t, repo.Delete(ctx, tenant, name))
	})
}

func nodeIDs(f *domain.Flow) []string {
	ids := make([]string, len(f.Nodes))
	for i, n := range f.Nodes {
		ids[i] = n.ID
	}
	return ids
}
