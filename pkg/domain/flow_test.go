package domain_test

import (
	"testing"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFlow() *domain.Flow {
	return &domain.Flow{
		Name: "orders",
		Nodes: []domain.Node{
			{ID: "start", Data: domain.TriggerData{Keyword: "order"}},
			{ID: "menu", Data: domain.ButtonsData{Text: "Pick", Buttons: []string{"Track", "Cancel"}}},
			{ID: "track", Data: domain.MessageData{Text: "Tracking"}},
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "start", Target: "menu"},
			{ID: "e2", Source: "menu", Target: "track", SourceHandle: domain.OptionHandle(0)},
		},
	}
}

func TestFlow_Lookups(t *testing.T) {
	f := sampleFlow()

	trigger, ok := f.Trigger()
	require.True(t, ok)
	assert.Equal(t, "start", trigger.ID)

	n, ok := f.Node("menu")
	require.True(t, ok)
	assert.Equal(t, domain.VariantButtons, n.Variant())

	_, ok = f.Node("missing")
	assert.False(t, ok)

	next, ok := f.Next("menu", "handle-0")
	require.True(t, ok)
	assert.Equal(t, "track", next.ID)

	_, ok = f.Next("menu", "handle-1")
	assert.False(t, ok)

	assert.Len(t, f.Outgoing("start"), 1)
	assert.Len(t, f.Incoming("start"), 0)
	assert.Len(t, f.Incoming("track"), 1)
}

func TestFlow_CloneIsIndependent(t *testing.T) {
	f := sampleFlow()
	c := f.Clone()

	menu := c.Nodes[1].Data.(domain.ButtonsData)
	menu.Buttons[0] = "Changed"

	orig := f.Nodes[1].Data.(domain.ButtonsData)
	assert.Equal(t, "Track", orig.Buttons[0])

	c.Edges[0].Target = "track"
	assert.Equal(t, "menu", f.Edges[0].Target)
}

func TestOptionHandle(t *testing.T) {
	tests := []struct {
		handle string
		index  int
		ok     bool
	}{
		{"handle-0", 0, true},
		{"handle-9", 9, true},
		{"handle-", 0, false},
		{"handle-01", 0, false},
		{"handle--1", 0, false},
		{"true", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.handle, func(t *testing.T) {
			i, ok := domain.ParseOptionHandle(tt.handle)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.index, i)
				assert.Equal(t, tt.handle, domain.OptionHandle(i))
			}
		})
	}
}

func TestPosition_Phase(t *testing.T) {
	var idle *domain.Position
	assert.Equal(t, domain.PhaseIdle, idle.Phase())

	p := domain.NewPosition("c1", "", "orders", "menu")
	assert.Equal(t, domain.PhaseAwaitingNone, p.Phase())

	p.Status = domain.StatusAwaiting
	p.Awaiting = domain.AwaitingListReply
	assert.Equal(t, domain.PhaseAwaitingListReply, p.Phase())
	assert.True(t, p.Parked())

	p.Status = domain.StatusPaused
	assert.Equal(t, domain.PhasePaused, p.Phase())

	p.Status = domain.StatusCompleted
	assert.Equal(t, domain.PhaseCompleted, p.Phase())
	assert.False(t, p.Parked())
}

func TestPosition_Snapshot(t *testing.T) {
	p := domain.NewPosition("c1", "", "orders", "menu")
	p.Variables["choice"] = "Track"
	p.History = []string{"start"}

	s := p.Snapshot()
	s.Variables["choice"] = "Cancel"
	s.History[0] = "other"

	assert.Equal(t, "Track", p.Variables["choice"])
	assert.Equal(t, "start", p.History[0])
}
