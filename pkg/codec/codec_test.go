package codec_test

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/chatflow/pkg/codec"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/schema"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullFlow() *domain.Flow {
	return &domain.Flow{
		Tenant:         "acme",
		Name:           "support",
		TriggerKeyword: "help",
		IsActive:       true,
		UpdatedAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Nodes: []domain.Node{
			{ID: "start", Data: domain.TriggerData{Keyword: "help"}, Position: domain.Point{X: 10, Y: 20}},
			{ID: "hello", Data: domain.MessageData{Text: "Hi {{var.name}}"}},
			{ID: "menu", Data: domain.ButtonsData{Text: "Topic?", Buttons: []string{"Billing", "Tech"}, Variable: "topic"}},
			{ID: "sizes", Data: domain.ListData{Text: "Size", ButtonText: "Open", Items: []string{"S", "M"}}},
			{ID: "email", Data: domain.AskTextData{Text: "Email?", Variable: "email"}},
			{ID: "check", Data: domain.ConditionData{Field: "message", Operator: "equals", Value: "ok"}},
			{ID: "human", Data: domain.AgentData{}},
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "start", Target: "hello"},
			{ID: "e2", Source: "hello", Target: "menu"},
			{ID: "e3", Source: "menu", Target: "sizes", SourceHandle: "handle-0"},
			{ID: "e4", Source: "menu", Target: "email", SourceHandle: "handle-1"},
			{ID: "e5", Source: "email", Target: "check"},
			{ID: "e6", Source: "check", Target: "human", SourceHandle: "true"},
		},
	}
}

var byID = cmp.Options{
	cmpopts.IgnoreUnexported(domain.Flow{}),
	cmpopts.SortSlices(func(a, b domain.Node) bool { return a.ID < b.ID }),
	cmpopts.SortSlices(func(a, b domain.Edge) bool { return a.ID < b.ID }),
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []codec.Format{codec.FormatJSON, codec.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			orig := fullFlow()
			data, err := codec.Marshal(orig, format)
			require.NoError(t, err)

			back, err := codec.Unmarshal(data, format)
			require.NoError(t, err)

			if diff := cmp.Diff(orig, back, byID); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRoundTrip_OrderIrrelevant(t *testing.T) {
	orig := fullFlow()
	rec, err := codec.FromFlow(orig)
	require.NoError(t, err)

	for i, j := 0, len(rec.Nodes)-1; i < j; i, j = i+1, j-1 {
		rec.Nodes[i], rec.Nodes[j] = rec.Nodes[j], rec.Nodes[i]
	}
	rec.Edges[0], rec.Edges[len(rec.Edges)-1] = rec.Edges[len(rec.Edges)-1], rec.Edges[0]

	back, err := rec.ToFlow()
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(orig, back, byID))

	n, ok := back.Node("menu")
	require.True(t, ok)
	assert.Equal(t, domain.VariantButtons, n.Variant())
}

func TestUnmarshal_EditorRecord(t *testing.T) {
	raw := `{
		"flowName": "orders",
		"triggerKeyword": "order",
		"isActive": true,
		"nodes": [
			{"id": "start", "type": "trigger", "data": {"keyword": "order"}, "position": {"x": 0, "y": 0}},
			{"id": "menu", "type": "buttons", "data": {"text": "Pick", "buttons": ["Track", "Cancel"]}}
		],
		"edges": [
			{"id": "e1", "source": "start", "target": "menu", "sourceHandle": null}
		],
		"updatedAt": "2026-01-02T03:04:05Z"
	}`

	f, err := codec.Unmarshal([]byte(raw), codec.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "orders", f.Name)
	assert.Equal(t, "", f.Edges[0].SourceHandle)
	next, ok := f.Next("start", "")
	require.True(t, ok)
	assert.Equal(t, "menu", next.ID)
}

func TestUnmarshal_SchemaErrorsAggregate(t *testing.T) {
	rec := codec.Record{
		FlowName: "bad",
		Nodes: []codec.NodeRecord{
			{ID: "b", Type: domain.VariantButtons, Data: map[string]any{"text": "x", "buttons": []any{"1", "2", "3", "4"}}},
			{ID: "c", Type: domain.VariantCondition, Data: map[string]any{"operator": "like"}},
		},
	}
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	_, err = codec.Unmarshal(data, codec.FormatJSON)
	require.Error(t, err)
	errs := schema.SchemaErrors(err)
	require.Len(t, errs, 2)
	assert.Equal(t, "buttons", errs[0].Field)
	assert.Equal(t, "operator", errs[1].Field)
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"flow.json", "flow.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, codec.WriteFile(path, fullFlow()))

			back, err := codec.ReadFile(path)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(fullFlow(), back, byID))
		})
	}
	assert.Equal(t, codec.FormatYAML, codec.FormatFor("x.YML"))
	assert.Equal(t, codec.FormatJSON, codec.FormatFor("x.txt"))
}

func TestPositionCodecs(t *testing.T) {
	p := domain.NewPosition("conv-1", "acme", "support", "menu")
	p.Status = domain.StatusAwaiting
	p.Awaiting = domain.AwaitingButtonReply
	p.Variables["topic"] = "Billing"
	p.History = []string{"start", "hello", "menu"}
	p.LastInbound = "help me"
	p.UpdatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, name := range []string{"json", "msgpack"} {
		t.Run(name, func(t *testing.T) {
			c, err := codec.CodecByName(name)
			require.NoError(t, err)
			assert.Equal(t, name, c.Name())

			data, err := c.Encode(p)
			require.NoError(t, err)

			back, err := c.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, p.ConversationID, back.ConversationID)
			assert.Equal(t, p.Awaiting, back.Awaiting)
			assert.Equal(t, p.Variables, back.Variables)
			assert.Equal(t, p.History, back.History)
			assert.True(t, p.UpdatedAt.Equal(back.UpdatedAt))
		})
	}

	_, err := codec.CodecByName("xml")
	assert.Error(t, err)
}
