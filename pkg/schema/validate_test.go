package schema_test

import (
	"testing"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateNode(t *testing.T) {
	tests := []struct {
		name    string
		node    domain.Node
		wantErr bool
	}{
		{"valid buttons", domain.Node{ID: "b", Data: domain.ButtonsData{Text: "Pick", Buttons: []string{"A"}}}, false},
		{"four buttons", domain.Node{ID: "b", Data: domain.ButtonsData{Text: "Pick", Buttons: []string{"A", "B", "C", "D"}}}, true},
		{"pointer payload", domain.Node{ID: "m", Data: &domain.MessageData{Text: "x"}}, true},
		{"missing payload", domain.Node{ID: "m"}, true},
		{"missing id", domain.Node{Data: domain.AgentData{}}, true},
		{"condition operator", domain.Node{ID: "c", Data: domain.ConditionData{Field: "message", Operator: "regex"}}, true},
		{"empty trigger keyword is left to the validator", domain.Node{ID: "t", Data: domain.TriggerData{}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.ValidateNode(tt.node)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFlow_Aggregates(t *testing.T) {
	f := &domain.Flow{
		Name: "broken",
		Nodes: []domain.Node{
			{ID: "m1", Data: domain.MessageData{}},
			{ID: "b1", Data: domain.ButtonsData{Text: "x"}},
			{ID: "ok", Data: domain.AgentData{}},
		},
	}

	err := schema.ValidateFlow(f)
	require.Error(t, err)

	var aggr *schema.AggregateError
	require.ErrorAs(t, err, &aggr)

	errs := schema.SchemaErrors(err)
	require.Len(t, errs, 2)
	assert.Equal(t, "m1", errs[0].NodeID)
	assert.Equal(t, "b1", errs[1].NodeID)
	assert.Contains(t, err.Error(), "2 schema errors")
}
