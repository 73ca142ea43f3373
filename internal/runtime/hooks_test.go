package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/chatflow/internal/runtime"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestEngine_LifecycleHooks(t *testing.T) {
	flow := flowOf("greet",
		[]domain.Node{
			{ID: "t", Data: domain.TriggerData{Keyword: "hi"}},
			{ID: "welcome", Data: domain.MessageData{Text: "Welcome"}},
			{ID: "human", Data: domain.AgentData{}},
		},
		edge("e1", "t", "welcome", ""),
		edge("e2", "welcome", "human", ""),
	)

	var trace []string
	record := func(prefix string) func(context.Context, *domain.NodeEvent) {
		return func(ctx context.Context, e *domain.NodeEvent) {
			trace = append(trace, prefix+":"+e.NodeID)
		}
	}
	hooks := domain.LifecycleHooks{
		OnNodeEnter: record("enter"),
		OnNodeLeave: record("leave"),
		OnActivate: func(ctx context.Context, e *domain.ConversationEvent) {
			trace = append(trace, "activate:"+e.FlowName)
		},
		OnHandoff: func(ctx context.Context, e *domain.ConversationEvent) {
			trace = append(trace, "handoff:"+e.Reason)
		},
	}

	_, err := runtime.NewEngine(runtime.WithLifecycleHooks(hooks)).Activate(context.Background(), flow, text("c1", "hi"))
	assert.NoError(t, err)
	assert.Equal(t, []string{
		"activate:greet",
		"enter:t", "leave:t",
		"enter:welcome", "leave:welcome",
		"enter:human",
		"handoff:agent_node",
	}, trace)
}

func TestEngine_CompleteHook(t *testing.T) {
	var completed *domain.ConversationEvent
	engine := runtime.NewEngine(runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnComplete: func(ctx context.Context, e *domain.ConversationEvent) { completed = e },
	}))

	_, err := engine.Activate(context.Background(), orderFlow(), domain.InboundEvent{ConversationID: "c9", Text: ptr("order")})
	assert.NoError(t, err)
	assert.Nil(t, completed, "suspending is not completing")

	flow := flowOf("once", []domain.Node{
		{ID: "t", Data: domain.TriggerData{Keyword: "once"}},
		{ID: "m", Data: domain.MessageData{Text: "bye"}},
	}, edge("e1", "t", "m", ""))
	_, err = engine.Activate(context.Background(), flow, text("c9", "once"))
	assert.NoError(t, err)
	if assert.NotNil(t, completed) {
		assert.Equal(t, "c9", completed.ConversationID)
		assert.Equal(t, "m", completed.NodeID)
		assert.Equal(t, domain.EventComplete, completed.Type)
	}
}
