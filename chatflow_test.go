package chatflow_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/chatflow"
	"github.com/aretw0/chatflow/pkg/adapters/memory"
	"github.com/aretw0/chatflow/pkg/conversation"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/dsl"
	"github.com/aretw0/chatflow/pkg/ports"
)

func buildFlow(t *testing.T, name, keyword string) *domain.Flow {
	t.Helper()
	b := dsl.New(name).Active()
	b.Add("start").Trigger(keyword).Go("ask")
	b.Add("ask").AskText("What is your order number?").SaveTo("order").Go("done")
	b.Add("done").Message("Looking up {{var.order}}.")
	flow, err := b.Build()
	require.NoError(t, err)
	return flow
}

type recorder struct {
	mu   sync.Mutex
	sent map[string][]domain.ActionRequest
}

func (r *recorder) Send(_ context.Context, conversationID string, actions []domain.ActionRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent == nil {
		r.sent = make(map[string][]domain.ActionRequest)
	}
	r.sent[conversationID] = append(r.sent[conversationID], actions...)
	return nil
}

func TestApp_DeliversThroughChannel(t *testing.T) {
	ch := &recorder{}
	positions := memory.NewPositionStore()
	app, err := chatflow.New(chatflow.WithChannel(ch), chatflow.WithPositionStore(positions))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, app.Flows().Put(ctx, buildFlow(t, "lookup", "status")))

	_, err = app.HandleInbound(ctx, domain.NewTextEvent("c1", "order status please"))
	require.NoError(t, err)

	pos, err := positions.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "ask", pos.CurrentNodeID)

	step, err := app.HandleInbound(ctx, domain.NewTextEvent("c1", "A-42"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCompleted, step.Outcome)

	_, err = positions.Load(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrPositionNotFound)

	require.Len(t, ch.sent["c1"], 2)
	assert.Equal(t, domain.TextMessage{Body: "Looking up A-42."}, ch.sent["c1"][1].Payload)
}

func TestApp_MergesLifecycleHooks(t *testing.T) {
	var first, second int
	app, err := chatflow.New(
		chatflow.WithLifecycleHooks(domain.LifecycleHooks{
			OnActivate: func(context.Context, *domain.ConversationEvent) { first++ },
		}),
		chatflow.WithLifecycleHooks(domain.LifecycleHooks{
			OnActivate: func(context.Context, *domain.ConversationEvent) { second++ },
		}),
	)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, app.Flows().Put(ctx, buildFlow(t, "lookup", "status")))
	_, err = app.HandleInbound(ctx, domain.NewTextEvent("c1", "status"))
	require.NoError(t, err)

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestApp_TimeoutAndResolve(t *testing.T) {
	app, err := chatflow.New()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, app.Flows().Put(ctx, buildFlow(t, "lookup", "status")))
	_, err = app.HandleInbound(ctx, domain.NewTextEvent("c1", "status"))
	require.NoError(t, err)

	step, err := app.Timeout(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomePaused, step.Outcome)

	step, err = app.HandleInbound(ctx, domain.NewTextEvent("c1", "hello?"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeIgnored, step.Outcome)

	require.NoError(t, app.Resolve(ctx, "c1"))
	_, err = app.Conversations().Position(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrPositionNotFound)
}

func TestApp_InterruptRestart(t *testing.T) {
	app, err := chatflow.New(chatflow.WithInterruptPolicy(conversation.InterruptRestart))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, app.Flows().Put(ctx, buildFlow(t, "lookup", "status")))
	require.NoError(t, app.Flows().Put(ctx, buildFlow(t, "refund", "refund")))

	_, err = app.HandleInbound(ctx, domain.NewTextEvent("c1", "status"))
	require.NoError(t, err)
	_, err = app.HandleInbound(ctx, domain.NewTextEvent("c1", "actually I want a refund"))
	require.NoError(t, err)

	pos, err := app.Conversations().Position(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "refund", pos.FlowName)
}

func TestApp_UsesProvidedRepository(t *testing.T) {
	flow := buildFlow(t, "lookup", "status")
	var repo ports.FlowRepository = memory.NewFlowRepository(flow)
	app, err := chatflow.New(chatflow.WithFlowRepository(repo))
	require.NoError(t, err)

	got, err := app.Router().Route(context.Background(), "", "status")
	require.NoError(t, err)
	assert.Equal(t, "lookup", got.Name)
	assert.NotNil(t, app.Interpreter())
}
