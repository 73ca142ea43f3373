package runtime

import (
	"context"
	"strings"

	"github.com/aretw0/chatflow/pkg/domain"
)

// run holds the mutable state of handling one event.
type run struct {
	e       *Engine
	ctx     context.Context
	flow    *domain.Flow
	pos     *domain.Position
	actions []domain.ActionRequest
	steps   int
}

func (e *Engine) newRun(ctx context.Context, flow *domain.Flow, pos *domain.Position) *run {
	return &run{e: e, ctx: ctx, flow: flow, pos: pos}
}

// advance enters n and keeps walking until the conversation suspends,
// pauses or completes.
func (r *run) advance(n domain.Node) *domain.Step {
	for {
		if r.steps >= r.e.maxSteps {
			r.e.logger.Warn("Step limit reached during auto-advance",
				"flow", r.flow.Name,
				"conversation_id", r.pos.ConversationID,
				"node_id", r.pos.CurrentNodeID,
				"max_steps", r.e.maxSteps,
			)
			return r.pause(domain.HandoffStepLimit)
		}
		r.enter(n)

		var (
			next domain.Node
			ok   bool
		)
		switch d := n.Data.(type) {
		case domain.ButtonsData, domain.ListData, domain.AskTextData:
			return r.suspend(n)
		case domain.AgentData:
			return r.pause(domain.HandoffAgentNode)
		case domain.ConditionData:
			r.leave(n)
			next, ok = r.flow.Next(n.ID, domain.ConditionHandle(r.evaluate(d)))
		case domain.MessageData:
			r.emit(r.textAction(d.Text))
			r.leave(n)
			next, ok = r.single(n.ID)
		default:
			// Triggers pass straight through to their target.
			r.leave(n)
			next, ok = r.single(n.ID)
		}
		if !ok {
			return r.complete()
		}
		n = next
	}
}

// take leaves n through handle and advances to the target. An empty handle
// follows the node's single exit.
func (r *run) take(n domain.Node, handle string) *domain.Step {
	r.leave(n)
	var (
		next domain.Node
		ok   bool
	)
	if handle == "" {
		next, ok = r.single(n.ID)
	} else {
		next, ok = r.flow.Next(n.ID, handle)
	}
	if !ok {
		return r.complete()
	}
	return r.advance(next)
}

func (r *run) single(id string) (domain.Node, bool) {
	edges := r.flow.Outgoing(id)
	if len(edges) == 0 {
		return domain.Node{}, false
	}
	return r.flow.Node(edges[0].Target)
}

func (r *run) enter(n domain.Node) {
	r.steps++
	r.pos.CurrentNodeID = n.ID
	r.pos.Status = domain.StatusActive
	r.pos.Awaiting = domain.AwaitingNone
	r.pos.History = append(r.pos.History, n.ID)
	if r.e.hooks.OnNodeEnter != nil {
		r.e.hooks.OnNodeEnter(r.ctx, r.nodeEvent(domain.EventNodeEnter, n))
	}
}

func (r *run) leave(n domain.Node) {
	if r.e.hooks.OnNodeLeave != nil {
		r.e.hooks.OnNodeLeave(r.ctx, r.nodeEvent(domain.EventNodeLeave, n))
	}
}

func (r *run) suspend(n domain.Node) *domain.Step {
	r.emit(r.prompt(n))
	r.pos.Status = domain.StatusAwaiting
	r.pos.Awaiting = domain.AwaitingFor(n.Variant())
	return r.step(domain.OutcomeAwaiting)
}

func (r *run) pause(reason string) *domain.Step {
	r.pos.Status = domain.StatusPaused
	r.pos.Awaiting = domain.AwaitingNone
	r.pos.HandoffReason = reason
	r.emit(domain.ActionRequest{
		Type: domain.ActionHandoff,
		Payload: domain.Handoff{
			FlowName: r.flow.Name,
			NodeID:   r.pos.CurrentNodeID,
			Reason:   reason,
		},
	})

	r.e.logger.Info("Conversation handed off",
		"flow", r.flow.Name,
		"conversation_id", r.pos.ConversationID,
		"node_id", r.pos.CurrentNodeID,
		"reason", reason,
	)
	if r.e.hooks.OnHandoff != nil {
		r.e.hooks.OnHandoff(r.ctx, r.conversationEvent(domain.EventHandoff, reason))
	}
	return r.step(domain.OutcomePaused)
}

func (r *run) complete() *domain.Step {
	r.pos.Status = domain.StatusCompleted
	r.pos.Awaiting = domain.AwaitingNone

	r.e.logger.Debug("Conversation completed",
		"flow", r.flow.Name,
		"conversation_id", r.pos.ConversationID,
		"node_id", r.pos.CurrentNodeID,
	)
	if r.e.hooks.OnComplete != nil {
		r.e.hooks.OnComplete(r.ctx, r.conversationEvent(domain.EventComplete, ""))
	}
	return r.step(domain.OutcomeCompleted)
}

func (r *run) emit(a domain.ActionRequest) {
	r.actions = append(r.actions, a)
}

func (r *run) step(outcome domain.Outcome) *domain.Step {
	return &domain.Step{Position: r.pos, Actions: r.actions, Outcome: outcome}
}

// evaluate applies a condition to the last inbound message.
func (r *run) evaluate(d domain.ConditionData) bool {
	subject := r.pos.LastInbound
	value := r.resolve(d.Value)
	if d.Operator == domain.OperatorEquals {
		return strings.EqualFold(strings.TrimSpace(subject), strings.TrimSpace(value))
	}
	return strings.Contains(strings.ToLower(subject), strings.ToLower(value))
}

func (r *run) nodeEvent(t domain.EventType, n domain.Node) *domain.NodeEvent {
	return &domain.NodeEvent{
		EventBase: domain.EventBase{
			Timestamp:      r.e.now(),
			Type:           t,
			ConversationID: r.pos.ConversationID,
		},
		FlowName: r.flow.Name,
		NodeID:   n.ID,
		Variant:  n.Variant(),
	}
}

func (r *run) conversationEvent(t domain.EventType, reason string) *domain.ConversationEvent {
	return &domain.ConversationEvent{
		EventBase: domain.EventBase{
			Timestamp:      r.e.now(),
			Type:           t,
			ConversationID: r.pos.ConversationID,
		},
		FlowName: r.flow.Name,
		NodeID:   r.pos.CurrentNodeID,
		Reason:   reason,
	}
}
