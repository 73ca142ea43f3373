package domain

import (
	"context"
	"time"
)

// Contact identifies the counterpart of a conversation.
type Contact struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// InboundEvent is a message or selection received from the messaging channel.
// A structured selection takes precedence over Text when both are present.
type InboundEvent struct {
	ConversationID      string    `json:"conversationId"`
	Tenant              string    `json:"tenant,omitempty"`
	Text                *string   `json:"text,omitempty"`
	SelectedOptionIndex *int      `json:"selectedOptionIndex,omitempty"`
	SelectedOptionID    string    `json:"selectedOptionId,omitempty"`
	Contact             Contact   `json:"contact"`
	ReceivedAt          time.Time `json:"receivedAt,omitempty"`
}

// NewTextEvent builds an inbound event carrying only a text body.
func NewTextEvent(conversationID, text string) InboundEvent {
	return InboundEvent{ConversationID: conversationID, Text: &text}
}

// NewSelectionEvent builds an inbound event carrying only an option index.
func NewSelectionEvent(conversationID string, index int) InboundEvent {
	return InboundEvent{ConversationID: conversationID, SelectedOptionIndex: &index}
}

// Body returns the text of the event, or "" when there is none.
func (e InboundEvent) Body() string {
	if e.Text == nil {
		return ""
	}
	return *e.Text
}

// HasSelection reports whether the event carries a structured selection.
func (e InboundEvent) HasSelection() bool {
	return e.SelectedOptionIndex != nil || e.SelectedOptionID != ""
}

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter         EventType = "node_enter"
	EventNodeLeave         EventType = "node_leave"
	EventActivate          EventType = "activate"
	EventNoMatch           EventType = "no_match"
	EventHandoff           EventType = "handoff"
	EventComplete          EventType = "complete"
	EventRoutingAmbiguity  EventType = "routing_ambiguity"
	EventConversationReset EventType = "conversation_reset"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp      time.Time `json:"timestamp"`
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversation_id,omitempty"`
}

// NodeEvent represents entry or exit from a node.
type NodeEvent struct {
	EventBase
	FlowName string  `json:"flow_name"`
	NodeID   string  `json:"node_id"`
	Variant  Variant `json:"variant"`
}

// ConversationEvent represents a change in a conversation's lifecycle.
type ConversationEvent struct {
	EventBase
	FlowName string `json:"flow_name"`
	NodeID   string `json:"node_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// RoutingAmbiguity records that several active flows matched one inbound message.
type RoutingAmbiguity struct {
	EventBase
	Tenant     string   `json:"tenant"`
	Text       string   `json:"text"`
	Candidates []string `json:"candidates"`
	Selected   string   `json:"selected"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnNodeEnter        func(context.Context, *NodeEvent)
	OnNodeLeave        func(context.Context, *NodeEvent)
	OnActivate         func(context.Context, *ConversationEvent)
	OnNoMatch          func(context.Context, *ConversationEvent)
	OnHandoff          func(context.Context, *ConversationEvent)
	OnComplete         func(context.Context, *ConversationEvent)
	OnReset            func(context.Context, *ConversationEvent)
	OnRoutingAmbiguity func(context.Context, *RoutingAmbiguity)
}

// Merge returns hooks that call h first and then other for every callback.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter:        chain(h.OnNodeEnter, other.OnNodeEnter),
		OnNodeLeave:        chain(h.OnNodeLeave, other.OnNodeLeave),
		OnActivate:         chain(h.OnActivate, other.OnActivate),
		OnNoMatch:          chain(h.OnNoMatch, other.OnNoMatch),
		OnHandoff:          chain(h.OnHandoff, other.OnHandoff),
		OnComplete:         chain(h.OnComplete, other.OnComplete),
		OnReset:            chain(h.OnReset, other.OnReset),
		OnRoutingAmbiguity: chain(h.OnRoutingAmbiguity, other.OnRoutingAmbiguity),
	}
}

func chain[T any](a, b func(context.Context, T)) func(context.Context, T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, v T) {
		a(ctx, v)
		b(ctx, v)
	}
}
