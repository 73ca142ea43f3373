package domain

import "time"

// ExecutionStatus defines the current mode of a conversation inside a flow.
type ExecutionStatus string

const (
	StatusActive    ExecutionStatus = "active"    // Mid auto-advance chain
	StatusAwaiting  ExecutionStatus = "awaiting"  // Suspended waiting for a reply
	StatusPaused    ExecutionStatus = "paused"    // Handed off to a human
	StatusCompleted ExecutionStatus = "completed" // Dead end reached, position is discarded
)

// Awaiting describes which kind of reply a suspended conversation expects.
type Awaiting string

const (
	AwaitingNone        Awaiting = "none"
	AwaitingButtonReply Awaiting = "buttonReply"
	AwaitingListReply   Awaiting = "listReply"
	AwaitingTextReply   Awaiting = "textReply"
)

// AwaitingFor returns the reply kind expected after entering a node of variant v.
func AwaitingFor(v Variant) Awaiting {
	switch v {
	case VariantButtons:
		return AwaitingButtonReply
	case VariantList:
		return AwaitingListReply
	case VariantAskText:
		return AwaitingTextReply
	default:
		return AwaitingNone
	}
}

// Phase is the interpreter state a conversation is in.
type Phase string

const (
	PhaseIdle                Phase = "Idle"
	PhaseAwaitingNone        Phase = "AwaitingNone"
	PhaseAwaitingButtonReply Phase = "AwaitingButtonReply"
	PhaseAwaitingListReply   Phase = "AwaitingListReply"
	PhaseAwaitingTextReply   Phase = "AwaitingTextReply"
	PhasePaused              Phase = "Paused"
	PhaseCompleted           Phase = "Completed"
)

// Position is the durable cursor of one conversation inside a flow.
type Position struct {
	ConversationID string            `json:"conversationId"`
	Tenant         string            `json:"tenant,omitempty"`
	FlowName       string            `json:"flowName"`
	CurrentNodeID  string            `json:"currentNodeId"`
	Variables      map[string]string `json:"variables"`
	Awaiting       Awaiting          `json:"awaiting"`
	Status         ExecutionStatus   `json:"status"`

	// Contact is the counterpart identity from the most recent inbound event.
	Contact Contact `json:"contact"`

	// LastInbound is the text of the most recent inbound message, read by condition nodes.
	LastInbound string `json:"lastInbound,omitempty"`

	// HandoffReason is set when Status is StatusPaused.
	HandoffReason string `json:"handoffReason,omitempty"`

	// History tracks the nodes entered, oldest first.
	History []string `json:"history,omitempty"`

	StartedAt time.Time `json:"startedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewPosition creates a position at the given node of a flow.
func NewPosition(conversationID, tenant, flowName, nodeID string) *Position {
	return &Position{
		ConversationID: conversationID,
		Tenant:         tenant,
		FlowName:       flowName,
		CurrentNodeID:  nodeID,
		Variables:      make(map[string]string),
		Awaiting:       AwaitingNone,
		Status:         StatusActive,
	}
}

// Snapshot returns a deep copy of the position.
func (p *Position) Snapshot() *Position {
	if p == nil {
		return nil
	}
	c := *p
	c.Variables = make(map[string]string, len(p.Variables))
	for k, v := range p.Variables {
		c.Variables[k] = v
	}
	c.History = append([]string(nil), p.History...)
	return &c
}

// Phase maps the position to its interpreter state. A nil position is Idle.
func (p *Position) Phase() Phase {
	if p == nil {
		return PhaseIdle
	}
	switch p.Status {
	case StatusPaused:
		return PhasePaused
	case StatusCompleted:
		return PhaseCompleted
	}
	switch p.Awaiting {
	case AwaitingButtonReply:
		return PhaseAwaitingButtonReply
	case AwaitingListReply:
		return PhaseAwaitingListReply
	case AwaitingTextReply:
		return PhaseAwaitingTextReply
	default:
		return PhaseAwaitingNone
	}
}

// Parked reports whether the conversation is waiting on an external event.
func (p *Position) Parked() bool {
	return p != nil && (p.Status == StatusAwaiting || p.Status == StatusPaused)
}
