package domain

// ActionRequest represents a message the engine asks the host to send.
type ActionRequest struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Standard Action Types
const (
	// ActionSendText requests a plain text message.
	// Payload: TextMessage
	ActionSendText = "SEND_TEXT"

	// ActionSendInteractive requests a buttons or list message.
	// Payload: InteractiveMessage
	ActionSendInteractive = "SEND_INTERACTIVE"

	// ActionHandoff requests that a human takes over the conversation.
	// Payload: Handoff
	ActionHandoff = "HANDOFF"
)

// TextMessage is the payload of ActionSendText.
type TextMessage struct {
	Body string `json:"body"`
}

// InteractiveKind distinguishes quick-reply buttons from list menus.
type InteractiveKind string

const (
	InteractiveButtons InteractiveKind = "buttons"
	InteractiveList    InteractiveKind = "list"
)

// Option is one selectable entry of an interactive message.
// ID is the handle of the edge the option leads through.
type Option struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Section groups list rows. Lists are always rendered with a single section.
type Section struct {
	Title string   `json:"title,omitempty"`
	Rows  []Option `json:"rows"`
}

// InteractiveMessage is the payload of ActionSendInteractive.
type InteractiveMessage struct {
	Kind       InteractiveKind `json:"kind"`
	Body       string          `json:"body"`
	ButtonText string          `json:"buttonText,omitempty"`
	Options    []Option        `json:"options,omitempty"`
	Sections   []Section       `json:"sections,omitempty"`

	// Fallback is the plain-text rendering kept by text-only transcripts.
	Fallback string `json:"fallback"`
}

// Handoff reasons.
const (
	HandoffAgentNode    = "agent_node"
	HandoffReplyTimeout = "reply_timeout"
	HandoffStepLimit    = "step_limit"
)

// Handoff is the payload of ActionHandoff.
type Handoff struct {
	FlowName string `json:"flowName"`
	NodeID   string `json:"nodeId"`
	Reason   string `json:"reason"`
}
