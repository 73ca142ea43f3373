package domain

// Variant tags the kind of a node. The set is closed.
type Variant string

const (
	// VariantTrigger is the entry point matched against inbound keywords.
	VariantTrigger Variant = "trigger"
	// VariantMessage sends text and continues immediately (soft step).
	VariantMessage Variant = "message"
	// VariantButtons presents up to three quick replies and suspends.
	VariantButtons Variant = "buttons"
	// VariantList presents up to ten menu items and suspends.
	VariantList Variant = "list"
	// VariantAskText asks a free-text question and suspends.
	VariantAskText Variant = "askText"
	// VariantCondition branches on the last inbound message (silent step).
	VariantCondition Variant = "condition"
	// VariantAgent hands the conversation to a human.
	VariantAgent Variant = "agent"
)

// Variants lists every known variant in a stable order.
var Variants = []Variant{
	VariantTrigger,
	VariantMessage,
	VariantButtons,
	VariantList,
	VariantAskText,
	VariantCondition,
	VariantAgent,
}

// Valid reports whether v is one of the known variants.
func (v Variant) Valid() bool {
	for _, known := range Variants {
		if v == known {
			return true
		}
	}
	return false
}

// Suspends reports whether entering a node of this variant yields control
// back to the caller until the next inbound event.
func (v Variant) Suspends() bool {
	return v == VariantButtons || v == VariantList || v == VariantAskText
}

// Payload limits enforced by the schema library and echoed by the channel.
const (
	MaxButtons   = 3
	MaxListItems = 10

	DefaultListButtonText = "View Options"
)

// Condition fields and operators.
const (
	FieldMessage = "message"

	OperatorContains = "contains"
	OperatorEquals   = "equals"
)

// Payload is the typed data carried by a node. Each variant has exactly one
// payload type.
type Payload interface {
	Variant() Variant
}

// Chooser is implemented by payloads that present an ordered set of options.
type Chooser interface {
	Payload
	Prompt() string
	Options() []string
	Target() string
}

// TriggerData is the payload of a trigger node.
type TriggerData struct {
	Keyword string `json:"keyword" yaml:"keyword" mapstructure:"keyword"`
}

// MessageData is the payload of a message node. Text may contain placeholders.
type MessageData struct {
	Text string `json:"text" yaml:"text" mapstructure:"text" validate:"required"`
}

// ButtonsData is the payload of a buttons node.
type ButtonsData struct {
	Text     string   `json:"text" yaml:"text" mapstructure:"text" validate:"required"`
	Buttons  []string `json:"buttons" yaml:"buttons" mapstructure:"buttons" validate:"min=1,max=3,dive,required"`
	Variable string   `json:"variable,omitempty" yaml:"variable,omitempty" mapstructure:"variable,omitempty" validate:"omitempty,varname"`
}

// ListData is the payload of a list node.
type ListData struct {
	Text       string   `json:"text" yaml:"text" mapstructure:"text" validate:"required"`
	ButtonText string   `json:"buttonText" yaml:"buttonText" mapstructure:"buttonText" validate:"required"`
	Items      []string `json:"items" yaml:"items" mapstructure:"items" validate:"min=1,max=10,dive,required"`
	Variable   string   `json:"variable,omitempty" yaml:"variable,omitempty" mapstructure:"variable,omitempty" validate:"omitempty,varname"`
}

// AskTextData is the payload of an askText node.
type AskTextData struct {
	Text     string `json:"text" yaml:"text" mapstructure:"text" validate:"required"`
	Variable string `json:"variable,omitempty" yaml:"variable,omitempty" mapstructure:"variable,omitempty" validate:"omitempty,varname"`
}

// ConditionData is the payload of a condition node.
type ConditionData struct {
	Field    string `json:"field" yaml:"field" mapstructure:"field" validate:"oneof=message"`
	Operator string `json:"operator" yaml:"operator" mapstructure:"operator" validate:"oneof=contains equals"`
	Value    string `json:"value" yaml:"value" mapstructure:"value"`
}

// AgentData is the (empty) payload of an agent node.
type AgentData struct{}

func (TriggerData) Variant() Variant   { return VariantTrigger }
func (MessageData) Variant() Variant   { return VariantMessage }
func (ButtonsData) Variant() Variant   { return VariantButtons }
func (ListData) Variant() Variant      { return VariantList }
func (AskTextData) Variant() Variant   { return VariantAskText }
func (ConditionData) Variant() Variant { return VariantCondition }
func (AgentData) Variant() Variant     { return VariantAgent }

func (d ButtonsData) Prompt() string    { return d.Text }
func (d ButtonsData) Options() []string { return d.Buttons }
func (d ButtonsData) Target() string    { return d.Variable }

func (d ListData) Prompt() string    { return d.Text }
func (d ListData) Options() []string { return d.Items }
func (d ListData) Target() string    { return d.Variable }

// Point is a layout hint produced by the editor. It has no runtime meaning.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node represents a logical unit in the graph.
type Node struct {
	ID       string
	Data     Payload
	Position Point
}

// Variant returns the tag of the node's payload, or "" when it has none.
func (n Node) Variant() Variant {
	if n.Data == nil {
		return ""
	}
	return n.Data.Variant()
}

// Clone returns a copy of the node that shares no slices with the original.
func (n Node) Clone() Node {
	switch d := n.Data.(type) {
	case ButtonsData:
		d.Buttons = append([]string(nil), d.Buttons...)
		n.Data = d
	case ListData:
		d.Items = append([]string(nil), d.Items...)
		n.Data = d
	}
	return n
}
