package dsl

import "github.com/aretw0/chatflow/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

// Trigger marks the node as the entry point matched by keyword.
func (n *NodeBuilder) Trigger(keyword string) *NodeBuilder {
	n.node.Data = domain.TriggerData{Keyword: keyword}
	return n
}

// Message makes the node send text and continue (soft step).
func (n *NodeBuilder) Message(text string) *NodeBuilder {
	n.node.Data = domain.MessageData{Text: text}
	return n
}

// Buttons makes the node present quick replies and wait (hard step).
func (n *NodeBuilder) Buttons(text string, buttons ...string) *NodeBuilder {
	n.node.Data = domain.ButtonsData{Text: text, Buttons: buttons}
	return n
}

// List makes the node present a menu and wait (hard step).
func (n *NodeBuilder) List(text, buttonText string, items ...string) *NodeBuilder {
	n.node.Data = domain.ListData{Text: text, ButtonText: buttonText, Items: items}
	return n
}

// AskText makes the node ask a free-text question and wait (hard step).
func (n *NodeBuilder) AskText(text string) *NodeBuilder {
	n.node.Data = domain.AskTextData{Text: text}
	return n
}

// Condition makes the node branch on the last inbound message.
func (n *NodeBuilder) Condition(operator, value string) *NodeBuilder {
	n.node.Data = domain.ConditionData{Field: domain.FieldMessage, Operator: operator, Value: value}
	return n
}

// Agent makes the node hand the conversation to a human.
func (n *NodeBuilder) Agent() *NodeBuilder {
	n.node.Data = domain.AgentData{}
	return n
}

// SaveTo specifies the variable the reply is captured into.
// It has no effect on nodes that do not collect a reply.
func (n *NodeBuilder) SaveTo(variable string) *NodeBuilder {
	switch d := n.node.Data.(type) {
	case domain.ButtonsData:
		d.Variable = variable
		n.node.Data = d
	case domain.ListData:
		d.Variable = variable
		n.node.Data = d
	case domain.AskTextData:
		d.Variable = variable
		n.node.Data = d
	}
	return n
}

// At sets the editor layout hint.
func (n *NodeBuilder) At(x, y float64) *NodeBuilder {
	n.node.Position = domain.Point{X: x, Y: y}
	return n
}

// Go adds an unconditional edge to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.builder.connect(n.node.ID, target, "")
	return n
}

// Option connects the option at index i to the target node.
func (n *NodeBuilder) Option(i int, target string) *NodeBuilder {
	n.builder.connect(n.node.ID, target, domain.OptionHandle(i))
	return n
}

// Then connects the branch taken when a condition holds.
func (n *NodeBuilder) Then(target string) *NodeBuilder {
	n.builder.connect(n.node.ID, target, domain.ConditionHandle(true))
	return n
}

// Else connects the branch taken when a condition does not hold.
func (n *NodeBuilder) Else(target string) *NodeBuilder {
	n.builder.connect(n.node.ID, target, domain.ConditionHandle(false))
	return n
}
