package runtime

import (
	"strings"

	"github.com/aretw0/chatflow/pkg/domain"
)

// reply matches ev against the prompt the conversation is parked on.
func (e *Engine) reply(r *run, original *domain.Position, node domain.Node, ev domain.InboundEvent) *domain.Step {
	switch d := node.Data.(type) {
	case domain.Chooser:
		i, ok := matchOption(d.Options(), ev)
		if !ok {
			return r.noMatch(original, node)
		}
		label := d.Options()[i]
		r.pos.LastInbound = label
		if ev.Text != nil && !ev.HasSelection() {
			r.pos.LastInbound = *ev.Text
		}
		r.capture(d.Target(), label)
		return r.take(node, domain.OptionHandle(i))

	case domain.AskTextData:
		if strings.TrimSpace(ev.Body()) == "" {
			return r.noMatch(original, node)
		}
		r.pos.LastInbound = ev.Body()
		r.capture(d.Variable, ev.Body())
		return r.take(node, "")
	}

	e.logger.Warn("Awaiting position points at a node that takes no reply",
		"flow", r.flow.Name,
		"conversation_id", r.pos.ConversationID,
		"node_id", node.ID,
		"variant", node.Variant(),
	)
	return r.complete()
}

// noMatch keeps the conversation parked where it was and, when enabled,
// re-emits the pending prompt.
func (r *run) noMatch(original *domain.Position, node domain.Node) *domain.Step {
	r.e.logger.Debug("Reply matches no transition",
		"flow", r.flow.Name,
		"conversation_id", original.ConversationID,
		"node_id", node.ID,
	)
	if r.e.hooks.OnNoMatch != nil {
		r.e.hooks.OnNoMatch(r.ctx, r.conversationEvent(domain.EventNoMatch, domain.ErrNoMatch.Error()))
	}

	step := &domain.Step{Position: original.Snapshot(), Outcome: domain.OutcomeNoMatch}
	if r.e.reprompt {
		step.Actions = []domain.ActionRequest{r.prompt(node)}
	}
	return step
}

func (r *run) capture(variable, value string) {
	if variable == "" {
		return
	}
	if r.pos.Variables == nil {
		r.pos.Variables = make(map[string]string)
	}
	r.pos.Variables[variable] = value
}

// matchOption resolves a reply to an option index. A structured selection
// wins over text; an out-of-range selection is no match.
func matchOption(options []string, ev domain.InboundEvent) (int, bool) {
	switch {
	case ev.SelectedOptionIndex != nil:
		i := *ev.SelectedOptionIndex
		return i, i >= 0 && i < len(options)
	case ev.SelectedOptionID != "":
		if i, ok := domain.ParseOptionHandle(ev.SelectedOptionID); ok {
			return i, i < len(options)
		}
		return matchLabel(options, ev.SelectedOptionID)
	case ev.Text != nil:
		return matchLabel(options, *ev.Text)
	}
	return 0, false
}

func matchLabel(options []string, text string) (int, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	for i, label := range options {
		if strings.EqualFold(strings.TrimSpace(label), text) {
			return i, true
		}
	}
	return 0, false
}
