package runtime

import (
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/render"
	"github.com/aretw0/chatflow/pkg/variables"
)

// resolve substitutes the conversation's variables into a template.
func (r *run) resolve(template string) string {
	return variables.Resolve(template, r.pos.Variables, r.pos.Contact)
}

func (r *run) textAction(template string) domain.ActionRequest {
	return render.Text(r.resolve(template))
}

// prompt renders the message a suspending node asks its question with.
func (r *run) prompt(n domain.Node) domain.ActionRequest {
	switch d := n.Data.(type) {
	case domain.AskTextData:
		return r.textAction(d.Text)
	case domain.Chooser:
		if action, ok := render.Prompt(d, r.resolve(d.Prompt())); ok {
			return action
		}
	}
	return r.textAction("")
}
