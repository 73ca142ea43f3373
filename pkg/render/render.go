// Package render turns prompts into channel payloads and back.
//
// Buttons and lists are rendered as interactive messages whose option ids are
// the handles of the edges they lead through. Every interactive message also
// carries a plain-text fallback, "<text> [Buttons: a, b]" or
// "<text> [List: a, b]", which ParseFallback reverses for transcript stores
// that keep only text.
package render

import (
	"regexp"
	"strings"

	"github.com/aretw0/chatflow/pkg/domain"
)

const (
	buttonsLabel = "Buttons"
	listLabel    = "List"
)

// Text builds a plain text action.
func Text(body string) domain.ActionRequest {
	return domain.ActionRequest{
		Type:    domain.ActionSendText,
		Payload: domain.TextMessage{Body: body},
	}
}

// Buttons renders a quick-reply message with ordered options.
func Buttons(body string, labels []string) domain.InteractiveMessage {
	return domain.InteractiveMessage{
		Kind:     domain.InteractiveButtons,
		Body:     body,
		Options:  options(labels),
		Fallback: Fallback(domain.InteractiveButtons, body, labels),
	}
}

// List renders a single-section menu.
func List(body, buttonText string, items []string) domain.InteractiveMessage {
	if strings.TrimSpace(buttonText) == "" {
		buttonText = domain.DefaultListButtonText
	}
	return domain.InteractiveMessage{
		Kind:       domain.InteractiveList,
		Body:       body,
		ButtonText: buttonText,
		Sections:   []domain.Section{{Rows: options(items)}},
		Fallback:   Fallback(domain.InteractiveList, body, items),
	}
}

// Prompt renders the interactive message of a buttons or list payload with
// an already-resolved body.
func Prompt(payload domain.Payload, body string) (domain.ActionRequest, bool) {
	var msg domain.InteractiveMessage
	switch d := payload.(type) {
	case domain.ButtonsData:
		msg = Buttons(body, d.Buttons)
	case domain.ListData:
		msg = List(body, d.ButtonText, d.Items)
	default:
		return domain.ActionRequest{}, false
	}
	return domain.ActionRequest{Type: domain.ActionSendInteractive, Payload: msg}, true
}

// Fallback flattens an interactive message into text.
func Fallback(kind domain.InteractiveKind, body string, labels []string) string {
	label := buttonsLabel
	if kind == domain.InteractiveList {
		label = listLabel
	}
	return body + " [" + label + ": " + strings.Join(labels, ", ") + "]"
}

func options(labels []string) []domain.Option {
	out := make([]domain.Option, len(labels))
	for i, l := range labels {
		out[i] = domain.Option{ID: domain.OptionHandle(i), Title: l}
	}
	return out
}

// Transcript is an interactive message reconstructed from its fallback text.
type Transcript struct {
	Body    string
	Kind    domain.InteractiveKind
	Options []string
}

var fallbackPattern = regexp.MustCompile(`^([\s\S]*?) \[(Buttons|List): ([\s\S]*?)\]$`)

// ParseFallback reverses Fallback. It reports false for ordinary text.
func ParseFallback(text string) (Transcript, bool) {
	m := fallbackPattern.FindStringSubmatch(text)
	if m == nil {
		return Transcript{}, false
	}
	t := Transcript{Body: m[1], Kind: domain.InteractiveButtons}
	if m[2] == listLabel {
		t.Kind = domain.InteractiveList
	}
	for _, part := range strings.Split(m[3], ",") {
		if opt := strings.TrimSpace(part); opt != "" {
			t.Options = append(t.Options, opt)
		}
	}
	return t, true
}
