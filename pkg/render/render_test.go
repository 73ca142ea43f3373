package render_test

import (
	"testing"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestButtons(t *testing.T) {
	msg := render.Buttons("How can we help?", []string{"Track", "Cancel"})

	assert.Equal(t, domain.InteractiveButtons, msg.Kind)
	assert.Equal(t, []domain.Option{
		{ID: "handle-0", Title: "Track"},
		{ID: "handle-1", Title: "Cancel"},
	}, msg.Options)
	assert.Equal(t, "How can we help? [Buttons: Track, Cancel]", msg.Fallback)
}

func TestList(t *testing.T) {
	msg := render.List("Pick a size", "", []string{"S", "M", "L"})

	assert.Equal(t, domain.InteractiveList, msg.Kind)
	assert.Equal(t, domain.DefaultListButtonText, msg.ButtonText)
	require.Len(t, msg.Sections, 1)
	assert.Len(t, msg.Sections[0].Rows, 3)
	assert.Equal(t, "handle-2", msg.Sections[0].Rows[2].ID)
	assert.Equal(t, "Pick a size [List: S, M, L]", msg.Fallback)
}

func TestPrompt(t *testing.T) {
	act, ok := render.Prompt(domain.ButtonsData{Text: "raw", Buttons: []string{"A"}}, "resolved")
	require.True(t, ok)
	assert.Equal(t, domain.ActionSendInteractive, act.Type)
	assert.Equal(t, "resolved", act.Payload.(domain.InteractiveMessage).Body)

	_, ok = render.Prompt(domain.MessageData{Text: "x"}, "x")
	assert.False(t, ok)
}

func TestParseFallback(t *testing.T) {
	tests := []struct {
		name string
		text string
		ok   bool
		want render.Transcript
	}{
		{
			name: "buttons",
			text: "Choose [Buttons: Track, Cancel]",
			ok:   true,
			want: render.Transcript{Body: "Choose", Kind: domain.InteractiveButtons, Options: []string{"Track", "Cancel"}},
		},
		{
			name: "multiline list",
			text: "Menu\nfor today [List: Soup,  Salad ,Steak]",
			ok:   true,
			want: render.Transcript{Body: "Menu\nfor today", Kind: domain.InteractiveList, Options: []string{"Soup", "Salad", "Steak"}},
		},
		{name: "plain text", text: "just words", ok: false},
		{name: "bracket in middle", text: "a [Buttons: x] trailing", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := render.ParseFallback(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseFallback_ReversesRender(t *testing.T) {
	msg := render.Buttons("Rate us", []string{"Good", "Bad"})
	got, ok := render.ParseFallback(msg.Fallback)
	require.True(t, ok)
	assert.Equal(t, "Rate us", got.Body)
	assert.Equal(t, []string{"Good", "Bad"}, got.Options)
}
