package tui_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/chatflow/internal/presentation/tui"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/validator"
)

func sampleFlow() *domain.Flow {
	return &domain.Flow{
		Tenant:         "acme",
		Name:           "orders",
		TriggerKeyword: "order",
		IsActive:       true,
		Nodes: []domain.Node{
			{ID: "start", Data: domain.TriggerData{Keyword: "order"}},
			{ID: "menu", Data: domain.ButtonsData{Text: "Pick | one", Buttons: []string{"Track", "Cancel"}}},
			{ID: "ask", Data: domain.AskTextData{Text: "Order number?", Variable: "order_id"}},
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "start", Target: "menu"},
			{ID: "e2", Source: "menu", Target: "ask", SourceHandle: "handle-0"},
		},
	}
}

func TestMarkdown(t *testing.T) {
	f := sampleFlow()
	md := tui.Markdown(f, validator.Validate(f))

	assert.Contains(t, md, "# orders")
	assert.Contains(t, md, "- **Tenant:** acme")
	assert.Contains(t, md, "- **Status:** active")
	assert.Contains(t, md, "| `menu` | buttons | Pick \\| one [Track / Cancel] | handle-0 → `ask` |")
	assert.Contains(t, md, "Order number? → `order_id`")
	assert.Contains(t, md, "| `start` | trigger | keyword `order` | `menu` |")
}

func TestMarkdown_Issues(t *testing.T) {
	f := sampleFlow()
	report := validator.Report{
		{Kind: validator.KindMissingTrigger, Severity: validator.SeverityError, Message: "no trigger"},
		{Kind: validator.KindOrphan, Severity: validator.SeverityWarning, Message: "lonely"},
	}
	md := tui.Markdown(f, report)
	assert.Contains(t, md, "- ❌ **missing_trigger** no trigger")
	assert.Contains(t, md, "- ⚠️ **orphan_node** lonely")

	assert.Contains(t, tui.Markdown(f, nil), "No issues found.")
}

func TestDescribe_PlainWhenNotATerminal(t *testing.T) {
	f := sampleFlow()
	// go test does not attach stdout to a terminal.
	assert.Equal(t, tui.Markdown(f, nil), tui.Describe(f, nil))
}

func TestNewRenderer(t *testing.T) {
	render, err := tui.NewRenderer(60)
	require.NoError(t, err)
	out, err := render("# Title\n\nbody")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|_|")
}
