package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/chatflow/pkg/codec"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/dsl"
)

func writeOrdersFlow(t *testing.T, ext string) string {
	t.Helper()
	b := dsl.New("orders")
	b.Add("start").Trigger("order").Go("menu")
	b.Add("menu").
		Buttons("What do you need?", "Track", "Talk to us").
		SaveTo("choice").
		Option(0, "track").
		Option(1, "human")
	b.Add("track").Message("Tracking your order, {{var.name}}.")
	b.Add("human").Agent()
	flow, err := b.Build()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "orders"+ext)
	require.NoError(t, codec.WriteFile(path, flow))
	return path
}

func simulate(t *testing.T, opts SimulateOptions, input string) string {
	t.Helper()
	var out bytes.Buffer
	opts.In = strings.NewReader(input)
	opts.Out = &out
	require.NoError(t, Simulate(context.Background(), opts))
	return out.String()
}

func TestSimulate_Transcript(t *testing.T) {
	path := writeOrdersFlow(t, ".yaml")

	out := simulate(t, SimulateOptions{
		FlowPath: path,
		Contact:  domain.Contact{Name: "Ana"},
	}, "hi\norder\n#1\n/quit\n")

	assert.Contains(t, out, `>>> Simulating "orders"`)
	assert.Contains(t, out, `>>> No flow matches. Send "order" to start.`)
	assert.Contains(t, out, "bot> What do you need?")
	assert.Contains(t, out, "#1 Track")
	assert.Contains(t, out, "#2 Talk to us")
	assert.Contains(t, out, "bot> Tracking your order, Ana.")
	assert.Contains(t, out, ">>> Flow completed.")
	assert.Contains(t, out, ">>> Bye!")
}

func TestSimulate_TimeoutAndResolve(t *testing.T) {
	path := writeOrdersFlow(t, ".json")

	out := simulate(t, SimulateOptions{FlowPath: path},
		"order\n/timeout\nhello\n/state\n/resolve\n/state\n")

	assert.Contains(t, out, ">>> Handed off to a human (reply_timeout).")
	assert.Contains(t, out, ">>> A human has this conversation.")
	assert.Contains(t, out, ">>> Paused at \"menu\"")
	assert.Contains(t, out, ">>> Conversation resolved.")
	assert.Contains(t, out, ">>> Idle.")
}

func TestSimulate_NoMatchReprompts(t *testing.T) {
	path := writeOrdersFlow(t, ".yaml")

	out := simulate(t, SimulateOptions{FlowPath: path}, "order\n#9\n")

	assert.Equal(t, 2, strings.Count(out, "bot> What do you need?"))
}

func TestSimulate_JSON(t *testing.T) {
	path := writeOrdersFlow(t, ".yaml")

	out := simulate(t, SimulateOptions{FlowPath: path, JSON: true},
		"{\"text\":\"order\"}\n\n{\"selectedOptionIndex\":1}\n")

	var outcomes []domain.Outcome
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var step struct {
			Outcome domain.Outcome `json:"outcome"`
			Actions []struct {
				Type string `json:"type"`
			} `json:"actions"`
		}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &step))
		outcomes = append(outcomes, step.Outcome)
	}
	assert.Equal(t, []domain.Outcome{domain.OutcomeAwaiting, domain.OutcomePaused}, outcomes)
}

func TestSimulate_InvalidJSONLine(t *testing.T) {
	path := writeOrdersFlow(t, ".yaml")
	err := Simulate(context.Background(), SimulateOptions{
		FlowPath: path,
		JSON:     true,
		In:       strings.NewReader("not json\n"),
		Out:      &bytes.Buffer{},
	})
	assert.ErrorContains(t, err, "invalid inbound event")
}

func TestNewSimulator_RejectsBrokenFlow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	flow := &domain.Flow{
		Name:  "broken",
		Nodes: []domain.Node{{ID: "a", Data: domain.MessageData{Text: "hi"}}},
	}
	require.NoError(t, codec.WriteFile(path, flow))

	_, err := NewSimulator(context.Background(), SimulateOptions{FlowPath: path, Out: &bytes.Buffer{}})
	assert.ErrorContains(t, err, "not runnable")
}

func TestNewSimulator_MissingFile(t *testing.T) {
	_, err := NewSimulator(context.Background(), SimulateOptions{
		FlowPath: filepath.Join(t.TempDir(), "nope.yaml"),
		Out:      &bytes.Buffer{},
	})
	assert.Error(t, err)
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		in    string
		index int
		ok    bool
	}{
		{"#1", 0, true},
		{"#10", 9, true},
		{"#0", 0, false},
		{"#x", 0, false},
		{"1", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			i, ok := parseSelection(tt.in)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.index, i)
			}
		})
	}
}
