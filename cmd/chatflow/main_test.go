package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/chatflow"
	"github.com/aretw0/chatflow/internal/config"
	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/adapters/file"
	"github.com/aretw0/chatflow/pkg/codec"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/dsl"
)

// execute runs the CLI in an empty working directory so no local
// chatflow.yaml or .env leaks into the test.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func ordersFlow(t *testing.T) *domain.Flow {
	t.Helper()
	b := dsl.New("orders").Active()
	b.Add("start").Trigger("order").Go("menu")
	b.Add("menu").
		Buttons("What do you need?", "Track", "Talk to us").
		Option(0, "track").
		Option(1, "human")
	b.Add("track").Message("Tracking your order, {{var.name}}.")
	b.Add("human").Agent()
	flow, err := b.Build()
	require.NoError(t, err)
	return flow
}

func writeFlow(t *testing.T, dir string, flow *domain.Flow) string {
	t.Helper()
	path := filepath.Join(dir, flow.Name+".yaml")
	require.NoError(t, codec.WriteFile(path, flow))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "chatflow version "+chatflow.Version+"\n", out)
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "chatflow version "+chatflow.Version)
}

func TestInvalidConfigFails(t *testing.T) {
	t.Setenv("CHATFLOW_LOG_LEVEL", "loud")
	path := writeFlow(t, t.TempDir(), ordersFlow(t))

	_, err := execute(t, "", "validate", path)
	assert.ErrorContains(t, err, "log.level")
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeFlow(t, dir, ordersFlow(t))
	broken := writeFlow(t, dir, &domain.Flow{
		Name:  "broken",
		Nodes: []domain.Node{{ID: "a", Data: domain.MessageData{Text: "hi"}}},
	})

	t.Run("valid", func(t *testing.T) {
		out, err := execute(t, "", "validate", good)
		require.NoError(t, err)
		assert.Contains(t, out, `flow "orders" is valid`)
	})

	t.Run("invalid", func(t *testing.T) {
		out, err := execute(t, "", "validate", good, broken)
		assert.ErrorContains(t, err, "1 of 2 flows failed validation")
		assert.Contains(t, out, "missing_trigger")
		assert.Contains(t, out, `flow "broken" is invalid`)
	})

	t.Run("unreadable", func(t *testing.T) {
		_, err := execute(t, "", "validate", filepath.Join(dir, "nope.json"))
		assert.Error(t, err)
	})
}

func TestGraph_File(t *testing.T) {
	path := writeFlow(t, t.TempDir(), ordersFlow(t))

	out, err := execute(t, "", "graph", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `menu -- "Track" --> track`)
	assert.NotContains(t, out, "classDef")
}

func TestGraph_StoredFlowWithOverlay(t *testing.T) {
	storeDir := t.TempDir()
	t.Setenv("CHATFLOW_STORE_DRIVER", "file")
	t.Setenv("CHATFLOW_STORE_DIR", storeDir)

	ctx := context.Background()
	flows := file.NewFlowRepository(filepath.Join(storeDir, "flows"), codec.FormatJSON)
	require.NoError(t, flows.Put(ctx, ordersFlow(t)))

	pos := domain.NewPosition("c1", "", "orders", "menu")
	pos.Status = domain.StatusAwaiting
	pos.History = []string{"start", "menu"}
	positions := file.NewPositionStore(filepath.Join(storeDir, "positions"))
	require.NoError(t, positions.Save(ctx, pos))

	out, err := execute(t, "", "graph", "--flow", "orders", "--conversation", "c1")
	require.NoError(t, err)
	assert.Contains(t, out, "class start visited;")
	assert.Contains(t, out, "class menu current;")
}

func TestGraph_RequiresSource(t *testing.T) {
	_, err := execute(t, "", "graph")
	assert.ErrorContains(t, err, "a flow file or --flow is required")
}

func TestDescribe(t *testing.T) {
	path := writeFlow(t, t.TempDir(), ordersFlow(t))

	out, err := execute(t, "", "describe", path)
	require.NoError(t, err)
	assert.Contains(t, out, "# orders")
	assert.Contains(t, out, "No issues found.")
}

func TestSimulate(t *testing.T) {
	path := writeFlow(t, t.TempDir(), ordersFlow(t))

	out, err := execute(t, "order\n#1\n", "simulate", path, "--name", "Ana")
	require.NoError(t, err)
	assert.Contains(t, out, "bot> What do you need?")
	assert.Contains(t, out, "bot> Tracking your order, Ana.")
}

func TestRunServe_StopsWhenCancelled(t *testing.T) {
	path := writeFlow(t, t.TempDir(), ordersFlow(t))

	cfg, err := config.FromViper(config.NewViper())
	require.NoError(t, err)
	cfg.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, runServe(ctx, cfg, logging.NewNop(), []string{path}))
}

func TestRunServe_BadSeed(t *testing.T) {
	cfg, err := config.FromViper(config.NewViper())
	require.NoError(t, err)

	err = runServe(context.Background(), cfg, logging.NewNop(), []string{filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestSweep_EscalatesStaleConversations(t *testing.T) {
	app, err := chatflow.New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Flows().Put(ctx, ordersFlow(t)))

	step, err := app.HandleInbound(ctx, domain.NewTextEvent("c1", "order"))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeAwaiting, step.Outcome)

	done := make(chan struct{})
	go func() {
		sweep(ctx, app.Conversations(), time.Nanosecond, 5*time.Millisecond, logging.NewNop())
		close(done)
	}()

	assert.Eventually(t, func() bool {
		pos, err := app.Conversations().Position(ctx, "c1")
		return err == nil && pos.Status == domain.StatusPaused
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestOpenBackend_ProtectsPositions(t *testing.T) {
	storeDir := t.TempDir()
	cfg := config.StoreConfig{
		Driver:        config.DriverFile,
		Dir:           storeDir,
		FlowFormat:    string(codec.FormatJSON),
		EncryptionKey: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=",
		MaskVariables: []string{"^cpf$"},
	}
	be, err := openBackend(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer be.Close()

	ctx := context.Background()
	pos := domain.NewPosition("c1", "", "orders", "menu")
	pos.Variables["cpf"] = "123"
	pos.Variables["choice"] = "Track"
	require.NoError(t, be.positions.Save(ctx, pos))

	loaded, err := be.positions.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "***", loaded.Variables["cpf"])
	assert.Equal(t, "Track", loaded.Variables["choice"])

	raw, err := file.NewPositionStore(filepath.Join(storeDir, "positions")).Load(ctx, "c1")
	require.NoError(t, err)
	assert.NotContains(t, raw.Variables, "choice")
}

func TestOpenBackend_RejectsBadMaskPattern(t *testing.T) {
	_, err := openBackend(context.Background(), config.StoreConfig{
		Driver:        config.DriverMemory,
		MaskVariables: []string{"("},
	}, logging.NewNop())
	assert.Error(t, err)
}
