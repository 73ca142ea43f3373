// Package cli holds the interactive pieces of the chatflow command line.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/muesli/termenv"

	"github.com/aretw0/chatflow"
	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/codec"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/validator"
)

// DefaultConversationID is the conversation a simulation runs as.
const DefaultConversationID = "simulator"

// SimulateOptions configures an interactive run of one flow file.
type SimulateOptions struct {
	FlowPath       string
	ConversationID string
	Contact        domain.Contact

	// JSON switches both directions to NDJSON: each input line is an
	// InboundEvent and each output line a Step.
	JSON bool

	MaxSteps int
	Logger   *slog.Logger
	In       io.Reader
	Out      io.Writer
}

// Simulator replays typed messages against a single flow held in memory.
type Simulator struct {
	app  *chatflow.App
	flow *domain.Flow
	opts SimulateOptions
	term *termenv.Output
}

// NewSimulator loads and validates the flow file and wires an in-memory App
// with the flow active.
func NewSimulator(ctx context.Context, opts SimulateOptions) (*Simulator, error) {
	if opts.ConversationID == "" {
		opts.ConversationID = DefaultConversationID
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	flow, err := codec.ReadFile(opts.FlowPath)
	if err != nil {
		return nil, err
	}
	if report := validator.Validate(flow); report.HasErrors() {
		return nil, fmt.Errorf("flow %q is not runnable: %w", flow.Name, report.Err())
	}
	flow.IsActive = true

	appOpts := []chatflow.Option{chatflow.WithLogger(opts.Logger)}
	if opts.MaxSteps > 0 {
		appOpts = append(appOpts, chatflow.WithMaxSteps(opts.MaxSteps))
	}
	app, err := chatflow.New(appOpts...)
	if err != nil {
		return nil, err
	}
	if err := app.Flows().Put(ctx, flow); err != nil {
		return nil, err
	}
	stored, err := app.Flows().Get(ctx, flow.Tenant, flow.Name)
	if err != nil {
		return nil, err
	}

	return &Simulator{
		app:  app,
		flow: stored,
		opts: opts,
		term: termenv.NewOutput(opts.Out),
	}, nil
}

// Run reads input until EOF, /quit, or ctx is done.
func (s *Simulator) Run(ctx context.Context) error {
	if !s.opts.JSON {
		s.system("Simulating %q. Send %q to start, /help for commands.", s.flow.Name, s.flow.TriggerKeyword)
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(s.opts.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
		close(lines)
	}()

	for {
		if !s.opts.JSON {
			fmt.Fprint(s.opts.Out, s.term.String("you> ").Bold())
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if !s.opts.JSON {
					fmt.Fprintln(s.opts.Out)
				}
				return <-readErr
			}
			done, err := s.handle(ctx, line)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

func (s *Simulator) handle(ctx context.Context, line string) (bool, error) {
	if s.opts.JSON {
		return false, s.handleJSON(ctx, line)
	}

	line = strings.TrimSpace(line)
	switch line {
	case "":
		return false, nil
	case "/quit", "/exit":
		s.system("Bye!")
		return true, nil
	case "/help":
		s.system("#N picks option N, /timeout expires the pending reply, /resolve hands back from a human, /state shows the position, /quit exits.")
		return false, nil
	case "/resolve":
		if err := s.app.Resolve(ctx, s.opts.ConversationID); err != nil {
			return false, err
		}
		s.system("Conversation resolved.")
		return false, nil
	case "/timeout":
		step, err := s.app.Timeout(ctx, s.opts.ConversationID)
		if errors.Is(err, domain.ErrPositionNotFound) {
			s.system("Idle.")
			return false, nil
		}
		if err != nil {
			return false, err
		}
		s.print(step)
		return false, nil
	case "/state":
		return false, s.state(ctx)
	}

	ev := domain.NewTextEvent(s.opts.ConversationID, line)
	if i, ok := parseSelection(line); ok {
		ev = domain.NewSelectionEvent(s.opts.ConversationID, i)
	}
	ev.Contact = s.opts.Contact
	step, err := s.app.HandleInbound(ctx, ev)
	if err != nil {
		return false, err
	}
	s.print(step)
	return false, nil
}

func (s *Simulator) handleJSON(ctx context.Context, line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	var ev domain.InboundEvent
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return fmt.Errorf("invalid inbound event: %w", err)
	}
	if ev.ConversationID == "" {
		ev.ConversationID = s.opts.ConversationID
	}
	if ev.Contact == (domain.Contact{}) {
		ev.Contact = s.opts.Contact
	}
	step, err := s.app.HandleInbound(ctx, ev)
	if err != nil {
		return err
	}
	return json.NewEncoder(s.opts.Out).Encode(step)
}

func (s *Simulator) state(ctx context.Context) error {
	pos, err := s.app.Conversations().Position(ctx, s.opts.ConversationID)
	if errors.Is(err, domain.ErrPositionNotFound) {
		s.system("Idle.")
		return nil
	}
	if err != nil {
		return err
	}
	s.system("%s at %q, variables %v", pos.Phase(), pos.CurrentNodeID, pos.Variables)
	return nil
}

func (s *Simulator) print(step *domain.Step) {
	for _, a := range step.Actions {
		switch p := a.Payload.(type) {
		case domain.TextMessage:
			s.bot(p.Body)
		case domain.InteractiveMessage:
			s.bot(p.Body)
			for i, o := range p.Options {
				fmt.Fprintf(s.opts.Out, "     #%d %s\n", i+1, o.Title)
			}
			for _, sec := range p.Sections {
				fmt.Fprintf(s.opts.Out, "     [%s]\n", p.ButtonText)
				for i, row := range sec.Rows {
					fmt.Fprintf(s.opts.Out, "     #%d %s\n", i+1, row.Title)
				}
			}
		case domain.Handoff:
			s.system("Handed off to a human (%s).", p.Reason)
		}
	}

	switch step.Outcome {
	case domain.OutcomeNoMatch:
		if len(step.Actions) == 0 {
			s.system("That reply matches no option.")
		}
	case domain.OutcomeUnrouted:
		s.system("No flow matches. Send %q to start.", s.flow.TriggerKeyword)
	case domain.OutcomeIgnored:
		s.system("A human has this conversation. /resolve to hand it back.")
	case domain.OutcomeCompleted:
		s.system("Flow completed.")
	}
}

func (s *Simulator) bot(text string) {
	prefix := s.term.String("bot> ").Foreground(s.term.Color("#34d399"))
	fmt.Fprintf(s.opts.Out, "%s%s\n", prefix, text)
}

func (s *Simulator) system(format string, args ...any) {
	msg := fmt.Sprintf(">>> "+format, args...)
	fmt.Fprintln(s.opts.Out, s.term.String(msg).Faint())
}

// parseSelection reads "#N" as the zero-based option index N-1.
func parseSelection(line string) (int, bool) {
	rest, ok := strings.CutPrefix(line, "#")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

// Simulate runs a flow file interactively until input ends.
func Simulate(ctx context.Context, opts SimulateOptions) error {
	sim, err := NewSimulator(ctx, opts)
	if err != nil {
		return err
	}
	return sim.Run(ctx)
}
